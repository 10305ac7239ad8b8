package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

const (
	maxFrameSize = 8 << 10
	writeTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	UserID    string      `json:"userId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接，每个文本帧是一条用户消息
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := strings.TrimSpace(query.Get("userId"))
	if userID == "" {
		userID = "ws-" + uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	log := h.logger.With(zap.String("user_id", userID))
	log.Debug("websocket connected")

	if err := h.writeJSON(conn, outgoingMessage{Type: "ready", UserID: userID}); err != nil {
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var in inboundMessage
		if err := json.Unmarshal(data, &in); err != nil {
			// Bare text frames are accepted as messages too.
			in = inboundMessage{Type: "message", Text: string(data)}
		}
		if in.Type != "" && in.Type != "message" {
			_ = h.writeJSON(conn, outgoingMessage{Type: "error", Data: "unsupported message type"})
			continue
		}

		out := h.dispatcher.Handle(r.Context(), intake.Event{
			UserID:      UserKey(userID),
			DisplayName: query.Get("displayName"),
			Handle:      query.Get("handle"),
			Text:        in.Text,
		})
		if err := h.writeJSON(conn, outgoingMessage{Type: "reply", UserID: userID, Data: toResponse(out)}); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				log.Debug("websocket write failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) writeJSON(conn *websocket.Conn, msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}
