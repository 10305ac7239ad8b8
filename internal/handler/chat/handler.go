package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	intakeService "github.com/zhouzirui/leadbot/backend/internal/service/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/session"
	"github.com/zhouzirui/leadbot/backend/pkg/utils"
)

// UserKeyPrefix 区分HTTP用户与其他渠道的用户，会话存储中的键为 "http:<userId>"
const UserKeyPrefix = "http:"

// Dispatcher 是对话状态机的入口
type Dispatcher interface {
	Handle(ctx context.Context, ev intake.Event) intakeService.Outcome
}

// Handler 对话服务的HTTP处理器
type Handler struct {
	dispatcher Dispatcher
	sessions   session.Store
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	respond    utils.Responder
}

// New 创建对话处理器
func New(dispatcher Dispatcher, sessions session.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
		respond:    utils.NewResponder(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册面向用户的对话路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/messages", h.handleMessage)
	r.Get("/ws", h.handleWebSocket)
}

// RegisterAdminRoutes 注册需要管理员令牌的路由
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/sessions/{userKey}", h.handleGetSession)
}

type messageResponse struct {
	Reply        intake.Reply `json:"reply"`
	SubmissionID string       `json:"submissionId,omitempty"`
}

// handleMessage 处理一条用户消息并返回回复
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload intake.Event
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		h.respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	payload.UserID = UserKey(userID)

	out := h.dispatcher.Handle(r.Context(), payload)
	h.respond.JSON(w, http.StatusOK, toResponse(out))
}

// handleGetSession 按会话键（如 "tg:42"、"http:u1"）返回表单状态
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "userKey")
	h.respond.JSON(w, http.StatusOK, h.sessions.Get(r.Context(), key))
}

// UserKey 返回HTTP用户在会话存储中的键
func UserKey(userID string) string {
	return UserKeyPrefix + userID
}

func toResponse(out intakeService.Outcome) messageResponse {
	resp := messageResponse{Reply: out.Reply}
	if out.Submission != nil {
		resp.SubmissionID = out.Submission.ID
	}
	return resp
}
