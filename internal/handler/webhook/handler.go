package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/pkg/utils"
)

// SecretHeader 是 Telegram 回传 setWebhook secret_token 的请求头
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxBodySize = 1 << 20

// Enqueuer 接收 Telegram 更新并异步处理
type Enqueuer interface {
	Enqueue(ctx context.Context, u tgbotapi.Update) error
}

// Handler Telegram webhook的HTTP处理器
type Handler struct {
	bot     Enqueuer
	secret  string
	logger  *zap.Logger
	respond utils.Responder
}

// New 创建webhook处理器，secret为空时不校验请求头
func New(bot Enqueuer, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		bot:     bot,
		secret:  secret,
		logger:  logger,
		respond: utils.NewResponder(logger),
	}
}

// RegisterRoutes 注册webhook路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/telegram/webhook", h.handleUpdate)
}

// handleUpdate 校验secret后把更新放入工作池，处理结果不影响应答
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.respond.Error(w, http.StatusUnauthorized, "invalid secret token")
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&update); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid update")
		return
	}

	if err := h.bot.Enqueue(r.Context(), update); err != nil {
		// Telegram 会重试非 2xx 的投递
		h.logger.Warn("failed to enqueue webhook update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		h.respond.Error(w, http.StatusServiceUnavailable, "bot is not accepting updates")
		return
	}
	w.WriteHeader(http.StatusOK)
}
