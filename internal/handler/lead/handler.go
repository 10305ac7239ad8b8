package lead

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
	"github.com/zhouzirui/leadbot/backend/pkg/utils"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler 已提交表单的只读HTTP处理器
type Handler struct {
	leads   submission.Lister
	logger  *zap.Logger
	respond utils.Responder
}

// New 创建表单记录处理器
func New(leads submission.Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		leads:   leads,
		logger:  logger,
		respond: utils.NewResponder(logger),
	}
}

// RegisterRoutes 注册表单记录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/submissions", h.handleListSubmissions)
	r.Get("/submissions/{id}", h.handleGetSubmission)
}

// handleListSubmissions 按提交时间倒序列出表单
func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respond.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}

	subs, err := h.leads.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list submissions", zap.Error(err))
		h.respond.Error(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}
	h.respond.JSON(w, http.StatusOK, subs)
}

// handleGetSubmission 返回单条表单
func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := h.leads.Get(r.Context(), id)
	if errors.Is(err, submission.ErrNotFound) {
		h.respond.Error(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load submission", zap.String("submission_id", id), zap.Error(err))
		h.respond.Error(w, http.StatusInternalServerError, "failed to load submission")
		return
	}
	h.respond.JSON(w, http.StatusOK, sub)
}
