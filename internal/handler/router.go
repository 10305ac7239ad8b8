package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/handler/chat"
	"github.com/zhouzirui/leadbot/backend/internal/handler/lead"
	"github.com/zhouzirui/leadbot/backend/internal/handler/webhook"
	"github.com/zhouzirui/leadbot/backend/internal/service/session"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
	"github.com/zhouzirui/leadbot/backend/pkg/utils"
)

// Deps collects what the HTTP layer serves. Leads, Webhook and AdminToken
// are optional.
type Deps struct {
	Dispatcher    chat.Dispatcher
	Sessions      session.Store
	Leads         submission.Lister
	Webhook       webhook.Enqueuer
	WebhookSecret string
	// AdminToken guards session and submission reads; without it those
	// routes are not mounted.
	AdminToken string
	Logger     *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	respond := utils.NewResponder(logger.Named("http"))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler := chat.New(deps.Dispatcher, deps.Sessions, logger.Named("chat"))
		chatHandler.RegisterRoutes(api)

		if deps.Webhook != nil {
			webhook.New(deps.Webhook, deps.WebhookSecret, logger.Named("webhook")).RegisterRoutes(api)
		}

		if deps.AdminToken == "" {
			return
		}
		api.Group(func(admin chi.Router) {
			admin.Use(respond.RequireBearer(deps.AdminToken))
			chatHandler.RegisterAdminRoutes(admin)
			// Only recorders that can read back expose the submissions API
			if deps.Leads != nil {
				lead.New(deps.Leads, logger.Named("lead")).RegisterRoutes(admin)
			}
		})
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
