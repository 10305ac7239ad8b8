package utils

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Responder 发送JSON响应，编码失败记录到所属处理器的日志
type Responder struct {
	Logger *zap.Logger
}

// NewResponder 创建响应器，logger为空时不记录日志
func NewResponder(logger *zap.Logger) Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Responder{Logger: logger}
}

// JSON 发送JSON响应
func (r Responder) JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && r.Logger != nil {
		r.Logger.Warn("failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

// Error 发送错误响应
func (r Responder) Error(w http.ResponseWriter, status int, message string) {
	r.JSON(w, status, map[string]string{"error": message})
}

// RequireBearer 只放行携带 "Authorization: Bearer <token>" 的请求
func (r Responder) RequireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got, ok := strings.CutPrefix(req.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				r.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
