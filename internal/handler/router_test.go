package handler

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/leadbot/backend/internal/model/content"
	intakeService "github.com/zhouzirui/leadbot/backend/internal/service/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/session"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
)

func newDeps(t *testing.T) Deps {
	t.Helper()
	store := session.NewMemoryStore()
	logger := zaptest.NewLogger(t)
	return Deps{
		Dispatcher: intakeService.NewDispatcher(store, content.NewMemoryStore(content.Seed()), nil, intakeService.DefaultOptions(), logger),
		Sessions:   store,
		Logger:     logger,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthz(t *testing.T) {
	resp := do(t, NewRouter(newDeps(t)), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"ok"`)
}

func TestMessagesRouteMounted(t *testing.T) {
	resp := do(t, NewRouter(newDeps(t)), http.MethodPost, "/api/messages", `{"userId":"u1","text":"/help"}`)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"reply"`)
}

func TestAdminRoutesOffWithoutToken(t *testing.T) {
	leads, err := submission.OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = leads.Close() })

	deps := newDeps(t)
	deps.Leads = leads
	router := NewRouter(deps)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/sessions/tg:42", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/submissions", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/telegram/webhook", "{}").Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	leads, err := submission.OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = leads.Close() })

	deps := newDeps(t)
	deps.Leads = leads
	deps.AdminToken = "adm1n"
	router := NewRouter(deps)

	for _, path := range []string{"/api/sessions/tg:42", "/api/submissions"} {
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, path, "").Code, path)
		assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, path, "", "Authorization", "Bearer wrong").Code, path)
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, path, "", "Authorization", "Bearer adm1n").Code, path)
	}

	// User-facing routes stay open.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/messages", `{"userId":"u1","text":"/help"}`).Code)
}
