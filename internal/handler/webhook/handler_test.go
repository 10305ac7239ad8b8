package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhouzirui/leadbot/backend/internal/transport/telegram"
)

type fakeBot struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
	err     error
}

func (f *fakeBot) Enqueue(_ context.Context, u tgbotapi.Update) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, u)
	return nil
}

const updateBody = `{"update_id":7,"message":{"message_id":1,"date":0,"from":{"id":5,"first_name":"Ann"},"chat":{"id":5},"text":"/start"}}`

func serve(t *testing.T, bot Enqueuer, secret, header, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(bot, secret, zaptest.NewLogger(t)).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	if header != "" {
		req.Header.Set(SecretHeader, header)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestWebhookEnqueuesUpdate(t *testing.T) {
	bot := &fakeBot{}

	resp := serve(t, bot, "s3cret", "s3cret", updateBody)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, bot.updates, 1)
	assert.Equal(t, 7, bot.updates[0].UpdateID)
	assert.Equal(t, "/start", bot.updates[0].Message.Text)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	bot := &fakeBot{}

	for _, header := range []string{"", "nope"} {
		resp := serve(t, bot, "s3cret", header, updateBody)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	assert.Empty(t, bot.updates)
}

func TestWebhookWithoutSecretAcceptsAll(t *testing.T) {
	bot := &fakeBot{}

	resp := serve(t, bot, "", "", updateBody)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, bot.updates, 1)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	resp := serve(t, &fakeBot{}, "", "", "{")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWebhookReportsClosedPool(t *testing.T) {
	resp := serve(t, &fakeBot{err: telegram.ErrPoolClosed}, "", "", updateBody)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
