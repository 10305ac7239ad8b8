package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// allowedUpdates limits polling and webhooks to plain messages.
const allowedUpdates = `["message"]`

// Client talks to the Telegram Bot API through tgbotapi. Every call carries
// its own context.
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient builds a client without calling getMe. baseURL is only set for
// tests and self-hosted Bot API servers.
func NewClient(token, baseURL string, httpClient *http.Client) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("missing telegram token")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 70 * time.Second}
	}

	api := &tgbotapi.BotAPI{Token: token, Client: httpClient, Buffer: 100}
	endpoint := tgbotapi.APIEndpoint
	if baseURL != "" {
		endpoint = strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	}
	api.SetAPIEndpoint(endpoint)
	return &Client{api: api}, nil
}

// SendMessage delivers msg and returns the sent message.
func (c *Client) SendMessage(ctx context.Context, msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	if msg.ChatID == 0 {
		return tgbotapi.Message{}, fmt.Errorf("missing telegram chat id")
	}
	sent, err := c.with(ctx).Send(msg)
	return sent, c.wrap("sendMessage", err)
}

// GetUpdates long-polls for updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = []string{"message"}

	updates, err := c.with(ctx).GetUpdates(cfg)
	return updates, c.wrap("getUpdates", err)
}

// SetWebhook registers url; Telegram echoes secret in every delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{"url": url, "allowed_updates": allowedUpdates}
	params.AddNonEmpty("secret_token", secret)

	_, err := c.with(ctx).MakeRequest("setWebhook", params)
	return c.wrap("setWebhook", err)
}

// DeleteWebhook switches the bot back to getUpdates.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.with(ctx).Request(tgbotapi.DeleteWebhookConfig{})
	return c.wrap("deleteWebhook", err)
}

// with returns a shallow copy of the API whose requests are bound to ctx.
func (c *Client) with(ctx context.Context) *tgbotapi.BotAPI {
	api := *c.api
	api.Client = contextDoer{ctx: ctx, next: c.api.Client}
	return &api
}

type contextDoer struct {
	ctx  context.Context
	next tgbotapi.HTTPClient
}

func (d contextDoer) Do(req *http.Request) (*http.Response, error) {
	return d.next.Do(req.WithContext(d.ctx))
}

func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	// Transport errors quote the URL, which carries the token.
	return fmt.Errorf("telegram %s: request failed: %w", method, redact(err, c.api.Token))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	msg := err.Error()
	if token == "" || !strings.Contains(msg, token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, token, "<token>"), err: err}
}
