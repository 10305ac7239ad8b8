package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	intakeservice "github.com/zhouzirui/leadbot/backend/internal/service/intake"
)

// Handler is the conversation core the bot feeds events into.
type Handler interface {
	Handle(ctx context.Context, ev intake.Event) intakeservice.Outcome
}

// Sender delivers replies; *Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, msg tgbotapi.MessageConfig) (tgbotapi.Message, error)
}

// Bot turns Telegram updates into intake events and sends the replies back.
type Bot struct {
	sender    Sender
	handler   Handler
	pool      *Pool
	keyboards Keyboards
	logger    *zap.Logger
}

// NewBot wires a sender, the conversation handler and the worker pool.
func NewBot(sender Sender, handler Handler, pool *Pool, keyboards Keyboards, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		sender:    sender,
		handler:   handler,
		pool:      pool,
		keyboards: keyboards,
		logger:    logger,
	}
}

// Enqueue schedules u on the sender's shard so updates of one user are
// handled in arrival order. Updates that carry no text are dropped.
func (b *Bot) Enqueue(ctx context.Context, u tgbotapi.Update) error {
	ev, chatID, ok := EventFromUpdate(u)
	if !ok {
		b.logger.Debug("skipping update", zap.Int("update_id", u.UpdateID))
		return nil
	}
	return b.pool.Submit(ctx, ev.UserID, func(ctx context.Context) {
		b.process(ctx, ev, chatID)
	})
}

func (b *Bot) process(ctx context.Context, ev intake.Event, chatID int64) {
	out := b.handler.Handle(ctx, ev)

	msg := tgbotapi.NewMessage(chatID, out.Reply.Text)
	msg.ParseMode = out.Reply.ParseMode
	if markup, ok := b.keyboards.Markup(out.Reply.Keyboard); ok {
		msg.ReplyMarkup = markup
	}

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if _, err := b.sender.SendMessage(sendCtx, msg); err != nil {
		b.logger.Warn("failed to send reply", zap.String("user_id", ev.UserID), zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// Poller fetches updates with getUpdates and hands them to a Bot.
type Poller struct {
	client  *Client
	bot     *Bot
	timeout time.Duration
	backoff time.Duration
	logger  *zap.Logger
}

// NewPoller returns a long-polling loop; timeout is the server-side wait.
func NewPoller(client *Client, bot *Bot, timeout time.Duration, logger *zap.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{client: client, bot: bot, timeout: timeout, backoff: 3 * time.Second, logger: logger}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("failed to delete webhook before polling", zap.Error(err))
	}

	p.logger.Info("telegram polling started")
	var offset int
	for {
		if ctx.Err() != nil {
			p.logger.Info("telegram polling stopped")
			return nil
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait := p.backoff
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = time.Duration(apiErr.RetryAfter) * time.Second
			}
			p.logger.Warn("getUpdates failed", zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if err := p.bot.Enqueue(ctx, u); err != nil && ctx.Err() == nil {
				p.logger.Error("failed to enqueue update", zap.Int("update_id", u.UpdateID), zap.Error(err))
			}
		}
	}
}
