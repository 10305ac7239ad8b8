// Package notify delivers new-submission alerts to the operator.
package notify

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	"github.com/zhouzirui/leadbot/backend/internal/transport/telegram"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	noHandle        = "Не указан"
)

// TelegramNotifier sends the alert to one operator chat.
type TelegramNotifier struct {
	sender telegram.Sender
	chatID int64
}

// NewTelegramNotifier returns a notifier for the operator chat chatID.
func NewTelegramNotifier(sender telegram.Sender, chatID int64) (*TelegramNotifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("operator chat id is required")
	}
	return &TelegramNotifier{sender: sender, chatID: chatID}, nil
}

// Notify sends one HTML alert with every submission field.
func (n *TelegramNotifier) Notify(ctx context.Context, sub intake.Submission) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(sub))
	msg.ParseMode = intake.ParseModeHTML
	_, err := n.sender.SendMessage(ctx, msg)
	return err
}

// FormatAlert renders the operator alert for sub.
func FormatAlert(sub intake.Submission) string {
	return fmt.Sprintf(
		"🔔 <b>НОВАЯ ЗАЯВКА!</b>\n\n"+
			"👤 <b>Имя:</b> %s\n"+
			"📞 <b>Телефон:</b> %s\n"+
			"💬 <b>Сообщение:</b>\n%s\n\n"+
			"🆔 <b>Telegram:</b> %s\n"+
			"🔑 <b>User ID:</b> <code>%s</code>\n"+
			"🕐 <b>Время:</b> %s",
		html.EscapeString(sub.Name),
		html.EscapeString(sub.Phone),
		html.EscapeString(sub.Message),
		html.EscapeString(sub.HandleOrDefault(noHandle)),
		html.EscapeString(sub.UserID),
		sub.SubmittedAt.Format(timestampLayout),
	)
}

// LogNotifier writes the alert to the log. It is used when no operator chat
// is configured and never fails.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier logging through logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs sub at info level.
func (n *LogNotifier) Notify(_ context.Context, sub intake.Submission) error {
	n.logger.Info("new submission",
		zap.String("submission_id", sub.ID),
		zap.String("name", sub.Name),
		zap.String("phone", sub.Phone),
		zap.String("message", sub.Message),
		zap.String("handle", sub.Handle),
		zap.String("user_id", sub.UserID),
		zap.Time("submitted_at", sub.SubmittedAt),
	)
	return nil
}
