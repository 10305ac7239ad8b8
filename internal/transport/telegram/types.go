package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zhouzirui/leadbot/backend/internal/model/content"
	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

// UserKeyPrefix namespaces Telegram users in the shared session store.
const UserKeyPrefix = "tg:"

// UserKey returns the session key of the Telegram user id.
func UserKey(id int64) string {
	return UserKeyPrefix + strconv.FormatInt(id, 10)
}

// Keyboards holds the button layouts for each intake.Keyboard variant.
type Keyboards struct {
	Menu   [][]string
	Cancel string
}

// DefaultKeyboards lays the main menu out as request / about+contacts / FAQ.
func DefaultKeyboards() Keyboards {
	return Keyboards{
		Menu: [][]string{
			{content.ButtonRequest},
			{content.ButtonAbout, content.ButtonContacts},
			{content.ButtonFAQ},
		},
		Cancel: content.ButtonCancel,
	}
}

// Markup renders kb. ok is false when no markup should be attached.
func (k Keyboards) Markup(kb intake.Keyboard) (markup tgbotapi.ReplyKeyboardMarkup, ok bool) {
	switch kb {
	case intake.KeyboardMenu:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(k.Menu))
		for _, row := range k.Menu {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		return tgbotapi.NewReplyKeyboard(rows...), true
	case intake.KeyboardCancel:
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(k.Cancel)),
		), true
	default:
		return tgbotapi.ReplyKeyboardMarkup{}, false
	}
}

// EventFromUpdate converts an update into an intake event and the chat to
// reply to. Updates without text or sender are skipped.
func EventFromUpdate(u tgbotapi.Update) (intake.Event, int64, bool) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Text == "" {
		return intake.Event{}, 0, false
	}

	chatID := msg.From.ID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	return intake.Event{
		UserID:      UserKey(msg.From.ID),
		DisplayName: strings.TrimSpace(msg.From.FirstName),
		Handle:      msg.From.UserName,
		Text:        msg.Text,
	}, chatID, true
}
