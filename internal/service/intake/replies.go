package intake

import (
	"fmt"
	"html"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

func htmlReply(text string, kb intake.Keyboard) intake.Reply {
	return intake.Reply{Text: text, Keyboard: kb, ParseMode: intake.ParseModeHTML}
}

func plainReply(text string, kb intake.Keyboard) intake.Reply {
	return intake.Reply{Text: text, Keyboard: kb}
}

func namePrompt(intake.Session) intake.Reply {
	return htmlReply("📝 <b>Заполнение заявки</b>\n\nШаг 1 из 3\nКак вас зовут?", intake.KeyboardCancel)
}

func phonePrompt(s intake.Session) intake.Reply {
	return htmlReply(fmt.Sprintf(
		"Отлично, <b>%s</b>! 👍\n\n"+
			"Шаг 2 из 3\n"+
			"Теперь укажите ваш номер телефона:\n"+
			"<i>(в формате +7XXXXXXXXXX или просто цифры)</i>",
		html.EscapeString(s.Fields[intake.FieldName]),
	), intake.KeyboardNone)
}

func messagePrompt(intake.Session) intake.Reply {
	return htmlReply("Отлично! 📱\n\nШаг 3 из 3\nОпишите, что вас интересует или какая услуга нужна:", intake.KeyboardNone)
}

var (
	nameRejected    = plainReply("❌ Слишком короткое имя.\nПожалуйста, введите корректное имя:", intake.KeyboardNone)
	phoneRejected   = plainReply("❌ Некорректный номер телефона.\nПожалуйста, введите номер снова:", intake.KeyboardNone)
	messageRejected = plainReply("❌ Слишком короткое сообщение.\nПожалуйста, опишите подробнее:", intake.KeyboardNone)

	nothingToCancel = plainReply("Нечего отменять 😊", intake.KeyboardMenu)
	cancelled       = plainReply("✅ Действие отменено.\nВы вернулись в главное меню.", intake.KeyboardMenu)
	unrecognized    = plainReply("🤔 Я не понял вашего сообщения.\n\n"+
		"Пожалуйста, используйте кнопки меню ниже 👇\n"+
		"Или напишите /help для справки.", intake.KeyboardMenu)
	tryAgain = plainReply("⚠️ Что-то пошло не так. Пожалуйста, отправьте сообщение ещё раз.", intake.KeyboardNone)
)

func confirmation(sub intake.Submission) intake.Reply {
	return htmlReply(fmt.Sprintf(
		"✅ <b>Спасибо за вашу заявку!</b>\n\n"+
			"Ваши данные:\n"+
			"👤 Имя: %s\n"+
			"📞 Телефон: %s\n\n"+
			"Мы свяжемся с вами в ближайшее время! 📲\n"+
			"Обычно это занимает 1-2 часа.",
		html.EscapeString(sub.Name),
		html.EscapeString(sub.Phone),
	), intake.KeyboardMenu)
}
