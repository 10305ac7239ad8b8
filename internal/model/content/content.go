package content

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
)

// Entry is a stateless informational reply triggered by one of its keywords.
type Entry struct {
	Key      string          `yaml:"key" json:"key"`
	Keywords []string        `yaml:"keywords" json:"keywords"`
	Text     string          `yaml:"text" json:"text"`
	Keyboard intake.Keyboard `yaml:"keyboard,omitempty" json:"keyboard,omitempty"`
	// Priority entries answer in every state, even while a form is open.
	Priority bool `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Data is what an entry template may reference.
type Data struct {
	Name string
}

// Render executes the entry text as an HTML template; Data fields are escaped.
func (e Entry) Render(data Data) (intake.Reply, error) {
	tmpl, err := template.New(e.Key).Parse(e.Text)
	if err != nil {
		return intake.Reply{}, fmt.Errorf("parse %s template: %w", e.Key, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return intake.Reply{}, fmt.Errorf("render %s template: %w", e.Key, err)
	}

	return intake.Reply{
		Text:      buf.String(),
		Keyboard:  e.Keyboard,
		ParseMode: intake.ParseModeHTML,
	}, nil
}

// Validate checks that the entry can be matched and rendered.
func (e Entry) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("content entry key is required")
	}
	if len(e.Keywords) == 0 {
		return fmt.Errorf("content entry %q has no keywords", e.Key)
	}
	if _, err := template.New(e.Key).Parse(e.Text); err != nil {
		return fmt.Errorf("content entry %q: %w", e.Key, err)
	}
	return nil
}

// Menu button labels shared by the seed content and the reply keyboards.
const (
	ButtonRequest  = "📝 Оставить заявку"
	ButtonAbout    = "ℹ️ О компании"
	ButtonContacts = "📞 Контакты"
	ButtonFAQ      = "❓ Частые вопросы"
	ButtonCancel   = "❌ Отменить"
)

// Seed provides the informational replies the bot ships with.
func Seed() []Entry {
	return []Entry{
		{
			Key:      "welcome",
			Keywords: []string{"/start"},
			Keyboard: intake.KeyboardMenu,
			Priority: true,
			Text: "👋 <b>Добро пожаловать, {{.Name}}!</b>\n\n" +
				"Я бот компании <b>«Ваша Компания»</b>\n\n" +
				"Могу помочь вам:\n" +
				"📝 Оставить заявку на услугу\n" +
				"ℹ️ Узнать о нашей компании\n" +
				"📞 Посмотреть контакты\n" +
				"❓ Найти ответы на частые вопросы\n\n" +
				"Выберите нужный пункт меню ниже 👇",
		},
		{
			Key:      "help",
			Keywords: []string{"/help"},
			Priority: true,
			Text: "<b>📖 Доступные команды:</b>\n\n" +
				"/start - Главное меню\n" +
				"/help - Справка\n" +
				"/cancel - Отменить текущее действие",
		},
		{
			Key:      "about",
			Keywords: []string{ButtonAbout, "/about"},
			Keyboard: intake.KeyboardMenu,
			Text: "🏢 <b>О компании «Ваша Компания»</b>\n\n" +
				"Мы занимаемся <b>[описание деятельности]</b>\n\n" +
				"📊 Наши преимущества:\n" +
				"✅ Опыт работы более 5 лет\n" +
				"✅ 500+ довольных клиентов\n" +
				"✅ Гарантия качества\n" +
				"✅ Индивидуальный подход\n\n" +
				"🎯 Мы поможем вам:\n" +
				"• [Услуга 1]\n" +
				"• [Услуга 2]\n" +
				"• [Услуга 3]\n\n" +
				"Оставьте заявку, и мы свяжемся с вами! 👇",
		},
		{
			Key:      "contacts",
			Keywords: []string{ButtonContacts, "/contacts"},
			Keyboard: intake.KeyboardMenu,
			Text: "📞 <b>Наши контакты:</b>\n\n" +
				"📱 Телефон: <code>+7 (XXX) XXX-XX-XX</code>\n" +
				"📧 Email: info@example.com\n" +
				"🌐 Сайт: www.example.com\n" +
				"📍 Адрес: г. Москва, ул. Примерная, 1\n\n" +
				"🕐 <b>Режим работы:</b>\n" +
				"Пн-Пт: 9:00 - 18:00\n" +
				"Сб-Вс: Выходной\n\n" +
				"Или оставьте заявку в боте — перезвоним! 📲",
		},
		{
			Key:      "faq",
			Keywords: []string{ButtonFAQ, "/faq"},
			Keyboard: intake.KeyboardMenu,
			Text: "❓ <b>Частые вопросы:</b>\n\n" +
				"<b>Q: Как быстро вы отвечаете на заявки?</b>\n" +
				"A: Обычно в течение 1-2 часов в рабочее время.\n\n" +
				"<b>Q: Какие способы оплаты доступны?</b>\n" +
				"A: Наличные, безналичный расчёт, карта.\n\n" +
				"<b>Q: Предоставляете ли вы гарантию?</b>\n" +
				"A: Да, гарантия на все виды работ.\n\n" +
				"<b>Q: Работаете ли вы в выходные?</b>\n" +
				"A: По договорённости возможен выезд в выходные.\n\n" +
				"Остались вопросы? Оставьте заявку! 👇",
		},
	}
}
