package intake

// Event is one inbound text from a conversing user.
type Event struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	Handle      string `json:"handle,omitempty"`
	Text        string `json:"text"`
}

// Keyboard selects which reply menu the transport should render.
type Keyboard string

const (
	// KeyboardNone attaches no markup; the transport keeps whatever is shown.
	KeyboardNone Keyboard = ""
	// KeyboardMenu is the main menu (request, about, contacts, FAQ).
	KeyboardMenu Keyboard = "menu"
	// KeyboardCancel is the single cancel button shown while a form is open.
	KeyboardCancel Keyboard = "cancel"
)

// ParseModeHTML marks reply text as Telegram-flavoured HTML.
const ParseModeHTML = "HTML"

// Reply is the outbound text for one handled event.
type Reply struct {
	Text      string   `json:"text"`
	Keyboard  Keyboard `json:"keyboard,omitempty"`
	ParseMode string   `json:"parseMode,omitempty"`
}
