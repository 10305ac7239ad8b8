package intake

import "time"

// State is the step of the intake form a user is currently on.
type State string

const (
	// StateIdle means no form is in progress.
	StateIdle State = "idle"
	// StateAwaitingName waits for the contact name (step 1 of 3).
	StateAwaitingName State = "awaiting_name"
	// StateAwaitingPhone waits for the phone number (step 2 of 3).
	StateAwaitingPhone State = "awaiting_phone"
	// StateAwaitingMessage waits for the free-text request (step 3 of 3).
	StateAwaitingMessage State = "awaiting_message"
)

// Field names a validated answer collected by the form.
type Field string

const (
	FieldName    Field = "name"
	FieldPhone   Field = "phone"
	FieldMessage Field = "message"
)

// Session captures the in-progress form of a single user.
type Session struct {
	UserID    string           `json:"userId"`
	State     State            `json:"state"`
	Fields    map[Field]string `json:"fields"`
	UpdatedAt time.Time        `json:"updatedAt,omitempty"`
}

// NewSession returns the idle, empty session every unknown user starts with.
func NewSession(userID string) Session {
	return Session{
		UserID: userID,
		State:  StateIdle,
		Fields: map[Field]string{},
	}
}

// IsIdle reports whether no form is in progress. The zero State counts as idle.
func (s Session) IsIdle() bool {
	return s.State == "" || s.State == StateIdle
}

// Clone returns a copy whose Fields map is not shared with s.
func (s Session) Clone() Session {
	fields := make(map[Field]string, len(s.Fields))
	for k, v := range s.Fields {
		fields[k] = v
	}
	s.Fields = fields
	return s
}

// With returns a copy of s with field set to value.
func (s Session) With(field Field, value string) Session {
	next := s.Clone()
	next.Fields[field] = value
	return next
}
