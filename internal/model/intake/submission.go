package intake

import "time"

// Submission is the immutable record of one completed form.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Message     string    `json:"message"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	Handle      string    `json:"handle,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// HandleOrDefault returns the public handle prefixed with "@", or fallback
// when the user has none.
func (s Submission) HandleOrDefault(fallback string) string {
	if s.Handle == "" {
		return fallback
	}
	return "@" + s.Handle
}
