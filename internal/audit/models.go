package audit

import "time"

// Event is an immutable, append-only record of something that happened to the console session.
//
// Invariants:
// - Events are never updated or deleted.
// - Type is required.
// - Credentials never appear in Message or Metadata.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	// UserID and UserType identify the operator; empty when nobody was signed in.
	UserID   string `json:"userId,omitempty"`
	UserType string `json:"userType,omitempty"`

	// Message is a short human-readable description for operators.
	Message string `json:"message,omitempty"`

	// Metadata is optional JSON with extra detail.
	Metadata string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type EventType string

const (
	EventTypeLogin           EventType = "login"
	EventTypeLogout          EventType = "logout"
	EventTypeSessionEnded    EventType = "session_ended"
	EventTypePasswordChanged EventType = "password_changed"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeLogin, EventTypeLogout, EventTypeSessionEnded, EventTypePasswordChanged:
		return true
	default:
		return false
	}
}
