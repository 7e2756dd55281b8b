package party

import "time"

// HealthState is the coarse backend status shown to users.
type HealthState string

const (
	HealthUnknown     HealthState = "unknown"
	HealthOnline      HealthState = "online"
	HealthUnreachable HealthState = "unreachable"
	HealthBadURL      HealthState = "bad-url"
)

// Text returns the status line displayed next to the health dot.
func (s HealthState) Text() string {
	switch s {
	case HealthOnline:
		return "Server is online"
	case HealthUnreachable:
		return "Server unreachable"
	case HealthBadURL:
		return "Bad WS URL"
	default:
		return "Checking…"
	}
}

// HealthReport is the outcome of one health check.
type HealthReport struct {
	State     HealthState `json:"state"`
	Text      string      `json:"text"`
	Server    string      `json:"server"`
	Error     string      `json:"error,omitempty"`
	CheckedAt time.Time   `json:"checkedAt"`
}

// GameView is a live room prepared for display.
type GameView struct {
	RoomID     string     `json:"roomId"`
	Title      string     `json:"title"`
	Platform   string     `json:"platform"`
	League     string     `json:"league,omitempty"`
	Label      string     `json:"label"`
	WatchURL   string     `json:"watchUrl,omitempty"`
	ChatURL    string     `json:"chatUrl,omitempty"`
	Override   string     `json:"override"`
	Clients    int        `json:"clients"`
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// FeedbackStatus tracks delivery of a feedback entry.
type FeedbackStatus string

const (
	FeedbackPending FeedbackStatus = "pending"
	FeedbackSent    FeedbackStatus = "sent"
	FeedbackFailed  FeedbackStatus = "failed"
)

// FeedbackEntry is a sanitized feedback message and its delivery state.
type FeedbackEntry struct {
	ID        string         `json:"id"`
	Message   string         `json:"message"`
	Contact   string         `json:"contact,omitempty"`
	Page      string         `json:"page,omitempty"`
	RoomID    string         `json:"roomId,omitempty"`
	Status    FeedbackStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
