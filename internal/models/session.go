package models

import "time"

// Session statuses.
const (
	SessionUpcoming  = "upcoming"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Session is a schedulable, capacity-bounded study room.
type Session struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Duration        int       `json:"duration"` // minutes
	Goal            string    `json:"goal"`
	Status          string    `json:"status"`
	Participants    int       `json:"participants"`
	MaxParticipants int       `json:"maxParticipants"`
	CreatedAt       time.Time `json:"createdAt"`
	CreatedBy       string    `json:"createdBy"`
	RequiresCode    bool      `json:"requiresCode"`
	RoomCode        string    `json:"roomCode,omitempty"`
}

type CreateSessionRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Duration        int    `json:"duration"`
	Goal            string `json:"goal"`
	Status          string `json:"status"`
	MaxParticipants int    `json:"max_participants"`
	RequiresCode    bool   `json:"requires_code"`
	RoomCode        string `json:"room_code"`
}

// UpdateSessionRequest carries partial updates; nil fields are untouched.
type UpdateSessionRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Duration        *int    `json:"duration"`
	Goal            *string `json:"goal"`
	Status          *string `json:"status"`
	MaxParticipants *int    `json:"max_participants"`
	RequiresCode    *bool   `json:"requires_code"`
	RoomCode        *string `json:"room_code"`
}

// SessionFilter narrows List results; zero values match everything.
type SessionFilter struct {
	Status   string
	Duration int
}

type RedeemCodeRequest struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id"`
}
