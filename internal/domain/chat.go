package domain

import "time"

// ChatMessage is one turn in a session's conversation.
type ChatMessage struct {
	ID        string    `json:"id"         db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Role      string    `json:"role"       db:"role"` // user, assistant
	Content   string    `json:"content"    db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chat role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
