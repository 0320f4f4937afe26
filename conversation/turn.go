package conversation

import "time"

const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. Turns are persisted to the content
// store as JSON so a session can be rehydrated later.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
