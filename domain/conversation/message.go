// Package conversation provides the per-user chat history model the
// orchestrator persists between queries.
package conversation

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a user's conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped now.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}
