package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message represents a single conversational turn
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and timestamp
func NewMessage(role MessageRole, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Conversation is an append-only ordered transcript. It is owned by exactly
// one session and discarded with it; nothing is persisted.
type Conversation struct {
	Messages []Message
}

// Append adds a new turn to the transcript and returns it
func (c *Conversation) Append(role MessageRole, content string) Message {
	msg := NewMessage(role, content)
	c.Messages = append(c.Messages, msg)
	return msg
}

// Len returns the number of turns in the transcript
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Flatten renders the whole transcript as a single document, one
// "role: content" line per turn, in order. Used as extraction input.
func (c *Conversation) Flatten() string {
	var b strings.Builder
	for _, msg := range c.Messages {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}
