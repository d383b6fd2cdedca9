// Package gateway provides the LLM gateway the reasoning loop consumes: a
// conversation handle, model tiers, and a provider fallback chain with
// per-provider circuit breaking. The loop treats it as a black box that is
// sometimes transiently unavailable.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/balizero/zantara-agentic/domain/agent"
)

// Tier selects the model class for a call.
type Tier string

const (
	TierFlash Tier = "flash" // Fast, cheap: intermediate reasoning steps
	TierPro   Tier = "pro"   // Strong: final synthesis, hard questions
)

// Message is one turn in the gateway conversation.
type Message struct {
	Role    string `json:"role"` // system, user, assistant, tool
	Content string `json:"content"`
}

// Chat is the mutable conversation handle threaded through a loop
// invocation. The gateway appends both sides of every exchange so providers
// see the full transcript on each call.
type Chat struct {
	ID       string
	System   string
	Messages []Message
}

// NewChat creates a conversation handle with the given system prompt.
func NewChat(id, system string) *Chat {
	return &Chat{ID: id, System: system}
}

// Append adds a message to the transcript.
func (c *Chat) Append(role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// NativeToolCall is a function-call object embedded in a provider response.
// It takes priority over text-parsed action directives.
type NativeToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded object
}

// Response is the gateway's answer to one SendMessage call.
type Response struct {
	Text      string           `json:"text"`
	Model     string           `json:"model"`
	ToolCalls []NativeToolCall `json:"tool_calls,omitempty"`
	Usage     agent.TokenUsage `json:"usage"`
	Raw       json.RawMessage  `json:"-"` // Native provider payload, for tracing
}

// Gateway accepts a conversation handle, a message, and a model tier. It
// may return a transient-failure error (see IsTransient); the reasoning
// core never retries those itself.
type Gateway interface {
	SendMessage(ctx context.Context, chat *Chat, message string, tier Tier) (*Response, error)
}
