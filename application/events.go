package application

import "github.com/balizero/zantara-agentic/domain/agent"

// EventType identifies a streaming loop event.
type EventType string

const (
	// EventThought carries intermediate reasoning text.
	EventThought EventType = "thought"

	// EventToolCall announces a tool dispatch, emitted before execution.
	EventToolCall EventType = "tool_call"

	// EventToolResult carries a tool observation.
	EventToolResult EventType = "tool_result"

	// EventEvidence carries the recomputed evidence score. At least one is
	// emitted per run, even with no context at all.
	EventEvidence EventType = "evidence_score"

	// EventFinalAnswer is the terminal event of a successful stream.
	EventFinalAnswer EventType = "final_answer"

	// EventError reports a failure without killing the stream. It is
	// terminal only when no final answer can follow.
	EventError EventType = "error"
)

// Event is one element of the ordered, finite event sequence produced by
// the streaming loop.
type Event struct {
	Type      EventType         `json:"type"`
	Step      int               `json:"step"`
	Text      string            `json:"text,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	Arguments map[string]any    `json:"arguments,omitempty"`
	Score     float64           `json:"score,omitempty"`
	Strength  string            `json:"strength,omitempty"`
	Sources   []agent.Source    `json:"sources,omitempty"`
	Usage     *agent.TokenUsage `json:"usage,omitempty"`
	Err       string            `json:"error,omitempty"`
}
