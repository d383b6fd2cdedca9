package gateway

import (
	"context"
	"sync"

	"github.com/balizero/zantara-agentic/domain/agent"
)

// ScriptStep is one queued gateway exchange for deterministic testing:
// either a response or an error.
type ScriptStep struct {
	Response *Response
	Err      error
}

// ScriptedGateway replays a predefined sequence of responses. Calls past
// the end of the script return ErrUnavailable.
type ScriptedGateway struct {
	steps []ScriptStep
	index int
	calls int
	mu    sync.Mutex
}

// NewScriptedGateway creates a gateway that replays the given steps.
func NewScriptedGateway(steps ...ScriptStep) *ScriptedGateway {
	return &ScriptedGateway{steps: steps}
}

// TextStep queues a plain text response.
func TextStep(text string) ScriptStep {
	return ScriptStep{Response: &Response{
		Text:  text,
		Model: "scripted",
		Usage: agent.TokenUsage{PromptTokens: 10, CompletionTokens: 10},
	}}
}

// NativeCallStep queues a response carrying a native function call.
func NativeCallStep(name, arguments string) ScriptStep {
	return ScriptStep{Response: &Response{
		Model: "scripted",
		ToolCalls: []NativeToolCall{
			{ID: "call-1", Name: name, Arguments: arguments},
		},
		Usage: agent.TokenUsage{PromptTokens: 10, CompletionTokens: 10},
	}}
}

// ErrStep queues a failure.
func ErrStep(err error) ScriptStep {
	return ScriptStep{Err: err}
}

// SendMessage implements Gateway.
func (g *ScriptedGateway) SendMessage(_ context.Context, chat *Chat, message string, _ Tier) (*Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	chat.Append("user", message)

	if g.index >= len(g.steps) {
		return nil, ErrUnavailable
	}
	step := g.steps[g.index]
	g.index++

	if step.Err != nil {
		return nil, step.Err
	}
	chat.Append("assistant", step.Response.Text)
	return step.Response, nil
}

// Calls returns how many times SendMessage was invoked.
func (g *ScriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
