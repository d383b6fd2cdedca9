package agent

import "encoding/json"

// ToolCall is the per-step value object produced by the parser: one tool
// invocation extracted from a model response. Produced, consumed once,
// discarded.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ArgumentsJSON encodes the arguments as a JSON object for tool dispatch.
// A nil argument map encodes as an empty object.
func (c ToolCall) ArgumentsJSON() json.RawMessage {
	if len(c.Arguments) == 0 {
		return json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(c.Arguments)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
