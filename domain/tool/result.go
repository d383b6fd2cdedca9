package tool

import (
	"encoding/json"
	"time"
)

// Result contains the output of a tool execution. Output may itself be a
// JSON payload carrying a content field and optional sources; the engine
// extracts citations from it defensively.
type Result struct {
	// Output is the primary result data.
	Output json.RawMessage `json:"output"`

	// Duration is how long the execution took.
	Duration time.Duration `json:"duration"`
}

// NewResult creates a result with the given output.
func NewResult(output json.RawMessage) Result {
	return Result{Output: output}
}

// NewTextResult creates a result from a plain text observation.
func NewTextResult(text string) Result {
	raw, _ := json.Marshal(map[string]string{"content": text})
	return Result{Output: raw}
}

// OutputString returns the output as a string for convenience.
func (r Result) OutputString() string {
	return string(r.Output)
}
