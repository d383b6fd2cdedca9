package agent

import "time"

// Source is a citation attached to retrieved context.
type Source struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Title    string            `json:"title,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// State is the per-query task state threaded through the reasoning loop.
// It is created by the orchestrator, mutated exclusively by the engine for
// the lifetime of one loop invocation, and discarded after the final answer
// is consumed. It is never shared across concurrent queries.
type State struct {
	ID              string    `json:"id"`
	Query           string    `json:"query"`
	MaxSteps        int       `json:"max_steps"`
	CurrentStep     int       `json:"current_step"`
	ContextGathered []string  `json:"context_gathered"`
	Sources         []Source  `json:"sources,omitempty"` // nil until the first citation arrives
	EvidenceScore   float64   `json:"evidence_score"`
	FinalAnswer     string    `json:"final_answer,omitempty"`
	ToolCalls       int       `json:"tool_calls"`
	StartTime       time.Time `json:"start_time"`
}

// NewState creates task state for one query.
func NewState(id, query string, maxSteps int) *State {
	return &State{
		ID:              id,
		Query:           query,
		MaxSteps:        maxSteps,
		ContextGathered: make([]string, 0),
		StartTime:       time.Now(),
	}
}

// AppendContext records a tool observation (or synthesized note) in call
// order. Entries are never reordered or removed.
func (s *State) AppendContext(observation string) {
	s.ContextGathered = append(s.ContextGathered, observation)
}

// AddSources appends citations from a tool result. Sources may start out
// nil; the first write initializes the slice.
func (s *State) AddSources(srcs []Source) {
	if len(srcs) == 0 {
		return
	}
	if s.Sources == nil {
		s.Sources = make([]Source, 0, len(srcs))
	}
	s.Sources = append(s.Sources, srcs...)
}

// Exhausted reports whether the step budget is spent.
func (s *State) Exhausted() bool {
	return s.CurrentStep >= s.MaxSteps
}

// Answered reports whether a final answer has been set.
func (s *State) Answered() bool {
	return s.FinalAnswer != ""
}

// Duration returns how long the query has been in flight.
func (s *State) Duration() time.Duration {
	return time.Since(s.StartTime)
}
