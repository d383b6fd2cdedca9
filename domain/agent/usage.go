package agent

// TokenUsage accumulates token accounting across the LLM calls of a single
// loop execution. It is returned to the caller for billing and metrics and
// is not part of the persisted task state.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add folds another usage sample into the accumulator.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
}

// Total returns the combined token count.
func (u TokenUsage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}
