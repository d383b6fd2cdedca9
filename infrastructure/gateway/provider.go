package gateway

import "context"

// Provider is one upstream LLM the fallback chain can route to.
type Provider interface {
	// Complete sends the full transcript and returns the provider response.
	Complete(ctx context.Context, req CompletionRequest) (*Response, error)

	// Name returns the provider name for logging and breaker bookkeeping.
	Name() string
}

// CompletionRequest is the provider-agnostic request shape.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Tier        Tier
	Temperature float64
	MaxTokens   int
}

// ProviderConfig contains common provider configuration.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	ModelFlash string // Model ID used for TierFlash
	ModelPro   string // Model ID used for TierPro
	Timeout    int    // Seconds, default 120
}

// model resolves the model ID for a tier.
func (c ProviderConfig) model(tier Tier) string {
	if tier == TierPro && c.ModelPro != "" {
		return c.ModelPro
	}
	return c.ModelFlash
}
