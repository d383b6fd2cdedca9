package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/balizero/zantara-agentic/infrastructure/logging"
)

// Fallback routes each call through an ordered provider chain. Every
// provider sits behind its own circuit breaker; a provider that fails moves
// the call to the next one, and an open breaker skips the provider without
// spending a request on it. Breaker state is process-wide, not per-query.
type Fallback struct {
	providers   []Provider
	breakers    []circuitbreaker.CircuitBreaker[*Response]
	temperature float64
	maxTokens   int
}

// FallbackConfig configures the fallback gateway.
type FallbackConfig struct {
	// Providers are tried in order.
	Providers []Provider

	// BreakerThreshold is the consecutive-failure count that opens a
	// provider's breaker.
	BreakerThreshold int

	// BreakerCooldown is how long an open breaker stays open.
	BreakerCooldown time.Duration

	// Temperature and MaxTokens are passed through to providers.
	Temperature float64
	MaxTokens   int
}

// DefaultFallbackConfig returns sensible defaults.
func DefaultFallbackConfig(providers ...Provider) FallbackConfig {
	return FallbackConfig{
		Providers:        providers,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
		Temperature:      0.3,
		MaxTokens:        2048,
	}
}

// NewFallback creates the fallback gateway.
func NewFallback(config FallbackConfig) (*Fallback, error) {
	if len(config.Providers) == 0 {
		return nil, ErrNoProviders
	}

	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	cooldown := config.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breakers := make([]circuitbreaker.CircuitBreaker[*Response], len(config.Providers))
	for i := range config.Providers {
		breakers[i] = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    cooldown,
			Timeout:     cooldown,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold > 0
			},
		})
	}

	return &Fallback{
		providers:   config.Providers,
		breakers:    breakers,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
	}, nil
}

// SendMessage implements Gateway. The user message is appended to the chat
// before the call and the assistant reply after it, so the transcript stays
// consistent even across provider fallback.
func (f *Fallback) SendMessage(ctx context.Context, chat *Chat, message string, tier Tier) (*Response, error) {
	chat.Append("user", message)

	req := CompletionRequest{
		System:      chat.System,
		Messages:    chat.Messages,
		Tier:        tier,
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
	}

	var lastErr error
	for i, provider := range f.providers {
		resp, err := f.breakers[i].Execute(ctx, func(ctx context.Context) (*Response, error) {
			return provider.Complete(ctx, req)
		})
		if err != nil {
			logging.Warn().
				Add(logging.ProviderName(provider.Name())).
				Add(logging.ChatID(chat.ID)).
				Add(logging.ErrorField(err)).
				Msg("provider failed, trying next")
			lastErr = err
			continue
		}

		chat.Append("assistant", resp.Text)
		return resp, nil
	}

	if lastErr == nil {
		lastErr = ErrNoProviders
	}
	if !IsTransient(lastErr) {
		// Breaker-open and transport errors surface as unavailability.
		lastErr = fmt.Errorf("%v: %w", lastErr, ErrUnavailable)
	}
	return nil, fmt.Errorf("all providers exhausted: %w", lastErr)
}
