package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/balizero/zantara-agentic/domain/agent"
)

// fakeProvider fails a fixed number of times, then succeeds.
type fakeProvider struct {
	name     string
	failures int
	err      error
	calls    int
	mu       sync.Mutex
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Complete(_ context.Context, _ CompletionRequest) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return nil, p.err
	}
	return &Response{
		Text:  "answer from " + p.name,
		Model: p.name,
		Usage: agent.TokenUsage{PromptTokens: 5, CompletionTokens: 5},
	}, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestFallback_RequiresProviders(t *testing.T) {
	if _, err := NewFallback(FallbackConfig{}); !errors.Is(err, ErrNoProviders) {
		t.Errorf("expected ErrNoProviders, got %v", err)
	}
}

func TestFallback_AdvancesOnTransientFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", failures: 100, err: ErrRateLimited}
	secondary := &fakeProvider{name: "secondary"}

	gw, err := NewFallback(DefaultFallbackConfig(primary, secondary))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chat := NewChat("c1", "system")
	resp, err := gw.SendMessage(context.Background(), chat, "hello", TierFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "answer from secondary" {
		t.Errorf("expected secondary to serve, got %q", resp.Text)
	}
	if primary.callCount() != 1 {
		t.Errorf("primary should have been tried once, got %d", primary.callCount())
	}
}

func TestFallback_ExhaustedSurfacesTransientError(t *testing.T) {
	a := &fakeProvider{name: "a", failures: 100, err: ErrRateLimited}
	b := &fakeProvider{name: "b", failures: 100, err: ErrUnavailable}

	gw, err := NewFallback(DefaultFallbackConfig(a, b))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = gw.SendMessage(context.Background(), NewChat("c1", ""), "hello", TierFlash)
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	if !IsTransient(err) {
		t.Errorf("exhaustion must surface as transient, got %v", err)
	}
}

func TestFallback_BreakerOpensAndSkipsProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", failures: 1000, err: ErrUnavailable}
	secondary := &fakeProvider{name: "secondary"}

	config := DefaultFallbackConfig(primary, secondary)
	config.BreakerThreshold = 3
	config.BreakerCooldown = time.Minute

	gw, err := NewFallback(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := gw.SendMessage(context.Background(), NewChat("c1", ""), "q", TierFlash); err != nil {
			t.Fatalf("secondary should always serve: %v", err)
		}
	}

	// After the threshold, the open breaker stops calls reaching primary.
	if primary.callCount() > 4 {
		t.Errorf("breaker did not open, primary saw %d calls", primary.callCount())
	}
}

func TestFallback_TranscriptStaysConsistent(t *testing.T) {
	provider := &fakeProvider{name: "only"}
	gw, _ := NewFallback(DefaultFallbackConfig(provider))

	chat := NewChat("c1", "system prompt")
	if _, err := gw.SendMessage(context.Background(), chat, "first", TierFlash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chat.Messages) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(chat.Messages))
	}
	if chat.Messages[0].Role != "user" || chat.Messages[1].Role != "assistant" {
		t.Errorf("unexpected transcript: %+v", chat.Messages)
	}
}

func TestIsTransient(t *testing.T) {
	for _, err := range []error{ErrRateLimited, ErrUnavailable, ErrMalformedResponse} {
		if !IsTransient(err) {
			t.Errorf("%v must be transient", err)
		}
	}
	if IsTransient(errors.New("auth failure")) {
		t.Error("arbitrary errors are not transient")
	}
}
