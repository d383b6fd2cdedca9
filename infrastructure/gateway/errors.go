package gateway

import (
	"errors"
	"fmt"
)

// Transient provider failures. The loop propagates these mid-reasoning and
// absorbs them only at final-answer synthesis (and throughout streaming).
var (
	// ErrRateLimited indicates the provider rejected the call for quota.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrUnavailable indicates the provider is temporarily down.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrMalformedResponse indicates the provider returned an undecodable body.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrNoProviders indicates the gateway has an empty provider chain.
	ErrNoProviders = errors.New("no providers configured")
)

// IsTransient reports whether an error belongs to the transient taxonomy.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrMalformedResponse)
}

// statusError maps an HTTP status to the transient taxonomy.
func statusError(provider string, status int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	switch {
	case status == 429:
		return fmt.Errorf("%s (status %d): %s: %w", provider, status, body, ErrRateLimited)
	case status >= 500:
		return fmt.Errorf("%s (status %d): %s: %w", provider, status, body, ErrUnavailable)
	default:
		return fmt.Errorf("%s error (status %d): %s", provider, status, body)
	}
}
