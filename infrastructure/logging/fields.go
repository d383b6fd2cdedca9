package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for the reasoning service.

// QueryID adds the per-query ID.
func QueryID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("query_id", id)
	}
}

// UserID adds the user ID.
func UserID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("user_id", id)
	}
}

// ChatID adds the gateway conversation ID.
func ChatID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("chat_id", id)
	}
}

// Step adds the loop step counter.
func Step(step int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", step)
	}
}

// ToolName adds the dispatched tool name.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// Evidence adds the current evidence score.
func Evidence(score float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("evidence_score", strconv.FormatFloat(score, 'f', 3, 64))
	}
}

// Strength adds the evidence classification band.
func Strength(s string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("evidence", s)
	}
}

// ModelTier adds the requested model tier.
func ModelTier(tier string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tier", tier)
	}
}

// ModelName adds the model that actually served the call.
func ModelName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("model", name)
	}
}

// ProviderName adds the upstream provider name.
func ProviderName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", name)
	}
}

// Tokens adds total token usage.
func Tokens(total int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("tokens", total)
	}
}

// Duration adds an elapsed-time field.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("duration", d.String())
	}
}

// ErrorField adds an error.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Err(err)
	}
}

// Str adds an arbitrary string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
