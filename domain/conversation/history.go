package conversation

import (
	"fmt"
	"strings"
)

// History is an ordered sequence of conversation turns, oldest first.
type History []Message

// TrimOptions bound how much history is carried into a prompt.
type TrimOptions struct {
	// MaxMessages is the number of most recent messages to keep verbatim.
	MaxMessages int

	// MaxChars bounds the total character count of the kept messages.
	MaxChars int
}

// DefaultTrimOptions returns the trim bounds used by the orchestrator.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{MaxMessages: 12, MaxChars: 6000}
}

// Trim keeps the most recent messages within the given bounds. Overflow is
// folded into a single synthetic system note prepended to the result, so
// older turns still inform the model without blowing the context budget.
func (h History) Trim(opts TrimOptions) History {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultTrimOptions().MaxMessages
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultTrimOptions().MaxChars
	}

	keepFrom := 0
	if len(h) > opts.MaxMessages {
		keepFrom = len(h) - opts.MaxMessages
	}

	// Tighten further if the kept tail is still over the character budget.
	for keepFrom < len(h)-1 && charCount(h[keepFrom:]) > opts.MaxChars {
		keepFrom++
	}

	if keepFrom == 0 {
		return h
	}

	trimmed := make(History, 0, len(h)-keepFrom+1)
	trimmed = append(trimmed, summarize(h[:keepFrom]))
	trimmed = append(trimmed, h[keepFrom:]...)
	return trimmed
}

// summarize folds dropped turns into one system note.
func summarize(dropped History) Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Earlier in this conversation (%d messages summarized): ", len(dropped)))
	for i, m := range dropped {
		if m.Role != RoleUser {
			continue
		}
		snippet := m.Content
		if len(snippet) > 80 {
			snippet = snippet[:80] + "..."
		}
		sb.WriteString(snippet)
		if i < len(dropped)-1 {
			sb.WriteString("; ")
		}
	}
	return NewMessage(RoleSystem, strings.TrimSuffix(sb.String(), "; "))
}

func charCount(h History) int {
	n := 0
	for _, m := range h {
		n += len(m.Content)
	}
	return n
}
