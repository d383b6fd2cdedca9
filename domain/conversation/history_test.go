package conversation

import (
	"fmt"
	"strings"
	"testing"
)

func buildHistory(n int) History {
	h := make(History, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		h = append(h, NewMessage(role, fmt.Sprintf("message %d about visas", i)))
	}
	return h
}

func TestTrim_UnderBoundsIsUntouched(t *testing.T) {
	h := buildHistory(4)
	trimmed := h.Trim(TrimOptions{MaxMessages: 12, MaxChars: 6000})
	if len(trimmed) != 4 {
		t.Errorf("expected untouched history, got %d messages", len(trimmed))
	}
}

func TestTrim_KeepsMostRecentAndOneSummary(t *testing.T) {
	h := buildHistory(20)
	trimmed := h.Trim(TrimOptions{MaxMessages: 6, MaxChars: 6000})

	if len(trimmed) != 7 {
		t.Fatalf("expected 6 kept + 1 summary, got %d", len(trimmed))
	}
	if trimmed[0].Role != RoleSystem {
		t.Error("expected leading summary note to be a system message")
	}
	summaries := 0
	for _, m := range trimmed {
		if m.Role == RoleSystem {
			summaries++
		}
	}
	if summaries != 1 {
		t.Errorf("expected exactly one summary note, got %d", summaries)
	}
	if trimmed[len(trimmed)-1].Content != h[len(h)-1].Content {
		t.Error("most recent message must survive trimming")
	}
}

func TestTrim_CharBudgetTightensFurther(t *testing.T) {
	h := History{
		NewMessage(RoleUser, strings.Repeat("long ", 400)),
		NewMessage(RoleAssistant, strings.Repeat("long ", 400)),
		NewMessage(RoleUser, "short tail"),
	}
	trimmed := h.Trim(TrimOptions{MaxMessages: 10, MaxChars: 100})

	if trimmed[len(trimmed)-1].Content != "short tail" {
		t.Error("tail must survive char-budget trimming")
	}
	if charCount(trimmed[1:]) > 100 {
		t.Errorf("kept tail exceeds char budget: %d", charCount(trimmed[1:]))
	}
}
