package agent

import (
	"strings"
	"testing"
)

func TestNewState_Defaults(t *testing.T) {
	s := NewState("q-1", "What is KITAS?", 5)

	if s.CurrentStep != 0 {
		t.Errorf("expected step 0, got %d", s.CurrentStep)
	}
	if s.ContextGathered == nil {
		t.Error("expected context slice to be initialized")
	}
	if s.Sources != nil {
		t.Error("expected sources to start nil")
	}
	if s.Answered() {
		t.Error("expected no final answer yet")
	}
}

func TestState_AppendContext_PreservesOrder(t *testing.T) {
	s := NewState("q-1", "q", 5)
	s.AppendContext("first")
	s.AppendContext("second")
	s.AppendContext("third")

	if len(s.ContextGathered) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(s.ContextGathered))
	}
	if s.ContextGathered[0] != "first" || s.ContextGathered[2] != "third" {
		t.Errorf("context order not preserved: %v", s.ContextGathered)
	}
}

func TestState_AddSources_InitializesNilSlice(t *testing.T) {
	s := NewState("q-1", "q", 5)
	if s.Sources != nil {
		t.Fatal("precondition: sources must start nil")
	}

	s.AddSources([]Source{{ID: "doc1", Score: 0.9}})

	if s.Sources == nil {
		t.Fatal("expected sources to be initialized after first citation")
	}
	if len(s.Sources) != 1 || s.Sources[0].ID != "doc1" {
		t.Errorf("unexpected sources: %v", s.Sources)
	}
}

func TestState_AddSources_EmptyIsNoop(t *testing.T) {
	s := NewState("q-1", "q", 5)
	s.AddSources(nil)
	s.AddSources([]Source{})

	if s.Sources != nil {
		t.Error("empty citation batches must not initialize sources")
	}
}

func TestState_Exhausted(t *testing.T) {
	s := NewState("q-1", "q", 2)
	if s.Exhausted() {
		t.Error("fresh state must not be exhausted")
	}
	s.CurrentStep = 2
	if !s.Exhausted() {
		t.Error("expected exhaustion at max steps")
	}
}

func TestToolCall_ArgumentsJSON(t *testing.T) {
	empty := ToolCall{Name: "vector_search"}
	if string(empty.ArgumentsJSON()) != "{}" {
		t.Errorf("nil arguments should encode as empty object, got %s", empty.ArgumentsJSON())
	}

	call := ToolCall{Name: "vector_search", Arguments: map[string]any{"query": "kitas"}}
	if !strings.Contains(string(call.ArgumentsJSON()), `"query":"kitas"`) {
		t.Errorf("unexpected encoding: %s", call.ArgumentsJSON())
	}
}

func TestTokenUsage_Add(t *testing.T) {
	var u TokenUsage
	u.Add(TokenUsage{PromptTokens: 10, CompletionTokens: 5})
	u.Add(TokenUsage{PromptTokens: 3, CompletionTokens: 2})

	if u.PromptTokens != 13 || u.CompletionTokens != 7 {
		t.Errorf("unexpected accumulation: %+v", u)
	}
	if u.Total() != 20 {
		t.Errorf("expected total 20, got %d", u.Total())
	}
}
