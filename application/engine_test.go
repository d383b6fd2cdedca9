package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/domain/tool"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
	"github.com/balizero/zantara-agentic/infrastructure/storage/memory"
)

// searchTool returns a retrieval tool producing the given content and
// source confidence.
func searchTool(t *testing.T, content string, score float64) tool.Tool {
	t.Helper()
	return tool.NewBuilder("vector_search").
		WithDescription("semantic search over the knowledge base").
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			payload := fmt.Sprintf(`{"content": %q, "sources": [{"id": "doc-1", "score": %g, "title": "KB entry"}]}`, content, score)
			return tool.NewResult(json.RawMessage(payload)), nil
		}).
		MustBuild()
}

func failingTool(t *testing.T, name string, err error) tool.Tool {
	t.Helper()
	return tool.NewBuilder(name).
		WithDescription("always fails").
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.Result{}, err
		}).
		MustBuild()
}

func registryWith(t *testing.T, tools ...tool.Tool) tool.Registry {
	t.Helper()
	reg := memory.NewToolRegistry()
	for _, tl := range tools {
		if err := reg.Register(tl); err != nil {
			t.Fatalf("register %s: %v", tl.Name(), err)
		}
	}
	return reg
}

func newLoopRequest(gw gateway.Gateway, query string, maxSteps int) *LoopRequest {
	return &LoopRequest{
		State:   agent.NewState("q-test", query, maxSteps),
		Gateway: gw,
	}
}

// Ample retrieved text so the evidence score clears the strong band.
var richContent = strings.Repeat("KITAS holders must keep their sponsor informed of address changes. ", 16)

func TestExecuteReActLoop_ToolRoundThenAnswer(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "kitas renewal"}`),
		gateway.TextStep("Final Answer: A KITAS is renewed through the sponsor before expiry."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "How do I renew a KITAS?", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}

	state := result.State
	if state.FinalAnswer != "A KITAS is renewed through the sponsor before expiry." {
		t.Errorf("unexpected answer: %q", state.FinalAnswer)
	}
	if len(state.ContextGathered) != 1 {
		t.Errorf("expected 1 context entry, got %d", len(state.ContextGathered))
	}
	if len(state.Sources) != 1 || state.Sources[0].ID != "doc-1" {
		t.Errorf("expected doc-1 citation, got %+v", state.Sources)
	}
	if state.ToolCalls != 1 {
		t.Errorf("expected 1 tool call, got %d", state.ToolCalls)
	}
	if state.EvidenceScore <= 0 {
		t.Errorf("expected positive evidence score, got %f", state.EvidenceScore)
	}
	if result.Usage.Total() == 0 {
		t.Error("expected token usage to accumulate")
	}
}

func TestExecuteReActLoop_NoEvidenceAbstains(t *testing.T) {
	// The model answers confidently without ever calling a tool. With no
	// gathered context the policy must abstain regardless of the text.
	gw := gateway.NewScriptedGateway(
		gateway.TextStep("Final Answer: The fee is definitely 500 USD."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "What is the fee for a C312 visa?", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if !agent.IsAbstain(result.State.FinalAnswer) {
		t.Errorf("expected abstain, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_WeakEvidenceHedges(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "obscure rule"}`),
		gateway.TextStep("Final Answer: The rule probably applies after 60 days."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.35)))

	req := newLoopRequest(gw, "When does the obscure rule apply?", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	answer := result.State.FinalAnswer
	if !strings.HasPrefix(answer, "Note: I found only limited supporting information") {
		t.Errorf("expected hedge prefix, got %q", answer)
	}
	if !strings.Contains(answer, "applies after 60 days") {
		t.Errorf("hedged answer must keep the model text, got %q", answer)
	}
}

func TestExecuteReActLoop_TransientErrorMidLoopPropagates(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.ErrStep(gateway.ErrRateLimited),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "What is a KITAS?", 5)
	_, err := engine.ExecuteReActLoop(context.Background(), req)
	if err == nil {
		t.Fatal("expected mid-loop LLM failure to propagate")
	}
	if !gateway.IsTransient(err) {
		t.Errorf("expected a transient error, got %v", err)
	}
}

func TestExecuteReActLoop_SynthesisFailureBecomesApology(t *testing.T) {
	// Two tool rounds exhaust the budget, then the synthesis call fails.
	// The failure at the final stage must degrade, not propagate.
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "a"}`),
		gateway.NativeCallStep("vector_search", `{"query": "b"}`),
		gateway.ErrStep(gateway.ErrUnavailable),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "Summarize the KITAS process", 2)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("synthesis failure must not propagate: %v", err)
	}
	if !strings.Contains(result.State.FinalAnswer, "apologize") {
		t.Errorf("expected apology, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_ToolFailureIsFatal(t *testing.T) {
	toolErr := errors.New("index unreachable")
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("graph_search", `{}`),
	)
	engine := NewEngine(registryWith(t, failingTool(t, "graph_search", toolErr)))

	req := newLoopRequest(gw, "Who sponsors a KITAS?", 5)
	_, err := engine.ExecuteReActLoop(context.Background(), req)
	if !errors.Is(err, toolErr) {
		t.Fatalf("expected tool error to propagate, got %v", err)
	}
}

func TestExecuteReActLoop_UnknownToolDegradesToObservation(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("time_machine", `{}`),
		gateway.NativeCallStep("vector_search", `{"query": "retry"}`),
		gateway.TextStep("Final Answer: Found it after the retry."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "What about the unknown tool?", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("unknown tool must not be fatal: %v", err)
	}
	if len(result.State.ContextGathered) != 2 {
		t.Fatalf("expected 2 context entries, got %d", len(result.State.ContextGathered))
	}
	if !strings.Contains(result.State.ContextGathered[0], "not available") {
		t.Errorf("expected synthetic observation, got %q", result.State.ContextGathered[0])
	}
	if result.State.FinalAnswer != "Found it after the retry." {
		t.Errorf("unexpected answer: %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_ThoughtOnlyResponsesExhaustBudget(t *testing.T) {
	// The model never acts and never answers; the loop must still
	// terminate within the step budget and abstain for lack of evidence.
	gw := gateway.NewScriptedGateway(
		gateway.TextStep("Thought: I should think about this."),
		gateway.TextStep("Thought: Still thinking."),
		gateway.TextStep("Thought: Hmm."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "An unanswerable question", 3)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if gw.Calls() != 3 {
		t.Errorf("expected exactly 3 reasoning calls, got %d", gw.Calls())
	}
	if result.State.CurrentStep != result.State.MaxSteps {
		t.Errorf("expected the budget fully spent, got step %d of %d",
			result.State.CurrentStep, result.State.MaxSteps)
	}
	if !agent.IsAbstain(result.State.FinalAnswer) {
		t.Errorf("expected abstain after exhaustion, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_PreSeededAnswerWithoutEvidenceAbstains(t *testing.T) {
	gw := gateway.NewScriptedGateway()
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "A question", 5)
	req.State.FinalAnswer = "Some answer"

	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if result.State.FinalAnswer == "Some answer" {
		t.Error("unevidenced preset answer must not survive")
	}
	if !agent.IsAbstain(result.State.FinalAnswer) {
		t.Errorf("expected abstain, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_PreSeededStubIsReplaced(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.TextStep("Final Answer: A real synthesized answer."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "A question", 5)
	req.State.AppendContext(richContent)
	req.State.AddSources([]agent.Source{{ID: "doc-1", Score: 0.9}})
	req.State.FinalAnswer = "observation: none"

	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if result.State.FinalAnswer != "A real synthesized answer." {
		t.Errorf("stub must be replaced by synthesis, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_MalformedSourcesDoNotBreakTheLoop(t *testing.T) {
	brokenTool := tool.NewBuilder("vector_search").
		WithDescription("returns a corrupt sources field").
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.NewResult(json.RawMessage(`{"content": "some context", "sources": "not-an-array"}`)), nil
		}).
		MustBuild()
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Final Answer: answer anyway"),
	)
	engine := NewEngine(registryWith(t, brokenTool))

	req := newLoopRequest(gw, "A question", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("corrupt citations must not be fatal: %v", err)
	}
	if result.State.Sources != nil {
		t.Errorf("corrupt citations must add nothing, got %+v", result.State.Sources)
	}
	if len(result.State.ContextGathered) != 1 {
		t.Errorf("content must still be gathered, got %d entries", len(result.State.ContextGathered))
	}
}

func TestExecuteReActLoop_PreSeededAnswerSkipsReasoning(t *testing.T) {
	gw := gateway.NewScriptedGateway() // any call would fail
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "Anything", 5)
	req.State.AppendContext(richContent)
	req.State.AddSources([]agent.Source{{ID: "doc-9", Score: 0.9}})
	req.State.FinalAnswer = "Cached answer."

	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if gw.Calls() != 0 {
		t.Errorf("pre-seeded answer must not hit the gateway, got %d calls", gw.Calls())
	}
	if result.State.FinalAnswer != "Cached answer." {
		t.Errorf("unexpected answer: %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_StubAnswerIsDiscarded(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Observation: none"),
		gateway.TextStep("Final Answer: The synthesized answer."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	// Budget 2: round one is the tool, round two produces the stub. The
	// stub is discarded and the third call is the synthesis stage.
	req := newLoopRequest(gw, "What does the document say?", 2)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if result.State.FinalAnswer != "The synthesized answer." {
		t.Errorf("expected synthesis to replace the stub, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_EmptyQueryRejected(t *testing.T) {
	engine := NewEngine(registryWith(t))
	req := newLoopRequest(gateway.NewScriptedGateway(), "   ", 5)
	if _, err := engine.ExecuteReActLoop(context.Background(), req); !errors.Is(err, agent.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestExecuteReActLoop_PostProcessRewritesAnswer(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Final Answer: plain answer"),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "A question", 5)
	req.PostProcess = func(answer string) (string, error) {
		return strings.ToUpper(answer), nil
	}
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if result.State.FinalAnswer != "PLAIN ANSWER" {
		t.Errorf("post-process not applied: %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_PostProcessErrorKeepsRawAnswer(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Final Answer: plain answer"),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "A question", 5)
	req.PostProcess = func(string) (string, error) {
		return "", errors.New("enrichment backend down")
	}
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("post-process failure must not fail the loop: %v", err)
	}
	if result.State.FinalAnswer != "plain answer" {
		t.Errorf("expected raw answer kept, got %q", result.State.FinalAnswer)
	}
}

func TestExecuteReActLoop_IndonesianQueryAbstainsInIndonesian(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.TextStep("Final Answer: Jawaban tanpa bukti."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "Berapa biaya yang harus saya bayar untuk visa?", 5)
	result, err := engine.ExecuteReActLoop(context.Background(), req)
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	if !strings.Contains(result.State.FinalAnswer, "tidak menemukan informasi") {
		t.Errorf("expected Indonesian abstain, got %q", result.State.FinalAnswer)
	}
}
