package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
)

// collect drains a stream with a test deadline.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("stream did not close; got %d events so far", len(out))
		}
	}
}

func countType(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestExecuteReActLoopStream_HappyPath(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "kitas"}`),
		gateway.TextStep("Final Answer: A KITAS is a temporary stay permit."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	events, err := engine.ExecuteReActLoopStream(context.Background(), newLoopRequest(gw, "What is a KITAS?", 5))
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}
	all := collect(t, events)

	if len(all) == 0 {
		t.Fatal("empty stream")
	}
	last := all[len(all)-1]
	if last.Type != EventFinalAnswer {
		t.Fatalf("last event must be final_answer, got %s", last.Type)
	}
	if last.Text != "A KITAS is a temporary stay permit." {
		t.Errorf("unexpected answer: %q", last.Text)
	}
	if countType(all, EventFinalAnswer) != 1 {
		t.Errorf("final_answer must appear exactly once")
	}
	if countType(all, EventToolCall) != 1 || countType(all, EventToolResult) != 1 {
		t.Errorf("expected one tool_call and one tool_result, got %+v", all)
	}
	if countType(all, EventEvidence) < 1 {
		t.Error("expected at least one evidence event")
	}

	// tool_call precedes tool_result precedes evidence.
	order := map[EventType]int{}
	for i, ev := range all {
		if _, seen := order[ev.Type]; !seen {
			order[ev.Type] = i
		}
	}
	if !(order[EventToolCall] < order[EventToolResult] && order[EventToolResult] < order[EventEvidence]) {
		t.Errorf("events out of order: %+v", all)
	}
}

func TestExecuteReActLoopStream_EvidenceEmittedWithoutToolRounds(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.TextStep("Final Answer: Unverifiable claim."),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	events, err := engine.ExecuteReActLoopStream(context.Background(), newLoopRequest(gw, "Anything at all?", 5))
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}
	all := collect(t, events)

	if countType(all, EventEvidence) < 1 {
		t.Error("every stream must carry at least one evidence event")
	}
	last := all[len(all)-1]
	if last.Type != EventFinalAnswer || !agent.IsAbstain(last.Text) {
		t.Errorf("expected terminal abstain, got %+v", last)
	}
}

func TestExecuteReActLoopStream_LLMErrorDegradesInBand(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.ErrStep(gateway.ErrUnavailable),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	events, err := engine.ExecuteReActLoopStream(context.Background(), newLoopRequest(gw, "A question", 5))
	if err != nil {
		t.Fatalf("transport failure must surface in-band, not here: %v", err)
	}
	all := collect(t, events)

	if countType(all, EventError) != 1 {
		t.Errorf("expected one error event, got %+v", all)
	}
	last := all[len(all)-1]
	if last.Type != EventFinalAnswer {
		t.Fatalf("stream must still end with final_answer, got %s", last.Type)
	}
	if last.Text != agent.ApologyMessage("A question") {
		t.Errorf("expected apology answer, got %q", last.Text)
	}
}

func TestExecuteReActLoopStream_ToolFailureEndsWithApology(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("graph_search", `{}`),
	)
	engine := NewEngine(registryWith(t, failingTool(t, "graph_search", errors.New("backend down"))))

	events, err := engine.ExecuteReActLoopStream(context.Background(), newLoopRequest(gw, "A question", 5))
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}
	all := collect(t, events)

	if countType(all, EventToolCall) != 1 {
		t.Error("the attempted tool call should still be announced")
	}
	if countType(all, EventError) != 1 {
		t.Errorf("expected one error event, got %+v", all)
	}
	if countType(all, EventEvidence) < 1 {
		t.Error("failed runs still carry an evidence event")
	}
	last := all[len(all)-1]
	if last.Type != EventFinalAnswer {
		t.Fatalf("expected terminal final_answer, got %s", last.Type)
	}
}

func TestExecuteReActLoopStream_PostProcessErrorKeepsRawAnswer(t *testing.T) {
	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Final Answer: raw answer"),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	req := newLoopRequest(gw, "A question", 5)
	req.PostProcess = func(string) (string, error) {
		return "", errors.New("formatting service down")
	}
	events, err := engine.ExecuteReActLoopStream(context.Background(), req)
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}
	all := collect(t, events)

	last := all[len(all)-1]
	if last.Type != EventFinalAnswer || last.Text != "raw answer" {
		t.Errorf("expected raw answer kept, got %+v", last)
	}
}

func TestExecuteReActLoopStream_SlowConsumerAborts(t *testing.T) {
	// Five tool rounds produce more events than the channel buffer holds.
	// With nobody reading, the producer must give up within its send
	// timeout and close the channel instead of leaking the goroutine.
	steps := make([]gateway.ScriptStep, 0, 6)
	for i := 0; i < 5; i++ {
		steps = append(steps, gateway.NativeCallStep("vector_search", `{"query": "q"}`))
	}
	steps = append(steps, gateway.TextStep("Final Answer: never delivered"))

	gw := gateway.NewScriptedGateway(steps...)
	engine := NewEngine(
		registryWith(t, searchTool(t, richContent, 0.9)),
		WithStreamSendTimeout(50*time.Millisecond),
	)

	events, err := engine.ExecuteReActLoopStream(context.Background(), newLoopRequest(gw, "A question", 5))
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}

	time.Sleep(500 * time.Millisecond) // let the abort fire before draining

	all := collect(t, events)
	if countType(all, EventFinalAnswer) != 0 {
		t.Errorf("aborted run must not deliver a final answer, got %+v", all)
	}
}

func TestExecuteReActLoopStream_CancelledContextCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := gateway.NewScriptedGateway(
		gateway.NativeCallStep("vector_search", `{"query": "q"}`),
		gateway.TextStep("Final Answer: x"),
	)
	engine := NewEngine(registryWith(t, searchTool(t, richContent, 0.9)))

	events, err := engine.ExecuteReActLoopStream(ctx, newLoopRequest(gw, "A question", 5))
	if err != nil {
		t.Fatalf("stream setup failed: %v", err)
	}
	collect(t, events) // must terminate
}
