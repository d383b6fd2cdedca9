package application

import (
	"context"
	"strings"
	"time"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
	"github.com/balizero/zantara-agentic/infrastructure/parser"
	"github.com/balizero/zantara-agentic/infrastructure/statemachine"
)

// ExecuteReActLoopStream runs the reasoning loop in a goroutine and
// returns a channel of ordered events. The channel is always closed; the
// last delivered event is a single final_answer (possibly preceded by an
// error event when a stage failed and the run degraded to an apology).
// Unlike the blocking loop, no error ever propagates to the caller:
// failures surface on the channel.
func (e *Engine) ExecuteReActLoopStream(ctx context.Context, req *LoopRequest) (<-chan Event, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	events := make(chan Event, 8)
	go func() {
		defer close(events)
		e.runStream(ctx, req, events)
	}()
	return events, nil
}

// emit delivers one event, giving up when the consumer is gone or too
// slow. A false return aborts the run.
func (e *Engine) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(e.streamSendTimeout):
		logging.Warn().
			Add(logging.Str("event", string(ev.Type))).
			Msg("stream consumer too slow, aborting run")
		return false
	}
}

func (e *Engine) runStream(ctx context.Context, req *LoopRequest, events chan<- Event) {
	state := req.State

	machine, err := statemachine.NewReasoningMachine()
	if err != nil {
		e.emit(ctx, events, Event{Type: EventError, Err: err.Error()})
		e.emitFinal(ctx, req, events, agent.ApologyMessage(state.Query), agent.TokenUsage{})
		return
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(state))
	interp.Start()
	defer interp.Stop()

	var usage agent.TokenUsage
	evidenceEmitted := false

	candidate := strings.TrimSpace(state.FinalAnswer)
	state.FinalAnswer = ""

	prompt := req.InitialPrompt
	for candidate == "" && !state.Exhausted() {
		resp, err := req.Gateway.SendMessage(ctx, req.Chat, prompt, req.Tier)
		if err != nil {
			// Streaming consumers never see transport errors as Go errors:
			// degrade in-band and finish with an apology.
			_ = interp.Send(statemachine.EventFail)
			if !e.emit(ctx, events, Event{Type: EventError, Step: state.CurrentStep, Err: err.Error()}) {
				return
			}
			e.emitEvidenceIfMissing(ctx, events, state, &evidenceEmitted)
			e.emitFinal(ctx, req, events, agent.ApologyMessage(state.Query), usage)
			return
		}
		usage.Add(resp.Usage)

		call, hasCall := parser.Parse(resp)
		if !hasCall {
			candidate = parser.FinalText(resp.Text)
			if candidate == "" {
				state.CurrentStep++
				prompt = "Reply with an Action or a Final Answer."
				continue
			}
			// Responses carrying reasoning lines alongside the answer get
			// the reasoning surfaced as a thought event.
			if thought := parser.StripAnswerPrefix(resp.Text); thought != candidate {
				if !e.emit(ctx, events, Event{Type: EventThought, Step: state.CurrentStep, Text: strings.TrimSpace(resp.Text)}) {
					return
				}
			}
			break
		}

		if !e.emit(ctx, events, Event{
			Type:      EventToolCall,
			Step:      state.CurrentStep,
			Tool:      call.Name,
			Arguments: call.Arguments,
		}) {
			return
		}

		if err := interp.Send(statemachine.EventTool); err != nil {
			break
		}
		observation, sources, err := e.dispatch(ctx, state, call)
		if err != nil {
			_ = interp.Send(statemachine.EventFail)
			if !e.emit(ctx, events, Event{Type: EventError, Step: state.CurrentStep, Tool: call.Name, Err: err.Error()}) {
				return
			}
			e.emitEvidenceIfMissing(ctx, events, state, &evidenceEmitted)
			e.emitFinal(ctx, req, events, agent.ApologyMessage(state.Query), usage)
			return
		}
		_ = interp.Send(statemachine.EventObserve)

		if !e.emit(ctx, events, Event{
			Type: EventToolResult,
			Step: state.CurrentStep,
			Tool: call.Name,
			Text: observation,
		}) {
			return
		}

		state.AppendContext(observation)
		state.AddSources(sources)
		state.EvidenceScore = agent.Score(state.ContextGathered, state.Sources)
		state.CurrentStep++

		strength := agent.Classify(state.EvidenceScore, state.ContextGathered, state.Sources)
		evidenceEmitted = true
		if !e.emit(ctx, events, Event{
			Type:     EventEvidence,
			Step:     state.CurrentStep,
			Score:    state.EvidenceScore,
			Strength: string(strength),
			Sources:  sources,
		}) {
			return
		}

		prompt = ObservationPrompt(call.Name, observation, state)
		if !state.Exhausted() {
			_ = interp.Send(statemachine.EventThink)
		}
	}

	_ = interp.Send(statemachine.EventFinalize)
	answer := e.finalize(ctx, req, candidate, &usage)
	e.emitEvidenceIfMissing(ctx, events, state, &evidenceEmitted)
	e.emitFinal(ctx, req, events, answer, usage)

	if agent.IsAbstain(answer) {
		_ = interp.Send(statemachine.EventAbstain)
	} else {
		_ = interp.Send(statemachine.EventAnswer)
	}
}

// emitEvidenceIfMissing guarantees every stream carries at least one
// evidence event, even for runs that never reached a tool round.
func (e *Engine) emitEvidenceIfMissing(ctx context.Context, events chan<- Event, state *agent.State, emitted *bool) {
	if *emitted {
		return
	}
	*emitted = true
	score := agent.Score(state.ContextGathered, state.Sources)
	state.EvidenceScore = score
	e.emit(ctx, events, Event{
		Type:     EventEvidence,
		Step:     state.CurrentStep,
		Score:    score,
		Strength: string(agent.Classify(score, state.ContextGathered, state.Sources)),
	})
}

// emitFinal delivers the exactly-once terminal event.
func (e *Engine) emitFinal(ctx context.Context, req *LoopRequest, events chan<- Event, answer string, usage agent.TokenUsage) {
	state := req.State

	if req.PostProcess != nil && !agent.IsAbstain(answer) {
		processed, err := req.PostProcess(answer)
		if err != nil {
			logging.Warn().
				Add(logging.QueryID(state.ID)).
				Add(logging.ErrorField(err)).
				Msg("post-process failed, keeping raw answer")
		} else {
			answer = processed
		}
	}
	state.FinalAnswer = answer

	e.emit(ctx, events, Event{
		Type:    EventFinalAnswer,
		Step:    state.CurrentStep,
		Text:    answer,
		Score:   state.EvidenceScore,
		Sources: state.Sources,
		Usage:   &usage,
	})
}
