// Package application orchestrates the reasoning loop: prompting the LLM
// gateway, dispatching tools, accumulating evidence, and finalizing an
// answer under the evidence policy.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/domain/tool"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
	"github.com/balizero/zantara-agentic/infrastructure/parser"
	"github.com/balizero/zantara-agentic/infrastructure/statemachine"
)

// DefaultMaxSteps bounds a reasoning run when the caller does not.
const DefaultMaxSteps = 5

// defaultStreamSendTimeout bounds how long the streaming loop waits on a
// slow consumer before aborting the run.
const defaultStreamSendTimeout = 5 * time.Second

// Engine runs the reasoning loop against a tool registry. It holds no
// per-query state and is safe for concurrent use.
type Engine struct {
	registry          tool.Registry
	streamSendTimeout time.Duration
	tracer            trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithStreamSendTimeout overrides the slow-consumer cutoff for streaming.
func WithStreamSendTimeout(d time.Duration) Option {
	return func(e *Engine) { e.streamSendTimeout = d }
}

// NewEngine creates a reasoning engine over the given tool registry.
func NewEngine(registry tool.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:          registry,
		streamSendTimeout: defaultStreamSendTimeout,
		tracer:            otel.Tracer("zantara/application"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoopRequest carries everything one reasoning run needs.
type LoopRequest struct {
	State          *agent.State
	Gateway        gateway.Gateway
	Chat           *gateway.Chat
	InitialPrompt  string
	Tier           gateway.Tier
	UserID         string
	// PostProcess, when set, rewrites a successful final answer. Its error
	// is logged and swallowed; the raw answer is kept.
	PostProcess func(answer string) (string, error)
}

// LoopResult is the outcome of a completed reasoning run.
type LoopResult struct {
	State *agent.State
	Usage agent.TokenUsage
	Raw   *gateway.Response
}

// ExecuteReActLoop runs the blocking reasoning loop to completion. LLM
// transport errors during reasoning rounds and tool execution errors are
// fatal and propagate; a synthesis-stage LLM failure degrades to a fixed
// apology instead.
func (e *Engine) ExecuteReActLoop(ctx context.Context, req *LoopRequest) (*LoopResult, error) {
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}
	state := req.State

	ctx, span := e.tracer.Start(ctx, "reasoning.loop",
		trace.WithAttributes(
			attribute.String("query.id", state.ID),
			attribute.Int("max_steps", state.MaxSteps),
		))
	defer span.End()

	machine, err := statemachine.NewReasoningMachine()
	if err != nil {
		return nil, fmt.Errorf("building reasoning machine: %w", err)
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(state))
	interp.Start()
	defer interp.Stop()

	var usage agent.TokenUsage
	var raw *gateway.Response

	// A pre-seeded answer short-circuits the reasoning rounds and goes
	// straight to the evidence gate.
	candidate := strings.TrimSpace(state.FinalAnswer)
	state.FinalAnswer = ""

	prompt := req.InitialPrompt
	for candidate == "" && !state.Exhausted() {
		resp, err := req.Gateway.SendMessage(ctx, req.Chat, prompt, req.Tier)
		if err != nil {
			_ = interp.Send(statemachine.EventFail)
			logging.Error().
				Add(logging.QueryID(state.ID)).
				Add(logging.Step(state.CurrentStep)).
				Add(logging.ErrorField(err)).
				Msg("reasoning round failed")
			return nil, fmt.Errorf("reasoning round %d: %w", state.CurrentStep, err)
		}
		usage.Add(resp.Usage)
		raw = resp

		call, hasCall := parser.Parse(resp)
		if !hasCall {
			candidate = parser.FinalText(resp.Text)
			if candidate == "" {
				// Pure reasoning scaffolding: burn the step and re-prompt.
				state.CurrentStep++
				prompt = "Reply with an Action or a Final Answer."
				continue
			}
			break
		}

		if err := interp.Send(statemachine.EventTool); err != nil {
			break // budget guard tripped between check and send
		}
		observation, sources, err := e.dispatch(ctx, state, call)
		if err != nil {
			_ = interp.Send(statemachine.EventFail)
			return nil, err
		}
		_ = interp.Send(statemachine.EventObserve)

		state.AppendContext(observation)
		state.AddSources(sources)
		state.EvidenceScore = agent.Score(state.ContextGathered, state.Sources)
		state.CurrentStep++

		logging.Info().
			Add(logging.QueryID(state.ID)).
			Add(logging.Step(state.CurrentStep)).
			Add(logging.ToolName(call.Name)).
			Add(logging.Evidence(state.EvidenceScore)).
			Msg("tool round complete")

		prompt = ObservationPrompt(call.Name, observation, state)
		if !state.Exhausted() {
			_ = interp.Send(statemachine.EventThink)
		}
	}

	_ = interp.Send(statemachine.EventFinalize)
	answer := e.finalize(ctx, req, candidate, &usage)

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

	if agent.IsAbstain(answer) {
		_ = interp.Send(statemachine.EventAbstain)
	} else {
		_ = interp.Send(statemachine.EventAnswer)
	}

	span.SetAttributes(
		attribute.Float64("evidence.score", state.EvidenceScore),
		attribute.Int("steps", state.CurrentStep),
		attribute.Int("tokens", usage.Total()),
	)
	logging.Info().
		Add(logging.QueryID(state.ID)).
		Add(logging.Step(state.CurrentStep)).
		Add(logging.Evidence(state.EvidenceScore)).
		Add(logging.Tokens(usage.Total())).
		Add(logging.Duration(state.Duration())).
		Msg("reasoning loop done")

	return &LoopResult{State: state, Usage: usage, Raw: raw}, nil
}

// dispatch executes one tool call. An unknown tool name degrades to a
// synthetic observation so the model can route around it; an execution
// error from a real tool is fatal to the query.
func (e *Engine) dispatch(ctx context.Context, state *agent.State, call agent.ToolCall) (string, []agent.Source, error) {
	state.ToolCalls++

	t, ok := e.registry.Get(call.Name)
	if !ok {
		logging.Warn().
			Add(logging.QueryID(state.ID)).
			Add(logging.ToolName(call.Name)).
			Msg("unknown tool requested")
		return fmt.Sprintf("tool %q is not available; available tools: %s",
			call.Name, strings.Join(e.registry.Names(), ", ")), nil, nil
	}

	ctx, span := e.tracer.Start(ctx, "tool.execute",
		trace.WithAttributes(attribute.String("tool.name", call.Name)))
	defer span.End()

	result, err := t.Execute(ctx, call.ArgumentsJSON())
	if err != nil {
		return "", nil, fmt.Errorf("tool %s: %w", call.Name, err)
	}

	sources, _ := agent.ExtractSources(result.Output)
	return agent.ExtractContent(result.Output), sources, nil
}

// finalize applies the evidence policy to the candidate answer. The
// returned string is always non-empty.
func (e *Engine) finalize(ctx context.Context, req *LoopRequest, candidate string, usage *agent.TokenUsage) string {
	state := req.State

	if agent.IsStub(candidate) {
		candidate = ""
	}

	state.EvidenceScore = agent.Score(state.ContextGathered, state.Sources)
	strength := agent.Classify(state.EvidenceScore, state.ContextGathered, state.Sources)

	// Budget exhausted without an answer but with usable evidence: one
	// synthesis call on the strong tier. Its failure must not kill the
	// query this late.
	if candidate == "" && strength != agent.EvidenceNone {
		resp, err := req.Gateway.SendMessage(ctx, req.Chat, SynthesisPrompt(state), gateway.TierPro)
		if err != nil {
			logging.Error().
				Add(logging.QueryID(state.ID)).
				Add(logging.ErrorField(err)).
				Msg("synthesis call failed")
			return agent.ApologyMessage(state.Query)
		}
		usage.Add(resp.Usage)
		candidate = parser.FinalText(resp.Text)
	}

	logging.Info().
		Add(logging.QueryID(state.ID)).
		Add(logging.Evidence(state.EvidenceScore)).
		Add(logging.Strength(string(strength))).
		Msg("evidence gate")

	switch strength {
	case agent.EvidenceNone:
		return agent.AbstainMessage(state.Query)
	case agent.EvidenceWeak:
		if candidate == "" {
			return agent.AbstainMessage(state.Query)
		}
		return agent.HedgePrefix(state.Query) + candidate
	default:
		if candidate == "" {
			return agent.ApologyMessage(state.Query)
		}
		return candidate
	}
}

func (e *Engine) validateRequest(req *LoopRequest) error {
	if req == nil || req.State == nil {
		return errors.New("nil loop request")
	}
	if strings.TrimSpace(req.State.Query) == "" {
		return agent.ErrEmptyQuery
	}
	if req.Gateway == nil {
		return errors.New("loop request needs a gateway")
	}
	if req.Chat == nil {
		req.Chat = gateway.NewChat(req.State.ID, systemPrompt)
	}
	if req.InitialPrompt == "" {
		req.InitialPrompt = InitialPrompt(req.State.Query, e.registry.List())
	}
	if req.Tier == "" {
		req.Tier = gateway.TierFlash
	}
	return nil
}
