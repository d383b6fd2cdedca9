// Package statemachine provides the statekit statechart for the reasoning
// loop's phases. The chart enforces the loop's structural invariants: a
// tool can only run out of a think phase, observations only follow a
// dispatch, and finalization is reached exactly once.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/balizero/zantara-agentic/domain/agent"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
)

// Context carries the task state through the machine.
type Context struct {
	State *agent.State
}

// NewContext creates a machine context for one loop invocation.
func NewContext(state *agent.State) *Context {
	return &Context{State: state}
}

// Phase IDs as StateID type for statekit.
const (
	phaseThink     statekit.StateID = statekit.StateID(agent.PhaseThink)
	phaseAct       statekit.StateID = statekit.StateID(agent.PhaseAct)
	phaseObserve   statekit.StateID = statekit.StateID(agent.PhaseObserve)
	phaseFinalize  statekit.StateID = statekit.StateID(agent.PhaseFinalize)
	phaseAnswered  statekit.StateID = statekit.StateID(agent.PhaseAnswered)
	phaseAbstained statekit.StateID = statekit.StateID(agent.PhaseAbstained)
	phaseFailed    statekit.StateID = statekit.StateID(agent.PhaseFailed)
)

// Events driving the chart.
const (
	EventTool     statekit.EventType = "TOOL"
	EventObserve  statekit.EventType = "OBSERVE"
	EventThink    statekit.EventType = "THINK"
	EventFinalize statekit.EventType = "FINALIZE"
	EventAnswer   statekit.EventType = "ANSWER"
	EventAbstain  statekit.EventType = "ABSTAIN"
	EventFail     statekit.EventType = "FAIL"
)

// logPhaseEntry logs phase entries. In statekit, actions receive a pointer
// to the context; since our context is *Context, actions receive **Context.
func logPhaseEntry(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).State == nil {
		return
	}
	logging.Debug().
		Add(logging.QueryID((*ctx).State.ID)).
		Add(logging.Step((*ctx).State.CurrentStep)).
		Add(logging.Str("event", string(event.Type))).
		Msg("phase entered")
}

// guardBudget blocks another reasoning round once the step budget is spent.
func guardBudget(ctx *Context, _ statekit.Event) bool {
	if ctx == nil || ctx.State == nil {
		return false
	}
	return !ctx.State.Exhausted()
}

// NewReasoningMachine creates the canonical reasoning phase chart.
func NewReasoningMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("reasoning").
		WithInitial(phaseThink).
		WithContext(&Context{}).
		WithAction("logEntry", logPhaseEntry).
		WithGuard("budgetAvailable", guardBudget).
		State(phaseThink).
			OnEntry("logEntry").
			On(EventTool).Target(phaseAct).Guard("budgetAvailable").
			On(EventFinalize).Target(phaseFinalize).
			On(EventFail).Target(phaseFailed).
			Done().
		State(phaseAct).
			OnEntry("logEntry").
			On(EventObserve).Target(phaseObserve).
			On(EventFail).Target(phaseFailed).
			Done().
		State(phaseObserve).
			OnEntry("logEntry").
			On(EventThink).Target(phaseThink).Guard("budgetAvailable").
			On(EventFinalize).Target(phaseFinalize).
			On(EventFail).Target(phaseFailed).
			Done().
		State(phaseFinalize).
			OnEntry("logEntry").
			On(EventAnswer).Target(phaseAnswered).
			On(EventAbstain).Target(phaseAbstained).
			On(EventFail).Target(phaseFailed).
			Done().
		State(phaseAnswered).
			Final().
			OnEntry("logEntry").
			Done().
		State(phaseAbstained).
			Final().
			OnEntry("logEntry").
			Done().
		State(phaseFailed).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}
