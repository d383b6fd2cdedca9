package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/balizero/zantara-agentic/domain/agent"
)

// Interpreter wraps the statekit interpreter with loop-specific helpers.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter for the reasoning machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start enters the initial phase.
func (i *Interpreter) Start() {
	i.interp.Start()
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current reasoning phase.
func (i *Interpreter) Phase() agent.Phase {
	return agent.Phase(i.interp.State().Value)
}

// Send drives the chart with an event and verifies the transition took
// effect; an event rejected by a guard or undefined for the current phase
// leaves the machine in place and returns an error.
func (i *Interpreter) Send(event statekit.EventType) error {
	before := i.Phase()
	i.interp.Send(statekit.Event{Type: event})
	if i.Phase() == before && !before.IsTerminal() {
		return fmt.Errorf("%w: %s does not leave %s", agent.ErrInvalidTransition, event, before)
	}
	return nil
}

// IsTerminal reports whether the machine reached a final phase.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
