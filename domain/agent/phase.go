// Package agent provides the core domain model for the reasoning loop.
package agent

// Phase represents a structural constraint in the reasoning loop.
// Phases are identified by stable strings, not behavioral definitions.
type Phase string

// Canonical phases of a single query's lifecycle.
const (
	PhaseThink     Phase = "think"     // Request a decision from the model
	PhaseAct       Phase = "act"       // Dispatch a tool
	PhaseObserve   Phase = "observe"   // Fold the tool result into context
	PhaseFinalize  Phase = "finalize"  // Synthesize or vet the answer
	PhaseAnswered  Phase = "answered"  // Terminal: answer delivered
	PhaseAbstained Phase = "abstained" // Terminal: evidence policy declined
	PhaseFailed    Phase = "failed"    // Terminal: unrecoverable failure
)

// IsTerminal returns true if this is a terminal phase.
func (p Phase) IsTerminal() bool {
	return p == PhaseAnswered || p == PhaseAbstained || p == PhaseFailed
}

// IsValid returns true if the phase is a recognized canonical phase.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseThink, PhaseAct, PhaseObserve, PhaseFinalize, PhaseAnswered, PhaseAbstained, PhaseFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AllPhases returns all canonical phases.
func AllPhases() []Phase {
	return []Phase{
		PhaseThink,
		PhaseAct,
		PhaseObserve,
		PhaseFinalize,
		PhaseAnswered,
		PhaseAbstained,
		PhaseFailed,
	}
}
