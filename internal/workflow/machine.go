package workflow

import (
	"github.com/goliatone/go-editorial/internal/domain"
)

// StateMachine answers legality questions against a compiled, immutable
// transition table. It holds no per-item state and is safe for concurrent use.
type StateMachine struct {
	def compiledDefinition
}

// NewStateMachine validates def and compiles its lookup table.
func NewStateMachine(def Definition) (*StateMachine, error) {
	compiled, err := compileDefinition(def)
	if err != nil {
		return nil, err
	}
	return &StateMachine{def: compiled}, nil
}

// DefaultStateMachine compiles DefaultDefinition.
func DefaultStateMachine() *StateMachine {
	machine, err := NewStateMachine(DefaultDefinition())
	if err != nil {
		panic(err)
	}
	return machine
}

// IsLegal returns the target state when action may be applied in from.
func (m *StateMachine) IsLegal(action domain.Action, from domain.ContentState) (domain.ContentState, bool) {
	if m == nil {
		return "", false
	}
	transition, ok := m.def.table[transitionKey{action: action, from: from}]
	if !ok {
		return "", false
	}
	return transition.To, true
}

// Available lists the transitions leaving from, in declaration order.
func (m *StateMachine) Available(from domain.ContentState) []Transition {
	if m == nil {
		return nil
	}
	outgoing := m.def.outgoing[from]
	out := make([]Transition, len(outgoing))
	copy(out, outgoing)
	return out
}

// InitialState is the state new items start in.
func (m *StateMachine) InitialState() domain.ContentState {
	return m.def.initial
}

// Definition returns a copy of the compiled graph.
func (m *StateMachine) Definition() Definition {
	states := make([]StateDefinition, len(m.def.states))
	copy(states, m.def.states)
	transitions := make([]Transition, len(m.def.transitions))
	copy(transitions, m.def.transitions)
	return Definition{States: states, Transitions: transitions}
}
