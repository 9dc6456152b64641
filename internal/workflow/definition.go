package workflow

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-editorial/internal/domain"
)

var (
	// ErrDefinitionStatesRequired indicates the workflow definition does not declare any states.
	ErrDefinitionStatesRequired = errors.New("workflow: definition requires at least one state")
	// ErrStateUnknown indicates a state outside the editorial vocabulary.
	ErrStateUnknown = errors.New("workflow: unknown state")
	// ErrDuplicateState indicates duplicate workflow state names were declared.
	ErrDuplicateState = errors.New("workflow: duplicate state")
	// ErrActionUnknown indicates a transition names an action outside the editorial vocabulary.
	ErrActionUnknown = errors.New("workflow: unknown action")
	// ErrTransitionStateUnknown indicates a transition references a state that was not declared.
	ErrTransitionStateUnknown = errors.New("workflow: transition references unknown state")
	// ErrDuplicateTransition indicates the same action is declared multiple times for a state.
	ErrDuplicateTransition = errors.New("workflow: duplicate transition for state")
	// ErrInitialStateInvalid indicates the supplied initial state flag is inconsistent or unknown.
	ErrInitialStateInvalid = errors.New("workflow: invalid initial state")
)

// StateDefinition describes one node of the graph.
type StateDefinition struct {
	Name        domain.ContentState `json:"name"`
	Description string              `json:"description,omitempty"`
	Initial     bool                `json:"initial,omitempty"`
	Terminal    bool                `json:"terminal,omitempty"`
}

// Transition is one edge: Action applied in From yields To.
type Transition struct {
	Action      domain.Action       `json:"action"`
	From        domain.ContentState `json:"from"`
	To          domain.ContentState `json:"to"`
	Description string              `json:"description,omitempty"`
}

// Definition is the declarative form of the content lifecycle.
type Definition struct {
	States      []StateDefinition `json:"states"`
	Transitions []Transition      `json:"transitions"`
}

// DefaultDefinition returns the editorial lifecycle. Published and Archived are
// terminal for the forward flow; Archived may only be restored to Draft.
func DefaultDefinition() Definition {
	return Definition{
		States: []StateDefinition{
			{Name: domain.StateDraft, Description: "Being written by its editor", Initial: true},
			{Name: domain.StateInReview, Description: "Awaiting a chief editor decision"},
			{Name: domain.StateNeedsRevision, Description: "Returned to the editor with notes"},
			{Name: domain.StateApproved, Description: "Cleared for publication"},
			{Name: domain.StatePublished, Description: "Visible to readers", Terminal: true},
			{Name: domain.StateArchived, Description: "Withdrawn and retained for history", Terminal: true},
		},
		Transitions: []Transition{
			{Action: domain.ActionSubmit, From: domain.StateDraft, To: domain.StateInReview, Description: "Send a draft for review"},
			{Action: domain.ActionRequestRevision, From: domain.StateInReview, To: domain.StateNeedsRevision, Description: "Return to the editor with notes"},
			{Action: domain.ActionApprove, From: domain.StateInReview, To: domain.StateApproved, Description: "Clear for publication"},
			{Action: domain.ActionReject, From: domain.StateInReview, To: domain.StateDraft, Description: "Send back to draft"},
			{Action: domain.ActionSubmit, From: domain.StateNeedsRevision, To: domain.StateInReview, Description: "Resubmit after revision"},
			{Action: domain.ActionPublish, From: domain.StateApproved, To: domain.StatePublished, Description: "Release to readers"},
			{Action: domain.ActionUnpublish, From: domain.StatePublished, To: domain.StateApproved, Description: "Withdraw from readers"},
			{Action: domain.ActionArchive, From: domain.StatePublished, To: domain.StateArchived, Description: "Retire published content"},
			{Action: domain.ActionArchive, From: domain.StateDraft, To: domain.StateArchived, Description: "Abandon a draft"},
			{Action: domain.ActionRestore, From: domain.StateArchived, To: domain.StateDraft, Description: "Bring archived content back to draft"},
		},
	}
}

type compiledDefinition struct {
	initial     domain.ContentState
	states      []StateDefinition
	transitions []Transition
	table       map[transitionKey]Transition
	outgoing    map[domain.ContentState][]Transition
}

type transitionKey struct {
	action domain.Action
	from   domain.ContentState
}

func compileDefinition(def Definition) (compiledDefinition, error) {
	if len(def.States) == 0 {
		return compiledDefinition{}, ErrDefinitionStatesRequired
	}

	compiled := compiledDefinition{
		table:    make(map[transitionKey]Transition, len(def.Transitions)),
		outgoing: make(map[domain.ContentState][]Transition, len(def.States)),
	}

	declared := make(map[domain.ContentState]struct{}, len(def.States))
	initialDeclared := false
	for idx, state := range def.States {
		if !state.Name.Valid() {
			return compiledDefinition{}, fmt.Errorf("%w at index %d: %q", ErrStateUnknown, idx, state.Name)
		}
		if _, exists := declared[state.Name]; exists {
			return compiledDefinition{}, fmt.Errorf("%w: %s", ErrDuplicateState, state.Name)
		}
		declared[state.Name] = struct{}{}
		if state.Initial {
			if initialDeclared {
				return compiledDefinition{}, ErrInitialStateInvalid
			}
			compiled.initial = state.Name
			initialDeclared = true
		}
		compiled.states = append(compiled.states, state)
	}
	if !initialDeclared {
		compiled.initial = def.States[0].Name
	}
	if compiled.initial != domain.InitialState {
		return compiledDefinition{}, fmt.Errorf("%w: %s", ErrInitialStateInvalid, compiled.initial)
	}

	for _, transition := range def.Transitions {
		if !transition.Action.Valid() {
			return compiledDefinition{}, fmt.Errorf("%w: %q", ErrActionUnknown, transition.Action)
		}
		if _, ok := declared[transition.From]; !ok {
			return compiledDefinition{}, fmt.Errorf("%w: %s", ErrTransitionStateUnknown, transition.From)
		}
		if _, ok := declared[transition.To]; !ok {
			return compiledDefinition{}, fmt.Errorf("%w: %s", ErrTransitionStateUnknown, transition.To)
		}
		key := transitionKey{action: transition.Action, from: transition.From}
		if _, exists := compiled.table[key]; exists {
			return compiledDefinition{}, fmt.Errorf("%w: %s from %s", ErrDuplicateTransition, transition.Action, transition.From)
		}
		compiled.table[key] = transition
		compiled.outgoing[transition.From] = append(compiled.outgoing[transition.From], transition)
		compiled.transitions = append(compiled.transitions, transition)
	}

	return compiled, nil
}
