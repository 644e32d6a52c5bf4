package workflow

import "sort"

// transitionTable encodes the legal transition graph. Any (state, action)
// pair absent from the table is an invalid transition.
//
// rejected keeps a single reopening edge (return_to_draft); realized has no
// outgoing edges at all. Rejected opportunities can be revived, realized ones
// cannot.
var transitionTable = map[State]map[Action]State{
	StateDraft: {
		ActionSubmit: StateReview,
	},
	StateReview: {
		ActionApprove:       StateApproved,
		ActionReject:        StateRejected,
		ActionReturnToDraft: StateDraft,
	},
	StateApproved: {
		ActionRealize: StateRealized,
		ActionReject:  StateRejected,
	},
	StateRejected: {
		ActionReturnToDraft: StateDraft,
	},
}

// NextState returns the state reached by firing action from current.
// It is a pure, total function over the enum cross-product: undefined
// combinations return ok=false and never mutate anything.
func NextState(current State, action Action) (State, bool) {
	actions, exists := transitionTable[current]
	if !exists {
		return "", false
	}
	next, exists := actions[action]
	if !exists {
		return "", false
	}
	return next, true
}

// CanFire returns true if the action is permitted in the given state
func CanFire(current State, action Action) bool {
	_, ok := NextState(current, action)
	return ok
}

// PermittedActions returns all actions that can be fired from the given
// state, sorted for stable output in error messages and API responses
func PermittedActions(current State) []Action {
	config, exists := transitionTable[current]
	if !exists {
		return []Action{}
	}

	actions := make([]Action, 0, len(config))
	for action := range config {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

	return actions
}
