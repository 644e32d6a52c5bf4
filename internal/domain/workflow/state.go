package workflow

// State represents a workflow state in the synergy approval lifecycle
type State string

const (
	StateDraft    State = "draft"
	StateReview   State = "review"
	StateApproved State = "approved"
	StateRealized State = "realized"
	StateRejected State = "rejected"
)

// InitialState is the implicit state of a synergy with no recorded transitions
const InitialState = StateDraft

var validStates = map[State]bool{
	StateDraft:    true,
	StateReview:   true,
	StateApproved: true,
	StateRealized: true,
	StateRejected: true,
}

// Only realized is fully terminal. Rejected still accepts return_to_draft,
// which reopens the record.
var terminalStates = map[State]bool{
	StateRealized: true,
}

// IsTerminal returns true if the state permits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
