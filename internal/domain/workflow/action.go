package workflow

// Action represents a caller-supplied trigger that can cause a state
// transition. States are never set directly, only through actions.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionRealize       Action = "realize"
	ActionReturnToDraft Action = "return_to_draft"
)

var validActions = map[Action]bool{
	ActionSubmit:        true,
	ActionApprove:       true,
	ActionReject:        true,
	ActionRealize:       true,
	ActionReturnToDraft: true,
}

// IsValid returns true if the action is a known workflow action
func (a Action) IsValid() bool {
	return validActions[a]
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
