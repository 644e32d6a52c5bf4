package workflow

import (
	"reflect"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateReview, false},
		{StateApproved, false},
		{StateRealized, true},
		// rejected is soft-terminal: it still accepts return_to_draft
		{StateRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"realized", StateRealized, true},
		{"unknown state", State("archived"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAction_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		action   Action
		expected bool
	}{
		{"submit", ActionSubmit, true},
		{"return_to_draft", ActionReturnToDraft, true},
		{"unknown action", Action("escalate"), false},
		{"empty action", Action(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.IsValid(); got != tt.expected {
				t.Errorf("Action.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestNextState_LegalEdges verifies every edge of the transition graph
func TestNextState_LegalEdges(t *testing.T) {
	tests := []struct {
		from   State
		action Action
		to     State
	}{
		{StateDraft, ActionSubmit, StateReview},
		{StateReview, ActionApprove, StateApproved},
		{StateReview, ActionReject, StateRejected},
		{StateReview, ActionReturnToDraft, StateDraft},
		{StateApproved, ActionRealize, StateRealized},
		{StateApproved, ActionReject, StateRejected},
		{StateRejected, ActionReturnToDraft, StateDraft},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, ok := NextState(tt.from, tt.action)
			if !ok {
				t.Fatalf("NextState(%s, %s) not permitted, want %s", tt.from, tt.action, tt.to)
			}
			if got != tt.to {
				t.Errorf("NextState(%s, %s) = %s, want %s", tt.from, tt.action, got, tt.to)
			}
		})
	}
}

// TestNextState_TotalOverCrossProduct checks every (state, action) pair not
// in the transition table is rejected
func TestNextState_TotalOverCrossProduct(t *testing.T) {
	legal := map[State]map[Action]bool{
		StateDraft:    {ActionSubmit: true},
		StateReview:   {ActionApprove: true, ActionReject: true, ActionReturnToDraft: true},
		StateApproved: {ActionRealize: true, ActionReject: true},
		StateRejected: {ActionReturnToDraft: true},
	}

	states := []State{StateDraft, StateReview, StateApproved, StateRealized, StateRejected}
	actions := []Action{ActionSubmit, ActionApprove, ActionReject, ActionRealize, ActionReturnToDraft}

	for _, state := range states {
		for _, action := range actions {
			expected := legal[state][action]
			if _, ok := NextState(state, action); ok != expected {
				t.Errorf("NextState(%s, %s) ok = %v, want %v", state, action, ok, expected)
			}
		}
	}
}

// TestNextState_RealizedIsTerminal: no action is permitted from realized
func TestNextState_RealizedIsTerminal(t *testing.T) {
	actions := []Action{ActionSubmit, ActionApprove, ActionReject, ActionRealize, ActionReturnToDraft}
	for _, action := range actions {
		if _, ok := NextState(StateRealized, action); ok {
			t.Errorf("NextState(realized, %s) permitted, want rejection", action)
		}
	}
}

func TestCanFire(t *testing.T) {
	if !CanFire(StateDraft, ActionSubmit) {
		t.Error("CanFire(draft, submit) = false, want true")
	}
	if CanFire(StateDraft, ActionApprove) {
		t.Error("CanFire(draft, approve) = true, want false")
	}
	if !CanFire(StateRejected, ActionReturnToDraft) {
		t.Error("CanFire(rejected, return_to_draft) = false, want true")
	}
}

func TestPermittedActions(t *testing.T) {
	tests := []struct {
		state    State
		expected []Action
	}{
		{StateDraft, []Action{ActionSubmit}},
		{StateReview, []Action{ActionApprove, ActionReject, ActionReturnToDraft}},
		{StateApproved, []Action{ActionRealize, ActionReject}},
		{StateRejected, []Action{ActionReturnToDraft}},
		{StateRealized, []Action{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			got := PermittedActions(tt.state)
			want := append([]Action{}, tt.expected...)
			sortActions(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("PermittedActions(%s) = %v, want %v", tt.state, got, want)
			}
		})
	}
}

func sortActions(actions []Action) {
	for i := range actions {
		for j := i + 1; j < len(actions); j++ {
			if actions[j] < actions[i] {
				actions[i], actions[j] = actions[j], actions[i]
			}
		}
	}
}
