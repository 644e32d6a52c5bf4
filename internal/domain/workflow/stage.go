package workflow

// StageStatus is the per-stage display status derived for pipeline
// visualization
type StageStatus string

const (
	StageComplete StageStatus = "complete"
	StageActive   StageStatus = "active"
	StagePending  StageStatus = "pending"
	StageRejected StageStatus = "rejected"
)

// Pipeline is the fixed ordered sequence of stages presented in the UI.
// rejected is deliberately excluded from the linear pipeline and surfaced
// separately.
var Pipeline = []State{StateDraft, StateReview, StateApproved, StateRealized}

// ProjectStages derives a per-stage display status from the current state.
// It is a pure function of current alone: two records with different
// transition histories but the same current state project identically.
//
// A rejected record shows draft as complete (the record did pass through it)
// and every later stage as rejected.
func ProjectStages(current State, pipeline []State) map[State]StageStatus {
	currentIdx := indexOf(current, pipeline)

	statuses := make(map[State]StageStatus, len(pipeline))
	for i, stage := range pipeline {
		switch {
		case current == StateRejected && stage == StateDraft:
			statuses[stage] = StageComplete
		case current == StateRejected:
			statuses[stage] = StageRejected
		case current == stage:
			statuses[stage] = StageActive
		case i < currentIdx:
			statuses[stage] = StageComplete
		default:
			statuses[stage] = StagePending
		}
	}

	return statuses
}

// indexOf returns the position of state in the pipeline. States outside the
// linear pipeline sort with draft.
func indexOf(state State, pipeline []State) int {
	for i, s := range pipeline {
		if s == state {
			return i
		}
	}
	for i, s := range pipeline {
		if s == StateDraft {
			return i
		}
	}
	return 0
}
