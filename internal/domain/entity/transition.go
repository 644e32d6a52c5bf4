package entity

import (
	"time"

	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
)

// WorkflowTransition is one immutable audit event in a synergy's approval
// lifecycle. Transitions are only ever appended, never edited or deleted;
// corrections are made by appending new transitions.
//
// Sequence is assigned at commit time and totally orders the transitions of
// one synergy, starting at 1. CreatedAt is wall-clock and informational
// only: it is never used for ordering or state derivation, since clocks can
// skew under concurrent writers.
type WorkflowTransition struct {
	ID         int64           `json:"id"`
	SynergyID  int64           `json:"synergy_id"`
	FromState  workflow.State  `json:"from_state"`
	ToState    workflow.State  `json:"to_state"`
	Action     workflow.Action `json:"action"`
	ActorID    string          `json:"actor_id"`
	ActorLabel string          `json:"actor_label"`
	Comment    string          `json:"comment,omitempty"`
	Sequence   int64           `json:"sequence"`
	CreatedAt  time.Time       `json:"created_at"`
}
