package workflow

import (
	"context"

	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	domainwf "github.com/dealsuite/synergy-tracker/internal/domain/workflow"
)

// ApplyRequest carries one requested workflow action. Actor identity is
// supplied already authenticated; the engine does not verify it or enforce
// role-based permissions.
type ApplyRequest struct {
	SynergyID  int64
	Action     domainwf.Action
	ActorID    string
	ActorLabel string
	Comment    string

	// ExpectedState is the optimistic-concurrency guard: when non-empty the
	// transition only proceeds if the observed current state matches. Two
	// actors racing to transition the same synergy leaves exactly one winner.
	ExpectedState domainwf.State
}

// Engine orchestrates the synergy approval workflow: it derives the current
// state from the transition log, validates the requested action against the
// state machine and appends the resulting transition atomically.
type Engine interface {
	// Apply executes one workflow action and returns the committed
	// transition.
	Apply(ctx context.Context, req ApplyRequest) (*entity.WorkflowTransition, error)

	// CurrentState returns the derived current state of a synergy: the
	// to_state of its highest-sequence transition, or draft when the
	// synergy has no transitions.
	CurrentState(ctx context.Context, synergyID int64) (domainwf.State, error)

	// History returns the ordered audit trail of a synergy
	History(ctx context.Context, synergyID int64) ([]*entity.WorkflowTransition, error)
}
