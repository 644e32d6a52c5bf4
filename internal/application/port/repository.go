package port

import (
	"context"
	"errors"

	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
)

// ErrDuplicateSequence is returned by TransitionLogRepository.Append when
// another writer already committed a transition with the same sequence for
// the same synergy. The workflow engine re-reads and retries on this error.
var ErrDuplicateSequence = errors.New("transition sequence already committed")

// TransitionLogRepository is the append-only persistence of workflow
// transitions. Implementations must enforce uniqueness of
// (synergy_id, sequence) as a single atomic operation so that Append acts
// as a compare-and-append primitive.
type TransitionLogRepository interface {
	// Append commits one transition. It returns ErrDuplicateSequence when
	// the (synergy_id, sequence) slot is already taken.
	Append(ctx context.Context, transition *entity.WorkflowTransition) error

	// Latest returns the transition with the highest sequence for the
	// synergy, or (nil, nil) when the synergy has no transitions yet.
	Latest(ctx context.Context, synergyID int64) (*entity.WorkflowTransition, error)

	// ListBySynergyID returns all transitions for the synergy ordered by
	// sequence ascending.
	ListBySynergyID(ctx context.Context, synergyID int64) ([]*entity.WorkflowTransition, error)
}

// SynergyFilter narrows synergy listings. Zero values mean no filtering on
// that field.
type SynergyFilter struct {
	Company1ID  int64
	Company2ID  int64
	DealID      int64
	SynergyType string
	Status      workflow.State
}

// SynergyRepository defines persistence operations for Synergy. Reads
// surface the derived workflow status alongside the stored columns.
type SynergyRepository interface {
	Create(ctx context.Context, synergy *entity.Synergy) error
	GetByID(ctx context.Context, id int64) (*entity.Synergy, error)
	List(ctx context.Context, filter SynergyFilter) ([]*entity.Synergy, error)
	Update(ctx context.Context, synergy *entity.Synergy) error
	Delete(ctx context.Context, id int64) error
}

// MetricRepository defines persistence operations for SynergyMetric
type MetricRepository interface {
	Create(ctx context.Context, metric *entity.SynergyMetric) error
	ListBySynergyID(ctx context.Context, synergyID int64) ([]*entity.SynergyMetric, error)
}

// TransactionManager provides transaction management across repositories
type TransactionManager interface {
	// WithTransaction executes the function within a database transaction.
	// The transaction is committed if the function returns nil, rolled back
	// otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
