package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
	"github.com/dealsuite/synergy-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// TransitionRepository implements port.TransitionLogRepository on SQLite.
// The UNIQUE(synergy_id, sequence) index on workflow_transitions makes the
// INSERT in Append the atomic compare-and-append: when two writers race for
// the same sequence slot, exactly one INSERT succeeds.
type TransitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTransitionRepository creates a new transition log repository
func NewTransitionRepository(db *sql.DB, logger *zap.Logger) port.TransitionLogRepository {
	return &TransitionRepository{
		db:     db,
		logger: logger,
	}
}

// Append commits one transition. Rows are never updated or deleted here;
// the log is append-only.
func (r *TransitionRepository) Append(ctx context.Context, t *entity.WorkflowTransition) error {
	query := `
		INSERT INTO workflow_transitions (
			synergy_id, from_state, to_state, action,
			actor_id, actor_label, comment, sequence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		t.SynergyID,
		t.FromState.String(),
		t.ToState.String(),
		t.Action.String(),
		t.ActorID,
		t.ActorLabel,
		t.Comment,
		t.Sequence,
		t.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%w: synergy %d sequence %d", port.ErrDuplicateSequence, t.SynergyID, t.Sequence)
			case sqlite3.ErrConstraintForeignKey:
				return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, t.SynergyID)
			}
		}
		r.logger.Error("Failed to append transition",
			zap.Int64("synergy_id", t.SynergyID),
			zap.Int64("sequence", t.Sequence),
			zap.Error(err))
		return fmt.Errorf("%w: append transition: %w", workflow.ErrStoreUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	return nil
}

// Latest returns the highest-sequence transition for a synergy, or
// (nil, nil) when none exists: the caller treats that as implicit draft.
func (r *TransitionRepository) Latest(ctx context.Context, synergyID int64) (*entity.WorkflowTransition, error) {
	query := `
		SELECT id, synergy_id, from_state, to_state, action,
			actor_id, actor_label, comment, sequence, created_at
		FROM workflow_transitions
		WHERE synergy_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`

	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, synergyID)

	t, err := scanTransition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest transition", zap.Int64("synergy_id", synergyID), zap.Error(err))
		return nil, fmt.Errorf("%w: latest transition: %w", workflow.ErrStoreUnavailable, err)
	}

	return t, nil
}

// ListBySynergyID returns all transitions for a synergy ordered by sequence
func (r *TransitionRepository) ListBySynergyID(ctx context.Context, synergyID int64) ([]*entity.WorkflowTransition, error) {
	query := `
		SELECT id, synergy_id, from_state, to_state, action,
			actor_id, actor_label, comment, sequence, created_at
		FROM workflow_transitions
		WHERE synergy_id = ?
		ORDER BY sequence ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, synergyID)
	if err != nil {
		r.logger.Error("Failed to list transitions", zap.Int64("synergy_id", synergyID), zap.Error(err))
		return nil, fmt.Errorf("%w: list transitions: %w", workflow.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var transitions []*entity.WorkflowTransition
	for rows.Next() {
		t, err := scanTransition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

func scanTransition(scan func(dest ...interface{}) error) (*entity.WorkflowTransition, error) {
	var t entity.WorkflowTransition
	var fromState, toState, action string

	err := scan(
		&t.ID,
		&t.SynergyID,
		&fromState,
		&toState,
		&action,
		&t.ActorID,
		&t.ActorLabel,
		&t.Comment,
		&t.Sequence,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.FromState = workflow.State(fromState)
	t.ToState = workflow.State(toState)
	t.Action = workflow.Action(action)
	return &t, nil
}

// Verify interface compliance
var _ port.TransitionLogRepository = (*TransitionRepository)(nil)
