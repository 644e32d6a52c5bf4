package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/domain/workflow"
	"github.com/dealsuite/synergy-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SynergyRepository implements port.SynergyRepository.
//
// The synergies table carries no status column. Reads derive the workflow
// status from the highest-sequence transition, falling back to draft, so a
// client can never observe a stored status that disagrees with the log.
type SynergyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSynergyRepository creates a new synergy repository
func NewSynergyRepository(db *sql.DB, logger *zap.Logger) port.SynergyRepository {
	return &SynergyRepository{
		db:     db,
		logger: logger,
	}
}

// selectWithStatus joins each synergy with its latest transition to derive
// the current workflow status in one round trip
const selectWithStatus = `
	SELECT s.id, s.company1_id, s.company2_id, s.deal_id, s.synergy_type,
		s.description, s.value_low, s.value_high, s.confidence_score,
		COALESCE(t.to_state, 'draft') AS status,
		s.created_at, s.updated_at
	FROM synergies s
	LEFT JOIN workflow_transitions t
		ON t.synergy_id = s.id
		AND t.sequence = (
			SELECT MAX(sequence) FROM workflow_transitions WHERE synergy_id = s.id
		)
`

// Create inserts a new synergy record
func (r *SynergyRepository) Create(ctx context.Context, s *entity.Synergy) error {
	query := `
		INSERT INTO synergies (
			company1_id, company2_id, deal_id, synergy_type, description,
			value_low, value_high, confidence_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		s.Company1ID,
		s.Company2ID,
		s.DealID,
		s.SynergyType,
		s.Description,
		s.ValueLow,
		s.ValueHigh,
		s.ConfidenceScore,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create synergy", zap.Error(err))
		return fmt.Errorf("failed to create synergy: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id
	s.Status = workflow.InitialState
	return nil
}

// GetByID retrieves a synergy with its derived workflow status
func (r *SynergyRepository) GetByID(ctx context.Context, id int64) (*entity.Synergy, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, selectWithStatus+" WHERE s.id = ?", id)

	s, err := scanSynergy(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get synergy", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get synergy: %w", err)
	}

	return s, nil
}

// List retrieves synergies matching the filter, newest first. Status
// filtering runs against the derived status, not a stored column.
func (r *SynergyRepository) List(ctx context.Context, filter port.SynergyFilter) ([]*entity.Synergy, error) {
	var conditions []string
	var args []interface{}

	if filter.Company1ID != 0 {
		conditions = append(conditions, "s.company1_id = ?")
		args = append(args, filter.Company1ID)
	}
	if filter.Company2ID != 0 {
		conditions = append(conditions, "s.company2_id = ?")
		args = append(args, filter.Company2ID)
	}
	if filter.DealID != 0 {
		conditions = append(conditions, "s.deal_id = ?")
		args = append(args, filter.DealID)
	}
	if filter.SynergyType != "" {
		conditions = append(conditions, "s.synergy_type = ?")
		args = append(args, filter.SynergyType)
	}
	if filter.Status != "" {
		conditions = append(conditions, "COALESCE(t.to_state, 'draft') = ?")
		args = append(args, filter.Status.String())
	}

	query := selectWithStatus
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.created_at DESC, s.id DESC"

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list synergies", zap.Error(err))
		return nil, fmt.Errorf("failed to list synergies: %w", err)
	}
	defer rows.Close()

	var synergies []*entity.Synergy
	for rows.Next() {
		s, err := scanSynergy(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan synergy: %w", err)
		}
		synergies = append(synergies, s)
	}

	return synergies, rows.Err()
}

// Update rewrites the stored columns of a synergy. The workflow status is
// not among them; it only ever changes through the transition log.
func (r *SynergyRepository) Update(ctx context.Context, s *entity.Synergy) error {
	query := `
		UPDATE synergies
		SET company1_id = ?, company2_id = ?, deal_id = ?, synergy_type = ?,
			description = ?, value_low = ?, value_high = ?,
			confidence_score = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		s.Company1ID,
		s.Company2ID,
		s.DealID,
		s.SynergyType,
		s.Description,
		s.ValueLow,
		s.ValueHigh,
		s.ConfidenceScore,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update synergy", zap.Int64("id", s.ID), zap.Error(err))
		return fmt.Errorf("failed to update synergy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, s.ID)
	}

	return nil
}

// Delete removes a synergy. Its transitions go with it via the foreign-key
// cascade.
func (r *SynergyRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, "DELETE FROM synergies WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete synergy", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete synergy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, id)
	}

	return nil
}

func scanSynergy(scan func(dest ...interface{}) error) (*entity.Synergy, error) {
	var s entity.Synergy
	var status string

	err := scan(
		&s.ID,
		&s.Company1ID,
		&s.Company2ID,
		&s.DealID,
		&s.SynergyType,
		&s.Description,
		&s.ValueLow,
		&s.ValueHigh,
		&s.ConfidenceScore,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = workflow.State(status)
	return &s, nil
}

// Verify interface compliance
var _ port.SynergyRepository = (*SynergyRepository)(nil)
