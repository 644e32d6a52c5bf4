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

// MetricRepository implements port.MetricRepository
type MetricRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *sql.DB, logger *zap.Logger) port.MetricRepository {
	return &MetricRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts one value-breakdown line item
func (r *MetricRepository) Create(ctx context.Context, m *entity.SynergyMetric) error {
	query := `
		INSERT INTO synergy_metrics (
			synergy_id, category, line_item, value, unit,
			description, confidence, assumption, data_source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		m.SynergyID,
		m.Category,
		m.LineItem,
		m.Value,
		m.Unit,
		m.Description,
		m.Confidence,
		m.Assumption,
		m.DataSource,
		m.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("%w: synergy %d", workflow.ErrNotFound, m.SynergyID)
		}
		r.logger.Error("Failed to create metric", zap.Int64("synergy_id", m.SynergyID), zap.Error(err))
		return fmt.Errorf("failed to create metric: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	m.ID = id
	return nil
}

// ListBySynergyID retrieves all metrics for a synergy
func (r *MetricRepository) ListBySynergyID(ctx context.Context, synergyID int64) ([]*entity.SynergyMetric, error) {
	query := `
		SELECT id, synergy_id, category, line_item, value, unit,
			description, confidence, assumption, data_source, created_at
		FROM synergy_metrics
		WHERE synergy_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, synergyID)
	if err != nil {
		r.logger.Error("Failed to list metrics", zap.Int64("synergy_id", synergyID), zap.Error(err))
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*entity.SynergyMetric
	for rows.Next() {
		var m entity.SynergyMetric
		err := rows.Scan(
			&m.ID,
			&m.SynergyID,
			&m.Category,
			&m.LineItem,
			&m.Value,
			&m.Unit,
			&m.Description,
			&m.Confidence,
			&m.Assumption,
			&m.DataSource,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, &m)
	}

	return metrics, rows.Err()
}

// Verify interface compliance
var _ port.MetricRepository = (*MetricRepository)(nil)
