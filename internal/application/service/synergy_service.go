package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	"github.com/dealsuite/synergy-tracker/internal/generator"
	"go.uber.org/zap"
)

// ErrInvalidInput is returned when a request fails validation
var ErrInvalidInput = errors.New("invalid input")

// SynergyInput carries the caller-editable fields of a synergy. The
// derived workflow status is deliberately absent: it only changes through
// the workflow engine.
type SynergyInput struct {
	Company1ID      int64    `json:"company1_id"`
	Company2ID      int64    `json:"company2_id"`
	DealID          *int64   `json:"deal_id"`
	SynergyType     string   `json:"synergy_type"`
	Description     string   `json:"description"`
	ValueLow        *int64   `json:"value_low"`
	ValueHigh       *int64   `json:"value_high"`
	ConfidenceScore *float64 `json:"confidence_score"`
}

// GenerateInput describes one deal for candidate generation
type GenerateInput struct {
	DealID   int64                    `json:"deal_id"`
	Acquirer generator.CompanyProfile `json:"acquirer"`
	Target   generator.CompanyProfile `json:"target"`
}

// SynergyService manages the synergy records whose lifecycle the workflow
// engine tracks
type SynergyService interface {
	Create(ctx context.Context, input SynergyInput) (*entity.Synergy, error)
	Get(ctx context.Context, id int64) (*entity.Synergy, error)
	List(ctx context.Context, filter port.SynergyFilter) ([]*entity.Synergy, error)
	Update(ctx context.Context, id int64, input SynergyInput) (*entity.Synergy, error)
	Delete(ctx context.Context, id int64) error

	Metrics(ctx context.Context, synergyID int64) ([]*entity.SynergyMetric, error)
	AddMetric(ctx context.Context, metric *entity.SynergyMetric) error

	// GenerateForDeal creates draft synergies from the generator's
	// candidate patterns, all committed in one transaction.
	GenerateForDeal(ctx context.Context, input GenerateInput) ([]*entity.Synergy, error)
}

type synergyServiceImpl struct {
	synergyRepo port.SynergyRepository
	metricRepo  port.MetricRepository
	txManager   port.TransactionManager
	logger      *zap.Logger
	now         func() time.Time
}

// NewSynergyService creates a new SynergyService
func NewSynergyService(
	synergyRepo port.SynergyRepository,
	metricRepo port.MetricRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) SynergyService {
	return &synergyServiceImpl{
		synergyRepo: synergyRepo,
		metricRepo:  metricRepo,
		txManager:   txManager,
		logger:      logger,
		now:         time.Now,
	}
}

// Create validates and stores a new synergy. New records start in the
// implicit draft state with no transition rows.
func (s *synergyServiceImpl) Create(ctx context.Context, input SynergyInput) (*entity.Synergy, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	synergy := input.toEntity()
	synergy.CreatedAt = s.now()
	synergy.UpdatedAt = synergy.CreatedAt

	if err := s.synergyRepo.Create(ctx, synergy); err != nil {
		return nil, err
	}

	s.logger.Info("Synergy created",
		zap.Int64("id", synergy.ID),
		zap.String("synergy_type", synergy.SynergyType))
	return synergy, nil
}

// Get retrieves a synergy with its derived status
func (s *synergyServiceImpl) Get(ctx context.Context, id int64) (*entity.Synergy, error) {
	return s.synergyRepo.GetByID(ctx, id)
}

// List retrieves synergies matching the filter
func (s *synergyServiceImpl) List(ctx context.Context, filter port.SynergyFilter) ([]*entity.Synergy, error) {
	return s.synergyRepo.List(ctx, filter)
}

// Update replaces the editable fields of a synergy
func (s *synergyServiceImpl) Update(ctx context.Context, id int64, input SynergyInput) (*entity.Synergy, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.synergyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := input.toEntity()
	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.now()

	if err := s.synergyRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	updated.Status = existing.Status
	return updated, nil
}

// Delete removes a synergy and, via cascade, its audit trail
func (s *synergyServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.synergyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Synergy deleted", zap.Int64("id", id))
	return nil
}

// Metrics retrieves the value breakdown of a synergy. The synergy must
// exist; an empty breakdown is a valid answer.
func (s *synergyServiceImpl) Metrics(ctx context.Context, synergyID int64) ([]*entity.SynergyMetric, error) {
	if _, err := s.synergyRepo.GetByID(ctx, synergyID); err != nil {
		return nil, err
	}
	return s.metricRepo.ListBySynergyID(ctx, synergyID)
}

// AddMetric stores one value-breakdown line item
func (s *synergyServiceImpl) AddMetric(ctx context.Context, metric *entity.SynergyMetric) error {
	if metric.Category == "" || metric.LineItem == "" || metric.Unit == "" {
		return fmt.Errorf("%w: category, line_item and unit are required", ErrInvalidInput)
	}

	metric.CreatedAt = s.now()
	return s.metricRepo.Create(ctx, metric)
}

// GenerateForDeal runs the candidate patterns and persists the results
// atomically: either the whole candidate list lands or none of it.
func (s *synergyServiceImpl) GenerateForDeal(ctx context.Context, input GenerateInput) ([]*entity.Synergy, error) {
	if input.Acquirer.ID == 0 || input.Target.ID == 0 {
		return nil, fmt.Errorf("%w: acquirer and target company ids are required", ErrInvalidInput)
	}
	if input.Acquirer.ID == input.Target.ID {
		return nil, fmt.Errorf("%w: acquirer and target must differ", ErrInvalidInput)
	}

	candidates := generator.Generate(input.DealID, input.Acquirer, input.Target)
	if len(candidates) == 0 {
		return []*entity.Synergy{}, nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, candidate := range candidates {
			candidate.CreatedAt = s.now()
			candidate.UpdatedAt = candidate.CreatedAt
			if err := s.synergyRepo.Create(txCtx, candidate); err != nil {
				return fmt.Errorf("create candidate %q: %w", candidate.SynergyType, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generated synergies for deal",
		zap.Int64("deal_id", input.DealID),
		zap.Int("count", len(candidates)))
	return candidates, nil
}

func validateInput(input SynergyInput) error {
	if input.Company1ID == 0 || input.Company2ID == 0 {
		return fmt.Errorf("%w: company1_id and company2_id are required", ErrInvalidInput)
	}
	if input.Company1ID == input.Company2ID {
		return fmt.Errorf("%w: company1_id and company2_id must differ", ErrInvalidInput)
	}
	if input.SynergyType == "" {
		return fmt.Errorf("%w: synergy_type is required", ErrInvalidInput)
	}
	if input.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if input.ValueLow != nil && input.ValueHigh != nil && *input.ValueLow > *input.ValueHigh {
		return fmt.Errorf("%w: value_low exceeds value_high", ErrInvalidInput)
	}
	return nil
}

func (in SynergyInput) toEntity() *entity.Synergy {
	return &entity.Synergy{
		Company1ID:      in.Company1ID,
		Company2ID:      in.Company2ID,
		DealID:          in.DealID,
		SynergyType:     in.SynergyType,
		Description:     in.Description,
		ValueLow:        in.ValueLow,
		ValueHigh:       in.ValueHigh,
		ConfidenceScore: in.ConfidenceScore,
	}
}

// Verify interface compliance
var _ SynergyService = (*synergyServiceImpl)(nil)
