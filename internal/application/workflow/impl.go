package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealsuite/synergy-tracker/internal/application/port"
	"github.com/dealsuite/synergy-tracker/internal/domain/entity"
	domainwf "github.com/dealsuite/synergy-tracker/internal/domain/workflow"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 3

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	logRepo     port.TransitionLogRepository
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithMaxAttempts sets how often a store-level sequence conflict is retried
// before surfacing a concurrent-modification error
func WithMaxAttempts(n int) EngineOption {
	return func(e *engineImpl) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClock overrides the wall-clock source, used in tests
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(logRepo port.TransitionLogRepository, logger *zap.Logger, opts ...EngineOption) Engine {
	e := &engineImpl{
		logRepo:     logRepo,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Apply executes one workflow action and returns the committed transition.
//
// The read-validate-append cycle is never locked pessimistically: the append
// is conditional on the next sequence slot being free, and a lost race is
// re-read and retried a bounded number of times. Invalid transitions are
// surfaced immediately and never retried.
func (e *engineImpl) Apply(ctx context.Context, req ApplyRequest) (*entity.WorkflowTransition, error) {
	if !req.Action.IsValid() {
		return nil, fmt.Errorf("%w: %q", domainwf.ErrInvalidAction, req.Action)
	}
	if req.ExpectedState != "" && !req.ExpectedState.IsValid() {
		return nil, fmt.Errorf("%w: %q", domainwf.ErrInvalidState, req.ExpectedState)
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		current, sequence, err := e.observe(ctx, req.SynergyID)
		if err != nil {
			return nil, err
		}

		if req.ExpectedState != "" && req.ExpectedState != current {
			return nil, fmt.Errorf("%w: expected state %s but synergy %d is %s (attempted action %s)",
				domainwf.ErrConcurrentModification, req.ExpectedState, req.SynergyID, current, req.Action)
		}

		next, ok := domainwf.NextState(current, req.Action)
		if !ok {
			if current.IsTerminal() {
				return nil, fmt.Errorf("%w: synergy %d is already %s; no further transitions are possible (attempted action %s)",
					domainwf.ErrInvalidTransition, req.SynergyID, current, req.Action)
			}
			return nil, fmt.Errorf("%w: cannot apply %s from state %s (permitted: %v)",
				domainwf.ErrInvalidTransition, req.Action, current, domainwf.PermittedActions(current))
		}

		transition := &entity.WorkflowTransition{
			SynergyID:  req.SynergyID,
			FromState:  current,
			ToState:    next,
			Action:     req.Action,
			ActorID:    req.ActorID,
			ActorLabel: req.ActorLabel,
			Comment:    req.Comment,
			Sequence:   sequence + 1,
			CreatedAt:  e.now(),
		}

		err = e.logRepo.Append(ctx, transition)
		if err == nil {
			e.logger.Info("Workflow transition committed",
				zap.Int64("synergy_id", req.SynergyID),
				zap.String("from_state", current.String()),
				zap.String("to_state", next.String()),
				zap.String("action", req.Action.String()),
				zap.Int64("sequence", transition.Sequence))
			return transition, nil
		}

		if !errors.Is(err, port.ErrDuplicateSequence) {
			return nil, err
		}

		// Another writer won the race; re-read the log and try again
		e.logger.Debug("Lost append race, retrying",
			zap.Int64("synergy_id", req.SynergyID),
			zap.Int64("sequence", transition.Sequence),
			zap.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("%w: gave up after %d attempts to apply %s to synergy %d",
		domainwf.ErrConcurrentModification, e.maxAttempts, req.Action, req.SynergyID)
}

// CurrentState returns the derived current state of a synergy
func (e *engineImpl) CurrentState(ctx context.Context, synergyID int64) (domainwf.State, error) {
	current, _, err := e.observe(ctx, synergyID)
	return current, err
}

// History returns the ordered audit trail of a synergy
func (e *engineImpl) History(ctx context.Context, synergyID int64) ([]*entity.WorkflowTransition, error) {
	return e.logRepo.ListBySynergyID(ctx, synergyID)
}

// observe reads the latest transition and reduces it to (current state,
// sequence). A synergy with no transitions is draft at sequence 0; the
// fallback is explicit here rather than a stored row, so creating a record
// costs no write.
func (e *engineImpl) observe(ctx context.Context, synergyID int64) (domainwf.State, int64, error) {
	latest, err := e.logRepo.Latest(ctx, synergyID)
	if err != nil {
		return "", 0, err
	}
	if latest == nil {
		return domainwf.InitialState, 0, nil
	}
	return latest.ToState, latest.Sequence, nil
}

// Verify interface compliance
var _ Engine = (*engineImpl)(nil)
