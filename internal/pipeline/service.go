// internal/pipeline/service.go
package pipeline

import (
	"context"
	"strconv"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/common/metrics"
	"adstrategy-service/internal/gateway"
	"adstrategy-service/internal/models"
	"adstrategy-service/internal/store"
)

// Service runs stage transitions against the project store and the remote
// analysis gateway.
type Service struct {
	store   store.Store
	gateway gateway.Invoker
	logger  logger.Logger
}

func NewService(st store.Store, gw gateway.Invoker, log logger.Logger) *Service {
	return &Service{store: st, gateway: gw, logger: log}
}

// Advance runs the transition out of fromStage. The write is all-or-nothing:
// any gateway or decode failure leaves the project untouched. Re-running the
// transition of an already-passed stage overwrites the next stage's payload
// without lowering currentStage.
func (s *Service) Advance(ctx context.Context, ownerID, projectID string, fromStage int, opts AdvanceOptions) (*models.Project, error) {
	t, ok := TransitionFor(fromStage)
	if !ok {
		return nil, apperrors.NewStageNotAdvancableError(fromStage)
	}

	p, err := s.store.Get(ctx, ownerID, projectID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, apperrors.NewProjectNotFoundError(projectID)
		}
		return nil, apperrors.NewStoreFailureError(err)
	}

	if fromStage > p.CurrentStage {
		return nil, apperrors.NewStageLockedError(fromStage, p.CurrentStage)
	}

	// Prerequisites are checked before any remote call is made.
	if err := t.Validate(p); err != nil {
		s.recordAdvance(fromStage, "rejected")
		return nil, err
	}

	raw, err := s.gateway.Invoke(ctx, t.Function, t.Request(p, opts))
	if err != nil {
		s.recordAdvance(fromStage, "failed")
		return nil, err
	}

	payload, err := t.Apply(raw)
	if err != nil {
		s.recordAdvance(fromStage, "failed")
		return nil, apperrors.NewAnalysisFailedError(t.Function, err)
	}

	nextStage := fromStage + 1
	updated, err := s.store.SaveStage(ctx, ownerID, projectID, nextStage, payload, nextStage)
	if err != nil {
		s.recordAdvance(fromStage, "failed")
		if err == store.ErrNotFound {
			return nil, apperrors.NewProjectNotFoundError(projectID)
		}
		return nil, apperrors.NewStoreFailureError(err)
	}

	s.recordAdvance(fromStage, "success")
	s.logger.Info("stage transition completed", map[string]interface{}{
		"ownerId":      ownerID,
		"projectId":    projectID,
		"fromStage":    fromStage,
		"currentStage": updated.CurrentStage,
		"function":     t.Function,
	})
	return updated, nil
}

func (s *Service) recordAdvance(fromStage int, status string) {
	metrics.StageAdvancesTotal.WithLabelValues(strconv.Itoa(fromStage), status).Inc()
}
