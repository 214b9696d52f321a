// Package pipeline owns stage navigation and the stage transition registry.
package pipeline

import (
	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/models"
)

// Navigation is the outcome of a stage navigation request.
type Navigation struct {
	Allowed       bool
	RedirectStage int
}

// Resolve applies the gating policy: a stage is reachable only when it has
// been unlocked, i.e. requestedStage <= currentStage. Blocked requests
// redirect to the project's current stage.
func Resolve(requestedStage, currentStage int) (Navigation, error) {
	if requestedStage < models.MinStage || requestedStage > models.MaxStage {
		return Navigation{}, apperrors.NewValidationError(
			"Requested stage is out of range",
			models.StageKey(requestedStage),
		)
	}

	if requestedStage <= currentStage {
		return Navigation{Allowed: true}, nil
	}
	return Navigation{Allowed: false, RedirectStage: currentStage}, nil
}
