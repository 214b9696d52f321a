// Package store persists project documents per owner and streams live
// snapshots of an owner's project list.
package store

import (
	"context"
	"errors"

	"adstrategy-service/internal/models"
)

// ErrNotFound is returned when a project document does not exist.
var ErrNotFound = errors.New("project not found")

// Snapshot is one consistent view of an owner's project list. Revisions are
// assigned by the watcher and strictly increase; consumers drop snapshots
// whose revision is not greater than the last one they applied.
type Snapshot struct {
	Revision int64
	Projects []models.Project
}

// Store is the project document store. All operations are scoped to the
// owning user; a projectID never resolves across owners.
type Store interface {
	// List returns the owner's projects, newest first.
	List(ctx context.Context, ownerID string) ([]models.Project, error)

	// Watch streams snapshots of the owner's project list until ctx is
	// cancelled. The first snapshot reflects the current state.
	Watch(ctx context.Context, ownerID string) (<-chan Snapshot, error)

	// Create stores a new project at stage 1 with empty stage-1 lists.
	Create(ctx context.Context, ownerID, name string) (*models.Project, error)

	// Get returns one project or ErrNotFound.
	Get(ctx context.Context, ownerID, projectID string) (*models.Project, error)

	// Rename updates the project name and touches updatedAt.
	Rename(ctx context.Context, ownerID, projectID, name string) error

	// Delete removes the project document. Deleting a missing project
	// returns ErrNotFound.
	Delete(ctx context.Context, ownerID, projectID string) error

	// SaveStage merge-writes one stage payload and touches updatedAt.
	// currentStage is raised to nextStage when nextStage is higher; it is
	// never lowered.
	SaveStage(ctx context.Context, ownerID, projectID string, stage int, payload interface{}, nextStage int) (*models.Project, error)

	// MutateStage1 applies fn to the project's stage-1 data atomically and
	// persists the result. fn runs against the current stored state.
	MutateStage1(ctx context.Context, ownerID, projectID string, fn func(*models.Stage1Data) error) (*models.Stage1Data, error)
}
