// internal/store/firestore.go
package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/models"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
)

// FirestoreStore keeps project documents at users/{ownerID}/projects/{projectID}.
type FirestoreStore struct {
	client *firestore.Client
	logger logger.Logger
}

func NewFirestoreStore(client *firestore.Client, log logger.Logger) *FirestoreStore {
	return &FirestoreStore{client: client, logger: log}
}

func (s *FirestoreStore) projects(ownerID string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(ownerID).Collection(projectsCollection)
}

func (s *FirestoreStore) doc(ownerID, projectID string) *firestore.DocumentRef {
	return s.projects(ownerID).Doc(projectID)
}

func decodeProject(ds *firestore.DocumentSnapshot, ownerID string) (*models.Project, error) {
	var p models.Project
	if err := ds.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode project %s: %w", ds.Ref.ID, err)
	}
	p.ID = ds.Ref.ID
	p.OwnerID = ownerID
	return &p, nil
}

func (s *FirestoreStore) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	docs, err := s.projects(ownerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]models.Project, 0, len(docs))
	for _, ds := range docs {
		p, err := decodeProject(ds, ownerID)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

// Watch streams list snapshots via Firestore query listeners. Revisions are
// assigned locally in arrival order.
func (s *FirestoreStore) Watch(ctx context.Context, ownerID string) (<-chan Snapshot, error) {
	iter := s.projects(ownerID).
		OrderBy("createdAt", firestore.Desc).
		Snapshots(ctx)

	out := make(chan Snapshot, 1)

	go func() {
		defer close(out)
		defer iter.Stop()

		var revision int64
		for {
			qs, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					s.logger.WithError(err).Warn("project watch terminated", map[string]interface{}{
						"ownerId": ownerID,
					})
				}
				return
			}

			docs, err := qs.Documents.GetAll()
			if err != nil {
				s.logger.WithError(err).Warn("failed to read watch snapshot", map[string]interface{}{
					"ownerId": ownerID,
				})
				continue
			}

			projects := make([]models.Project, 0, len(docs))
			ok := true
			for _, ds := range docs {
				p, err := decodeProject(ds, ownerID)
				if err != nil {
					s.logger.WithError(err).Warn("skipping undecodable snapshot", nil)
					ok = false
					break
				}
				projects = append(projects, *p)
			}
			if !ok {
				continue
			}

			revision++
			select {
			case out <- Snapshot{Revision: revision, Projects: projects}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *FirestoreStore) Create(ctx context.Context, ownerID, name string) (*models.Project, error) {
	now := time.Now().UTC()
	stage1 := models.NewStage1Data()
	project := models.Project{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         name,
		CurrentStage: models.MinStage,
		Stage1:       &stage1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.doc(ownerID, project.ID).Set(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created", map[string]interface{}{
		"ownerId":   ownerID,
		"projectId": project.ID,
	})
	return &project, nil
}

func (s *FirestoreStore) Get(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	ds, err := s.doc(ownerID, projectID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return decodeProject(ds, ownerID)
}

func (s *FirestoreStore) Rename(ctx context.Context, ownerID, projectID, name string) error {
	_, err := s.doc(ownerID, projectID).Update(ctx, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, ownerID, projectID string) error {
	ref := s.doc(ownerID, projectID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check project: %w", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// SaveStage runs in a transaction so currentStage can only move forward even
// under concurrent writers.
func (s *FirestoreStore) SaveStage(ctx context.Context, ownerID, projectID string, stage int, payload interface{}, nextStage int) (*models.Project, error) {
	ref := s.doc(ownerID, projectID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ds, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		p, err := decodeProject(ds, ownerID)
		if err != nil {
			return err
		}

		newStage := p.CurrentStage
		if nextStage > newStage {
			newStage = nextStage
		}

		return tx.Update(ref, []firestore.Update{
			{Path: models.StageKey(stage), Value: payload},
			{Path: "currentStage", Value: newStage},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to save stage: %w", err)
	}

	return s.Get(ctx, ownerID, projectID)
}

func (s *FirestoreStore) MutateStage1(ctx context.Context, ownerID, projectID string, fn func(*models.Stage1Data) error) (*models.Stage1Data, error) {
	ref := s.doc(ownerID, projectID)

	var result models.Stage1Data
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ds, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		p, err := decodeProject(ds, ownerID)
		if err != nil {
			return err
		}

		data := models.NewStage1Data()
		if p.Stage1 != nil {
			data = *p.Stage1
		}
		if err := fn(&data); err != nil {
			return err
		}
		result = data

		return tx.Update(ref, []firestore.Update{
			{Path: "stage1", Value: data},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
