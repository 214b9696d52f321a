// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"adstrategy-service/internal/models"
)

// MemoryStore is an in-process Store used by unit tests and local runs
// without a Firestore backend. It mirrors the transactional semantics of
// FirestoreStore: monotonic currentStage and atomic stage-1 mutation.
type MemoryStore struct {
	mu       sync.Mutex
	projects map[string]map[string]*models.Project
	watchers map[string]map[int]chan Snapshot
	nextSub  int
	revision map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]map[string]*models.Project),
		watchers: make(map[string]map[int]chan Snapshot),
		revision: make(map[string]int64),
	}
}

func (s *MemoryStore) ownerProjects(ownerID string) map[string]*models.Project {
	m, ok := s.projects[ownerID]
	if !ok {
		m = make(map[string]*models.Project)
		s.projects[ownerID] = m
	}
	return m
}

// snapshotLocked builds a list snapshot, newest first. Callers hold s.mu.
func (s *MemoryStore) snapshotLocked(ownerID string) []models.Project {
	m := s.projects[ownerID]
	out := make([]models.Project, 0, len(m))
	for _, p := range m {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) notifyLocked(ownerID string) {
	subs := s.watchers[ownerID]
	if len(subs) == 0 {
		return
	}
	s.revision[ownerID]++
	snap := Snapshot{Revision: s.revision[ownerID], Projects: s.snapshotLocked(ownerID)}
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
			// Slow consumer, it will catch up on the next snapshot.
		}
	}
}

func clone(p *models.Project) models.Project {
	cp := *p
	if p.Stage1 != nil {
		s1 := *p.Stage1
		s1.ProductInfo = append([]models.Stage1Item(nil), p.Stage1.ProductInfo...)
		s1.CustomerInfo = append([]models.Stage1Item(nil), p.Stage1.CustomerInfo...)
		s1.CompetitorInfo = append([]models.Stage1Item(nil), p.Stage1.CompetitorInfo...)
		s1.MarketInfo = append([]models.Stage1Item(nil), p.Stage1.MarketInfo...)
		s1.BrandInfo = append([]models.Stage1Item(nil), p.Stage1.BrandInfo...)
		s1.PastData = append([]models.Stage1Item(nil), p.Stage1.PastData...)
		cp.Stage1 = &s1
	}
	if p.Stage2 != nil {
		s2 := *p.Stage2
		cp.Stage2 = &s2
	}
	if p.Stage3 != nil {
		s3 := *p.Stage3
		cp.Stage3 = &s3
	}
	if p.Stage4 != nil {
		s4 := *p.Stage4
		cp.Stage4 = &s4
	}
	return cp
}

func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ownerID), nil
}

func (s *MemoryStore) Watch(ctx context.Context, ownerID string) (<-chan Snapshot, error) {
	s.mu.Lock()
	ch := make(chan Snapshot, 16)
	subs, ok := s.watchers[ownerID]
	if !ok {
		subs = make(map[int]chan Snapshot)
		s.watchers[ownerID] = subs
	}
	id := s.nextSub
	s.nextSub++
	subs[id] = ch

	s.revision[ownerID]++
	ch <- Snapshot{Revision: s.revision[ownerID], Projects: s.snapshotLocked(ownerID)}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[ownerID], id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemoryStore) Create(ctx context.Context, ownerID, name string) (*models.Project, error) {
	now := time.Now().UTC()
	stage1 := models.NewStage1Data()
	p := &models.Project{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         name,
		CurrentStage: models.MinStage,
		Stage1:       &stage1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerProjects(ownerID)[p.ID] = p
	s.notifyLocked(ownerID)

	cp := clone(p)
	return &cp, nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clone(p)
	return &cp, nil
}

func (s *MemoryStore) Rename(ctx context.Context, ownerID, projectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return ErrNotFound
	}
	p.Name = name
	p.UpdatedAt = time.Now().UTC()
	s.notifyLocked(ownerID)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[ownerID][projectID]; !ok {
		return ErrNotFound
	}
	delete(s.projects[ownerID], projectID)
	s.notifyLocked(ownerID)
	return nil
}

func (s *MemoryStore) SaveStage(ctx context.Context, ownerID, projectID string, stage int, payload interface{}, nextStage int) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return nil, ErrNotFound
	}

	switch v := payload.(type) {
	case *models.Stage1Data:
		cp := *v
		p.Stage1 = &cp
	case models.Stage1Data:
		p.Stage1 = &v
	case *models.Stage2Data:
		cp := *v
		p.Stage2 = &cp
	case models.Stage2Data:
		p.Stage2 = &v
	case *models.Stage3Data:
		cp := *v
		p.Stage3 = &cp
	case models.Stage3Data:
		p.Stage3 = &v
	case *models.Stage4Data:
		cp := *v
		p.Stage4 = &cp
	case models.Stage4Data:
		p.Stage4 = &v
	}

	if nextStage > p.CurrentStage {
		p.CurrentStage = nextStage
	}
	p.UpdatedAt = time.Now().UTC()
	s.notifyLocked(ownerID)

	cp := clone(p)
	return &cp, nil
}

func (s *MemoryStore) MutateStage1(ctx context.Context, ownerID, projectID string, fn func(*models.Stage1Data) error) (*models.Stage1Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[ownerID][projectID]
	if !ok {
		return nil, ErrNotFound
	}

	data := models.NewStage1Data()
	if p.Stage1 != nil {
		data = *clone(p).Stage1
	}
	if err := fn(&data); err != nil {
		return nil, err
	}

	p.Stage1 = &data
	p.UpdatedAt = time.Now().UTC()
	s.notifyLocked(ownerID)

	cp := *clone(p).Stage1
	return &cp, nil
}
