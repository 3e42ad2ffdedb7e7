package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/storage"
)

// FileProfileStore keeps profiles in memory and, when a JSONStore is given,
// snapshots them to disk after every write. It serves local development
// without MongoDB and the test suites.
type FileProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	store    *storage.JSONStore
}

func NewFileProfileStore(store *storage.JSONStore) (*FileProfileStore, error) {
	s := &FileProfileStore{
		profiles: make(map[string]*models.Profile),
		store:    store,
	}
	if store != nil {
		var list []*models.Profile
		if err := store.Load(&list); err != nil {
			return nil, err
		}
		for _, p := range list {
			s.profiles[p.ID] = p
		}
	}
	return s, nil
}

func NewMemoryProfileStore() *FileProfileStore {
	s, _ := NewFileProfileStore(nil)
	return s
}

func (s *FileProfileStore) Create(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneProfile(p)
	s.profiles[p.ID] = cp
	if err := s.persist(); err != nil {
		delete(s.profiles, p.ID)
		return err
	}
	return nil
}

func (s *FileProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (s *FileProfileStore) ListByStatus(ctx context.Context, status models.ProfileStatus) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Profile, 0)
	for _, p := range s.profiles {
		if p.Status == status {
			out = append(out, cloneProfile(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileProfileStore) UpdateStatus(ctx context.Context, id string, status models.ProfileStatus) (*models.Profile, error) {
	return s.mutate(id, func(p *models.Profile) {
		p.Status = status
	})
}

func (s *FileProfileStore) AppendAchievement(ctx context.Context, id string, achievement string) (*models.Profile, error) {
	return s.mutate(id, func(p *models.Profile) {
		p.KeyAchievements = append(p.KeyAchievements, achievement)
	})
}

func (s *FileProfileStore) AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) (*models.Profile, error) {
	return s.mutate(id, func(p *models.Profile) {
		p.Timeline = append(p.Timeline, entry)
	})
}

func (s *FileProfileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, id)
	if err := s.persist(); err != nil {
		s.profiles[id] = p
		return err
	}
	return nil
}

// mutate applies fn under the write lock, so appends never lose updates.
func (s *FileProfileStore) mutate(id string, fn func(p *models.Profile)) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	next := cloneProfile(current)
	fn(next)
	next.UpdatedAt = time.Now().UTC()

	s.profiles[id] = next
	if err := s.persist(); err != nil {
		s.profiles[id] = current
		return nil, err
	}
	return cloneProfile(next), nil
}

func (s *FileProfileStore) persist() error {
	if s.store == nil {
		return nil
	}
	list := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return s.store.Save(list)
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.CoreServices = append([]string(nil), p.CoreServices...)
	cp.AudioFiles = append([]string(nil), p.AudioFiles...)
	cp.KeyAchievements = append([]string(nil), p.KeyAchievements...)
	cp.Timeline = append([]models.TimelineEntry(nil), p.Timeline...)
	cp.EnsureLists()
	return &cp
}
