package services

import (
	"context"
	"sort"
	"sync"

	"github.com/devotee-memorial/backend/internal/models"
	"github.com/devotee-memorial/backend/internal/storage"
)

// FileOfferingStore is the offering counterpart of FileProfileStore.
type FileOfferingStore struct {
	mu        sync.RWMutex
	offerings []*models.Offering
	store     *storage.JSONStore
}

func NewFileOfferingStore(store *storage.JSONStore) (*FileOfferingStore, error) {
	s := &FileOfferingStore{store: store}
	if store != nil {
		if err := store.Load(&s.offerings); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func NewMemoryOfferingStore() *FileOfferingStore {
	s, _ := NewFileOfferingStore(nil)
	return s
}

func (s *FileOfferingStore) Create(ctx context.Context, o *models.Offering) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.offerings = append(s.offerings, cloneOffering(o))
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(s.offerings); err != nil {
		s.offerings = s.offerings[:len(s.offerings)-1]
		return err
	}
	return nil
}

func (s *FileOfferingStore) ListByProfile(ctx context.Context, profileID string) ([]*models.Offering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Offering, 0)
	for _, o := range s.offerings {
		if o.ProfileID == profileID {
			out = append(out, cloneOffering(o))
		}
	}
	// Insertion order breaks ties between equal timestamps, newest last in
	// the slice, so reverse it before the stable sort.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneOffering(o *models.Offering) *models.Offering {
	cp := *o
	cp.Images = append([]string{}, o.Images...)
	cp.Audios = append([]string{}, o.Audios...)
	return &cp
}
