package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
)

var _ tenancy.ImageStore = (*MemoryImageStore)(nil)

// MemoryImageStore keeps images in process memory. Images are lost on
// restart; it serves tests and single-process development setups.
type MemoryImageStore struct {
	mu     sync.RWMutex
	images map[string]tenancy.Image
}

// NewMemoryImageStore creates an empty store
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{images: make(map[string]tenancy.Image)}
}

// Put stores a copy of img for teamID
func (s *MemoryImageStore) Put(_ context.Context, teamID uuid.UUID, img tenancy.Image) (string, error) {
	key := "memory/" + teamID.String()
	img.Data = append([]byte(nil), img.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[key] = img
	return key, nil
}

// Get returns the image stored under key
func (s *MemoryImageStore) Get(_ context.Context, key string) (*tenancy.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &img, nil
}

// Delete removes the image stored under key
func (s *MemoryImageStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, key)
	return nil
}

// Len returns the number of stored images
func (s *MemoryImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
