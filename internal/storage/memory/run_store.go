package memory

import (
	"context"
	"sync"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunRecord // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunRecord),
	}
}

// Upsert inserts or replaces the run record with the same run_id.
func (s *RunStore) Upsert(_ context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCopy := *r
	s.data[r.RunID] = &runCopy
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	runCopy := *r
	return &runCopy, nil
}

// GetLatest returns the most recently created run. Ties break on run_id.
func (s *RunStore) GetLatest(_ context.Context) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RunRecord
	for _, r := range s.data {
		if latest == nil || r.CreatedAt > latest.CreatedAt ||
			(r.CreatedAt == latest.CreatedAt && r.RunID > latest.RunID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	runCopy := *latest
	return &runCopy, nil
}

var _ storage.RunStore = (*RunStore)(nil)
