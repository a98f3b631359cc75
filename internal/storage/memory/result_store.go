package memory

import (
	"context"
	"sort"
	"sync"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TestResult // keyed by run_id|scope
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		data: make(map[string]*domain.TestResult),
	}
}

func resultKey(runID, scope string) string {
	return runID + "|" + scope
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(_ context.Context, results []*domain.TestResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(results))

	for _, r := range results {
		if r == nil || r.RunID == "" || r.Scope == "" {
			return storage.ErrInvalidInput
		}
		key := resultKey(r.RunID, r.Scope)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range results {
		s.data[resultKey(r.RunID, r.Scope)] = copyResult(r)
	}

	return nil
}

// GetByRunScope retrieves one result. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByRunScope(_ context.Context, runID, scope string) (*domain.TestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[resultKey(runID, scope)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyResult(r), nil
}

// GetByRun retrieves all results of a run, overall first then segments by name.
func (s *ResultStore) GetByRun(_ context.Context, runID string) ([]*domain.TestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TestResult
	for _, r := range s.data {
		if r.RunID == runID {
			result = append(result, copyResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return scopeLess(result[i].Scope, result[j].Scope)
	})

	return result, nil
}

// scopeLess orders "overall" before every segment scope.
func scopeLess(a, b string) bool {
	if a == domain.ScopeOverall || b == domain.ScopeOverall {
		return a == domain.ScopeOverall && b != domain.ScopeOverall
	}
	return a < b
}

func copyResult(r *domain.TestResult) *domain.TestResult {
	c := *r
	if r.BootstrapCILow != nil {
		v := *r.BootstrapCILow
		c.BootstrapCILow = &v
	}
	if r.BootstrapCIHigh != nil {
		v := *r.BootstrapCIHigh
		c.BootstrapCIHigh = &v
	}
	return &c
}

var _ storage.ResultStore = (*ResultStore)(nil)
