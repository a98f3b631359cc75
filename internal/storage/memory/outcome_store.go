package memory

import (
	"context"
	"sort"
	"sync"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// OutcomeStore is an in-memory implementation of storage.OutcomeStore.
type OutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulatedOutcome // keyed by run_id|order_id
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{
		data: make(map[string]*domain.SimulatedOutcome),
	}
}

func outcomeKey(runID, orderID string) string {
	return runID + "|" + orderID
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(_ context.Context, outcomes []*domain.SimulatedOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(outcomes))

	for _, o := range outcomes {
		if o == nil || o.RunID == "" || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
		key := outcomeKey(o.RunID, o.OrderID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range outcomes {
		outcomeCopy := *o
		s.data[outcomeKey(o.RunID, o.OrderID)] = &outcomeCopy
	}

	return nil
}

// GetByRun retrieves all outcomes of a run, ordered by order_id ASC.
func (s *OutcomeStore) GetByRun(_ context.Context, runID string) ([]*domain.SimulatedOutcome, error) {
	return s.filter(func(o *domain.SimulatedOutcome) bool {
		return o.RunID == runID
	}), nil
}

// GetByRunSegment retrieves outcomes of a run within one segment.
func (s *OutcomeStore) GetByRunSegment(_ context.Context, runID string, segment domain.Segment) ([]*domain.SimulatedOutcome, error) {
	return s.filter(func(o *domain.SimulatedOutcome) bool {
		return o.RunID == runID && o.Segment == segment
	}), nil
}

// GetByRunGroup retrieves outcomes of a run within one group.
func (s *OutcomeStore) GetByRunGroup(_ context.Context, runID string, group domain.Group) ([]*domain.SimulatedOutcome, error) {
	return s.filter(func(o *domain.SimulatedOutcome) bool {
		return o.RunID == runID && o.Group == group
	}), nil
}

func (s *OutcomeStore) filter(keep func(*domain.SimulatedOutcome) bool) []*domain.SimulatedOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulatedOutcome
	for _, o := range s.data {
		if keep(o) {
			outcomeCopy := *o
			result = append(result, &outcomeCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})

	return result
}

var _ storage.OutcomeStore = (*OutcomeStore)(nil)
