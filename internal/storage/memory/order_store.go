package memory

import (
	"context"
	"sort"
	"sync"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// OrderStore is an in-memory implementation of storage.OrderStore.
type OrderStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Order // keyed by order_id
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		data: make(map[string]*domain.Order),
	}
}

// InsertBulk adds multiple orders atomically. Fails entire batch on any duplicate.
func (s *OrderStore) InsertBulk(_ context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(orders))

	// First pass: check for duplicates (existing + intra-batch)
	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.OrderID] = struct{}{}
	}

	for _, o := range orders {
		orderCopy := *o
		s.data[o.OrderID] = &orderCopy
	}

	return nil
}

// Replace atomically swaps the stored orders for the given set.
func (s *OrderStore) Replace(_ context.Context, orders []*domain.Order) error {
	next := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := next[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		orderCopy := *o
		next[o.OrderID] = &orderCopy
	}

	s.mu.Lock()
	s.data = next
	s.mu.Unlock()
	return nil
}

// GetByID retrieves an order by its ID. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[orderID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	orderCopy := *o
	return &orderCopy, nil
}

// GetAll retrieves all orders, ordered by order_id ASC.
func (s *OrderStore) GetAll(_ context.Context) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0, len(s.data))
	for _, o := range s.data {
		orderCopy := *o
		result = append(result, &orderCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})

	return result, nil
}

// Count returns the number of stored orders.
func (s *OrderStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

var _ storage.OrderStore = (*OrderStore)(nil)
