package memory

import (
	"context"
	"errors"
	"testing"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

func TestOrderStore_InsertAndGet(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	orders := []*domain.Order{
		{OrderID: "o2", CustomerID: "c2", TotalPrice: 120, TotalShipping: 18},
		{OrderID: "o1", CustomerID: "c1", TotalPrice: 45.5, TotalShipping: 12.3},
	}
	if err := store.InsertBulk(ctx, orders); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByID(ctx, "o1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TotalPrice != 45.5 {
		t.Errorf("TotalPrice mismatch: got %f, want %f", got.TotalPrice, 45.5)
	}

	// Returned copies must not alias stored data
	got.TotalPrice = 0
	again, _ := store.GetByID(ctx, "o1")
	if again.TotalPrice != 45.5 {
		t.Errorf("store mutated through returned pointer")
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 || all[0].OrderID != "o1" || all[1].OrderID != "o2" {
		t.Errorf("GetAll not ordered by order_id: %v", all)
	}

	n, _ := store.Count(ctx)
	if n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}

func TestOrderStore_DuplicateKey(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.Order{{OrderID: "o1"}}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// Batch containing an existing key is rejected as a whole
	err := store.InsertBulk(ctx, []*domain.Order{{OrderID: "o2"}, {OrderID: "o1"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "o2"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("partial batch was inserted")
	}

	err = store.InsertBulk(ctx, []*domain.Order{{OrderID: "o3"}, {OrderID: "o3"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestOrderStore_InvalidAndNotFound(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.Order{nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestOrderStore_Replace(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.Order{{OrderID: "o1"}, {OrderID: "o2"}}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.Replace(ctx, []*domain.Order{{OrderID: "o3", TotalPrice: 80}, {OrderID: "o4"}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 2 || all[0].OrderID != "o3" || all[1].OrderID != "o4" {
		t.Errorf("Replace kept old orders: %v", all)
	}

	// Invalid batches leave the current contents alone
	if err := store.Replace(ctx, []*domain.Order{{OrderID: "o5"}, nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if err := store.Replace(ctx, []*domain.Order{{OrderID: "o5"}, {OrderID: "o5"}}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	got, err := store.GetByID(ctx, "o3")
	if err != nil || got.TotalPrice != 80 {
		t.Errorf("rejected Replace changed the store: %v, %v", got, err)
	}
	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}
