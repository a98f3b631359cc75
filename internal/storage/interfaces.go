package storage

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"free-shipping-lab/internal/domain"
)

// OrderStore provides access to orders storage.
type OrderStore interface {
	// InsertBulk adds multiple orders atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, orders []*domain.Order) error

	// Replace atomically swaps the stored orders for the given set.
	Replace(ctx context.Context, orders []*domain.Order) error

	// GetByID retrieves an order by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// GetAll retrieves all orders, ordered by order_id ASC.
	GetAll(ctx context.Context) ([]*domain.Order, error)

	// Count returns the number of stored orders.
	Count(ctx context.Context) (int, error)
}

// OutcomeStore provides access to experiment_outcomes storage.
type OutcomeStore interface {
	// InsertBulk adds multiple outcomes atomically. Fails entire batch on any
	// duplicate (run_id, order_id).
	InsertBulk(ctx context.Context, outcomes []*domain.SimulatedOutcome) error

	// GetByRun retrieves all outcomes of a run, ordered by order_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.SimulatedOutcome, error)

	// GetByRunSegment retrieves outcomes of a run within one segment.
	GetByRunSegment(ctx context.Context, runID string, segment domain.Segment) ([]*domain.SimulatedOutcome, error)

	// GetByRunGroup retrieves outcomes of a run within one group.
	GetByRunGroup(ctx context.Context, runID string, group domain.Group) ([]*domain.SimulatedOutcome, error)
}

// ResultStore provides access to test_results storage.
type ResultStore interface {
	// InsertBulk adds multiple results. Returns ErrDuplicateKey if any (run_id, scope) exists.
	InsertBulk(ctx context.Context, results []*domain.TestResult) error

	// GetByRunScope retrieves one result. Returns ErrNotFound if not exists.
	GetByRunScope(ctx context.Context, runID, scope string) (*domain.TestResult, error)

	// GetByRun retrieves all results of a run, overall first then segments by name.
	GetByRun(ctx context.Context, runID string) ([]*domain.TestResult, error)
}

// RunStore provides access to experiment_runs storage.
type RunStore interface {
	// Upsert inserts or replaces the run record with the same run_id.
	Upsert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetLatest returns the most recently created run. Returns ErrNotFound if none.
	GetLatest(ctx context.Context) (*domain.RunRecord, error)
}
