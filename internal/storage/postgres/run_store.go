package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// RunStore is a PostgreSQL implementation of storage.RunStore.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new PostgreSQL run store.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Upsert inserts the run or replaces the row with the same run_id.
func (s *RunStore) Upsert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO experiment_runs (
			run_id, data_version, seed, orders, sample_size,
			decision, strategy, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (run_id) DO UPDATE
		SET data_version = EXCLUDED.data_version,
		    seed = EXCLUDED.seed,
		    orders = EXCLUDED.orders,
		    sample_size = EXCLUDED.sample_size,
		    decision = EXCLUDED.decision,
		    strategy = EXCLUDED.strategy,
		    created_at = EXCLUDED.created_at,
		    updated_at = NOW()
	`, r.RunID, r.DataVersion, int64(r.Seed), r.Orders, r.SampleSize,
		r.Decision, r.Strategy, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, data_version, seed, orders, sample_size, decision, strategy, created_at
		FROM experiment_runs
		WHERE run_id = $1
	`, runID)
	return scanRun(row)
}

// GetLatest returns the most recently created run. Returns ErrNotFound if none.
func (s *RunStore) GetLatest(ctx context.Context) (*domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, data_version, seed, orders, sample_size, decision, strategy, created_at
		FROM experiment_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`)
	return scanRun(row)
}

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var (
		r    domain.RunRecord
		seed int64
	)
	err := row.Scan(&r.RunID, &r.DataVersion, &seed, &r.Orders, &r.SampleSize,
		&r.Decision, &r.Strategy, &r.CreatedAt)
	if err != nil {
		return nil, translate(err, "scan run")
	}
	r.Seed = uint64(seed)
	return &r, nil
}
