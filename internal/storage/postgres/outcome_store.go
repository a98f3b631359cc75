package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// outcomeInsertChunk bounds rows per INSERT statement (14 params per row).
const outcomeInsertChunk = 1000

var outcomeColumns = []string{
	"run_id", "order_id", "grp", "segment",
	"original_price", "shipping", "below_threshold",
	"responded", "amount_added", "final_price", "shipping_waived",
	"baseline_revenue", "final_revenue", "revenue_delta",
}

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *OutcomeStore) InsertBulk(ctx context.Context, outcomes []*domain.SimulatedOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	for _, o := range outcomes {
		if o == nil || o.RunID == "" || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
	}

	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		for start := 0; start < len(outcomes); start += outcomeInsertChunk {
			b := psql.Insert("experiment_outcomes").Columns(outcomeColumns...)
			for _, o := range outcomes[start:min(start+outcomeInsertChunk, len(outcomes))] {
				b = b.Values(
					o.RunID, o.OrderID, string(o.Group), string(o.Segment),
					o.OriginalPrice, o.Shipping, o.BelowThreshold,
					o.Responded, o.AmountAdded, o.FinalPrice, o.ShippingWaived,
					o.BaselineRevenue, o.FinalRevenue, o.RevenueDelta,
				)
			}
			query, args, err := b.ToSql()
			if err != nil {
				return fmt.Errorf("build insert outcomes: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return translate(err, "insert outcomes")
			}
		}
		return nil
	})
}

// GetByRun retrieves all outcomes of a run, ordered by order_id ASC.
func (s *OutcomeStore) GetByRun(ctx context.Context, runID string) ([]*domain.SimulatedOutcome, error) {
	return s.query(ctx, sq.Eq{"run_id": runID})
}

// GetByRunSegment retrieves outcomes of a run within one segment.
func (s *OutcomeStore) GetByRunSegment(ctx context.Context, runID string, segment domain.Segment) ([]*domain.SimulatedOutcome, error) {
	return s.query(ctx, sq.Eq{"run_id": runID, "segment": string(segment)})
}

// GetByRunGroup retrieves outcomes of a run within one group.
func (s *OutcomeStore) GetByRunGroup(ctx context.Context, runID string, group domain.Group) ([]*domain.SimulatedOutcome, error) {
	return s.query(ctx, sq.Eq{"run_id": runID, "grp": string(group)})
}

func (s *OutcomeStore) query(ctx context.Context, where sq.Eq) ([]*domain.SimulatedOutcome, error) {
	query, args, err := psql.Select(outcomeColumns...).
		From("experiment_outcomes").
		Where(where).
		OrderBy("order_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outcomes query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

func scanOutcomes(rows pgx.Rows) ([]*domain.SimulatedOutcome, error) {
	var outcomes []*domain.SimulatedOutcome
	for rows.Next() {
		var (
			o       domain.SimulatedOutcome
			group   string
			segment string
		)
		err := rows.Scan(
			&o.RunID, &o.OrderID, &group, &segment,
			&o.OriginalPrice, &o.Shipping, &o.BelowThreshold,
			&o.Responded, &o.AmountAdded, &o.FinalPrice, &o.ShippingWaived,
			&o.BaselineRevenue, &o.FinalRevenue, &o.RevenueDelta,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Group = domain.Group(group)
		o.Segment = domain.Segment(segment)
		outcomes = append(outcomes, &o)
	}
	return outcomes, rows.Err()
}
