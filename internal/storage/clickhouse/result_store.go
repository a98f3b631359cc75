package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

const resultColumns = `
	run_id, scope,
	control_n, treatment_n,
	control_mean, treatment_mean, control_std, treatment_std,
	difference, percent_change,
	t_statistic, df, p_value, ci_low, ci_high, cohens_d,
	welch_t, welch_p_value,
	bootstrap_ci_low, bootstrap_ci_high,
	detectable_effect, significant`

// ResultStore implements storage.ResultStore using ClickHouse.
type ResultStore struct {
	conn *Conn
}

// NewResultStore creates a new ResultStore.
func NewResultStore(conn *Conn) *ResultStore {
	return &ResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// InsertBulk adds multiple results. Fails entire batch on any duplicate.
func (s *ResultStore) InsertBulk(ctx context.Context, results []*domain.TestResult) error {
	if len(results) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.RunID == "" || r.Scope == "" {
			return storage.ErrInvalidInput
		}
		key := r.RunID + "|" + r.Scope
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// ReplacingMergeTree would silently replace, so check existing rows first
	for _, r := range results {
		exists, err := s.exists(ctx, r.RunID, r.Scope)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO test_results ("+resultColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			r.RunID, r.Scope,
			uint32(r.ControlN), uint32(r.TreatmentN),
			r.ControlMean, r.TreatmentMean, r.ControlStd, r.TreatmentStd,
			r.Difference, r.PercentChange,
			r.TStatistic, r.DF, r.PValue, r.CILow, r.CIHigh, r.CohensD,
			r.WelchT, r.WelchPValue,
			r.BootstrapCILow, r.BootstrapCIHigh,
			r.DetectableEffect, r.Significant,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunScope retrieves one result. Returns ErrNotFound if not exists.
func (s *ResultStore) GetByRunScope(ctx context.Context, runID, scope string) (*domain.TestResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+resultColumns+`
		FROM test_results FINAL
		WHERE run_id = ? AND scope = ?
		LIMIT 1
	`, runID, scope)
	if err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, storage.ErrNotFound
	}
	return results[0], nil
}

// GetByRun retrieves all results of a run, overall first then segments by name.
func (s *ResultStore) GetByRun(ctx context.Context, runID string) ([]*domain.TestResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+resultColumns+`
		FROM test_results FINAL
		WHERE run_id = ?
		ORDER BY scope != 'overall', scope ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results by run: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (s *ResultStore) exists(ctx context.Context, runID, scope string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM test_results FINAL
		WHERE run_id = ? AND scope = ?
	`, runID, scope).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanResults(rows driver.Rows) ([]*domain.TestResult, error) {
	var results []*domain.TestResult
	for rows.Next() {
		var (
			r          domain.TestResult
			controlN   uint32
			treatmentN uint32
		)
		err := rows.Scan(
			&r.RunID, &r.Scope,
			&controlN, &treatmentN,
			&r.ControlMean, &r.TreatmentMean, &r.ControlStd, &r.TreatmentStd,
			&r.Difference, &r.PercentChange,
			&r.TStatistic, &r.DF, &r.PValue, &r.CILow, &r.CIHigh, &r.CohensD,
			&r.WelchT, &r.WelchPValue,
			&r.BootstrapCILow, &r.BootstrapCIHigh,
			&r.DetectableEffect, &r.Significant,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.ControlN = int(controlN)
		r.TreatmentN = int(treatmentN)
		results = append(results, &r)
	}
	return results, rows.Err()
}
