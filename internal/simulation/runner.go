package simulation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// Runner assigns, simulates, and persists one experiment run.
type Runner struct {
	simulator    *Simulator
	outcomeStore storage.OutcomeStore
	logger       *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Model        ResponseModel
	Bounds       domain.SegmentBounds
	OutcomeStore storage.OutcomeStore // optional
	Logger       *zap.Logger
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		simulator:    NewSimulator(opts.Model, opts.Bounds, logger),
		outcomeStore: opts.OutcomeStore,
		logger:       logger,
	}
}

// Run executes a simulation for the given orders.
// Steps:
//  1. Sample and assign sampleSize orders with the seed
//  2. Apply the response model to treatment orders
//  3. Persist outcomes when a store is configured
func (r *Runner) Run(ctx context.Context, runID string, orders []*domain.Order, sampleSize int, seed uint64) (*domain.Assignment, *Result, error) {
	assignment, err := Assign(orders, sampleSize, seed)
	if err != nil {
		return nil, nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	res, err := r.simulator.Simulate(runID, orders, assignment)
	if err != nil {
		return nil, nil, err
	}

	if r.outcomeStore != nil {
		err := r.outcomeStore.InsertBulk(ctx, res.Outcomes)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			// run ids are derived from data and parameters, so stored outcomes are identical
			r.logger.Info("outcomes already stored", zap.String("run_id", runID))
		case err != nil:
			return nil, nil, fmt.Errorf("persist outcomes: %w", err)
		default:
			r.logger.Debug("outcomes persisted", zap.String("run_id", runID), zap.Int("count", len(res.Outcomes)))
		}
	}

	return assignment, res, nil
}
