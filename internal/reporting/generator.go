package reporting

import (
	"context"
	"fmt"
	"math"
	"time"

	"free-shipping-lab/internal/analysis"
	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/loader"
	"free-shipping-lab/internal/metrics"
	"free-shipping-lab/internal/quality"
	"free-shipping-lab/internal/simulation"
	"free-shipping-lab/internal/storage"
)

// Inputs are the in-memory stage outputs a report is built from.
// Test results and aggregates are read back from the stores.
type Inputs struct {
	Run          domain.RunRecord
	GitCommit    string
	Bounds       domain.SegmentBounds
	Threshold    float64
	ResponseRate float64

	Load     *loader.Result
	Quality  *quality.Report
	Plan     *design.Plan
	Balance  design.Balance
	Sim      *simulation.Result
	Analysis *analysis.Analysis
	Decision *decision.DecisionResult
}

// Generator produces reports from stored data.
type Generator struct {
	resultStore storage.ResultStore
	aggregator  *metrics.Aggregator
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore, aggregator *metrics.Aggregator) *Generator {
	return &Generator{
		resultStore: resultStore,
		aggregator:  aggregator,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for in.Run.
func (g *Generator) Generate(ctx context.Context, in Inputs) (*Report, error) {
	if in.Load == nil || in.Plan == nil || in.Sim == nil || in.Analysis == nil {
		return nil, fmt.Errorf("%w: incomplete report inputs", storage.ErrInvalidInput)
	}
	runID := in.Run.RunID

	results, err := g.resultStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load test results: %w", err)
	}
	aggs, err := g.aggregator.ComputeAll(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("aggregate outcomes: %w", err)
	}
	groupMetrics, err := g.aggregator.CompareGroups(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("compare groups: %w", err)
	}

	r := &Report{
		GeneratedAt:     g.now(),
		Run:             in.Run,
		GitCommit:       in.GitCommit,
		Bounds:          in.Bounds,
		Threshold:       in.Threshold,
		ResponseRate:    in.ResponseRate,
		DataSummary:     summarizeData(in.Load),
		Quality:         in.Quality,
		Plan:            in.Plan,
		Balance:         in.Balance,
		Simulation:      in.Sim.Summary,
		GroupMetrics:    groupMetrics,
		Aggregates:      aggs,
		Results:         results,
		Economics:       in.Analysis.Economics,
		Strategies:      in.Analysis.Strategies,
		SimpsonsParadox: in.Analysis.SimpsonsParadox,
		Decision:        in.Decision,
		OrderPrices:     orderPrices(in.Load.Orders),
		Revenue:         revenueByGroup(in.Sim.Outcomes),
	}

	if in.Quality != nil {
		r.Warnings = append(r.Warnings, in.Quality.Warnings...)
	}
	r.Warnings = append(r.Warnings, in.Plan.Warnings...)
	r.Warnings = append(r.Warnings, in.Analysis.Warnings...)
	if !in.Balance.Balanced && !math.IsNaN(in.Balance.PValue) {
		r.Warnings = append(r.Warnings,
			fmt.Sprintf("groups differ before treatment (p=%.4f)", in.Balance.PValue))
	}
	return r, nil
}

// summarizeData computes the data summary of a load.
func summarizeData(res *loader.Result) DataSummary {
	s := DataSummary{
		Orders:            len(res.Orders),
		DuplicateOrderIDs: len(res.DuplicateOrderIDs),
		MissingValues:     res.MissingValues,
	}
	if len(res.Orders) == 0 {
		return s
	}

	delivered := 0
	var total, shipping float64
	s.DateRangeStart = res.Orders[0].PurchasedAt
	s.DateRangeEnd = res.Orders[0].PurchasedAt
	for _, o := range res.Orders {
		if o.Status == domain.StatusDelivered {
			delivered++
		}
		total += o.OrderTotal
		shipping += o.TotalShipping
		if o.PurchasedAt < s.DateRangeStart {
			s.DateRangeStart = o.PurchasedAt
		}
		if o.PurchasedAt > s.DateRangeEnd {
			s.DateRangeEnd = o.PurchasedAt
		}
	}
	n := float64(len(res.Orders))
	s.DeliveredPct = float64(delivered) / n * 100
	s.MeanOrderTotal = total / n
	s.MeanShipping = shipping / n
	return s
}

func orderPrices(orders []*domain.Order) []float64 {
	out := make([]float64, len(orders))
	for i, o := range orders {
		out[i] = o.TotalPrice
	}
	return out
}

func revenueByGroup(outcomes []*domain.SimulatedOutcome) map[domain.Group][]float64 {
	out := make(map[domain.Group][]float64, 2)
	for _, o := range outcomes {
		out[o.Group] = append(out[o.Group], o.FinalRevenue)
	}
	return out
}
