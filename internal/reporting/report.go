package reporting

import (
	"time"

	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/metrics"
	"free-shipping-lab/internal/quality"
	"free-shipping-lab/internal/simulation"
)

// Report represents the full experiment read-out of one run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         domain.RunRecord
	GitCommit   string // empty when unknown

	// Parameters
	Bounds       domain.SegmentBounds
	Threshold    float64
	ResponseRate float64

	// Data
	DataSummary DataSummary
	Quality     *quality.Report

	// Design
	Plan    *design.Plan
	Balance design.Balance

	// Simulation
	Simulation   simulation.Summary
	GroupMetrics []metrics.GroupMetric
	Aggregates   []*metrics.Aggregate // overall then segments, control before treatment

	// Analysis (results sorted overall first, then segments by name)
	Results         []*domain.TestResult
	Economics       []domain.SegmentEconomics
	Strategies      domain.StrategyComparison
	SimpsonsParadox bool

	// Decision gate for the preferred strategy
	Decision *decision.DecisionResult

	Warnings []string

	// Raw series for charts
	OrderPrices []float64
	Revenue     map[domain.Group][]float64
}

// DataSummary describes the loaded orders.
type DataSummary struct {
	Orders            int
	DeliveredPct      float64
	MeanOrderTotal    float64
	MeanShipping      float64
	DuplicateOrderIDs int
	MissingValues     int
	DateRangeStart    int64 // Unix ms
	DateRangeEnd      int64 // Unix ms
}

// Overall returns the overall test result, nil if absent.
func (r *Report) Overall() *domain.TestResult {
	for _, t := range r.Results {
		if t.Scope == domain.ScopeOverall {
			return t
		}
	}
	return nil
}

// SegmentResult returns the test result of seg, nil if absent.
func (r *Report) SegmentResult(seg domain.Segment) *domain.TestResult {
	for _, t := range r.Results {
		if t.Scope == string(seg) {
			return t
		}
	}
	return nil
}

// PreferredStrategy returns the outcome of the strategy with the higher net impact.
func (r *Report) PreferredStrategy() domain.StrategyOutcome {
	if r.Strategies.Preferred == r.Strategies.Targeted.Name {
		return r.Strategies.Targeted
	}
	return r.Strategies.Universal
}
