package metrics

import (
	"context"
	"errors"
	"fmt"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// ErrNoOutcomes is returned when a run has no stored outcomes.
var ErrNoOutcomes = errors.New("no outcomes available for aggregation")

// Compared metric names
const (
	MetricOriginalPrice = "original_price"
	MetricFinalPrice    = "final_price"
	MetricShipping      = "shipping_charged"
	MetricFinalRevenue  = "final_revenue"
)

// GroupMetric compares the mean of one metric between groups.
type GroupMetric struct {
	Metric        string
	Control       float64
	Treatment     float64
	Difference    float64 // Treatment - Control
	PercentChange float64 // Difference / Control * 100, 0 when Control is 0
}

// Aggregator computes revenue aggregates from stored outcomes.
type Aggregator struct {
	outcomeStore storage.OutcomeStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(outcomeStore storage.OutcomeStore) *Aggregator {
	return &Aggregator{outcomeStore: outcomeStore}
}

// ComputeAggregate computes the aggregate for one (scope, group) of a run.
// Returns ErrNoOutcomes if nothing matches.
func (a *Aggregator) ComputeAggregate(ctx context.Context, runID, scope string, group domain.Group) (*Aggregate, error) {
	outcomes, err := a.load(ctx, runID, scope)
	if err != nil {
		return nil, err
	}

	var filtered []*domain.SimulatedOutcome
	for _, o := range outcomes {
		if o.Group == group {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return nil, ErrNoOutcomes
	}

	agg := computeFromOutcomes(filtered)
	agg.RunID = runID
	agg.Scope = scope
	agg.Group = group
	return &agg, nil
}

// ComputeAll computes aggregates for every scope and group of a run:
// overall first, then each segment, control before treatment.
// Cells without outcomes are skipped.
func (a *Aggregator) ComputeAll(ctx context.Context, runID string) ([]*Aggregate, error) {
	scopes := []string{domain.ScopeOverall}
	for _, s := range domain.AllSegments {
		scopes = append(scopes, string(s))
	}

	var result []*Aggregate
	for _, scope := range scopes {
		for _, g := range []domain.Group{domain.GroupControl, domain.GroupTreatment} {
			agg, err := a.ComputeAggregate(ctx, runID, scope, g)
			if err != nil {
				if errors.Is(err, ErrNoOutcomes) {
					continue
				}
				return nil, fmt.Errorf("aggregate %s/%s: %w", scope, g, err)
			}
			result = append(result, agg)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoOutcomes
	}
	return result, nil
}

// CompareGroups compares the mean order economics of control and treatment.
func (a *Aggregator) CompareGroups(ctx context.Context, runID string) ([]GroupMetric, error) {
	outcomes, err := a.outcomeStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, ErrNoOutcomes
	}
	return compareGroups(outcomes), nil
}

func (a *Aggregator) load(ctx context.Context, runID, scope string) ([]*domain.SimulatedOutcome, error) {
	if scope == domain.ScopeOverall {
		return a.outcomeStore.GetByRun(ctx, runID)
	}
	return a.outcomeStore.GetByRunSegment(ctx, runID, domain.Segment(scope))
}

func compareGroups(outcomes []*domain.SimulatedOutcome) []GroupMetric {
	type sums struct {
		n                                  int
		original, final, shipping, revenue float64
	}
	var by [2]sums // 0 control, 1 treatment
	for _, o := range outcomes {
		i := 0
		if o.Group == domain.GroupTreatment {
			i = 1
		}
		by[i].n++
		by[i].original += o.OriginalPrice
		by[i].final += o.FinalPrice
		if !o.ShippingWaived {
			by[i].shipping += o.Shipping
		}
		by[i].revenue += o.FinalRevenue
	}

	mean := func(v float64, n int) float64 {
		if n == 0 {
			return 0
		}
		return v / float64(n)
	}
	metric := func(name string, c, t float64) GroupMetric {
		m := GroupMetric{Metric: name, Control: c, Treatment: t, Difference: t - c}
		if c != 0 {
			m.PercentChange = m.Difference / c * 100
		}
		return m
	}

	c, t := by[0], by[1]
	return []GroupMetric{
		metric(MetricOriginalPrice, mean(c.original, c.n), mean(t.original, t.n)),
		metric(MetricFinalPrice, mean(c.final, c.n), mean(t.final, t.n)),
		metric(MetricShipping, mean(c.shipping, c.n), mean(t.shipping, t.n)),
		metric(MetricFinalRevenue, mean(c.revenue, c.n), mean(t.revenue, t.n)),
	}
}
