package metrics

import (
	"sort"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/stats"
)

// Distribution summarizes one numeric column of outcomes.
type Distribution struct {
	N      int
	Mean   float64
	Median float64
	P10    float64
	P25    float64
	P75    float64
	P90    float64
	Min    float64
	Max    float64
	Stddev float64 // sample formula (n-1)
}

// Aggregate is the revenue picture of one (scope, group) cell of a run.
type Aggregate struct {
	RunID string
	Scope string // "overall" or a segment name
	Group domain.Group

	Revenue        Distribution // FinalRevenue
	Delta          Distribution // RevenueDelta
	ResponseRate   float64      // responders / orders below threshold
	WaivedShare    float64      // orders with shipping waived / orders
	TotalRevenue   float64
	TotalDelta     float64
	BelowThreshold int
}

// computeDistribution calculates all distribution metrics of values.
func computeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := stats.Sorted(values)
	return Distribution{
		N:      n,
		Mean:   stats.Mean(values),
		Median: stats.Percentile(sorted, 0.50),
		P10:    stats.Percentile(sorted, 0.10),
		P25:    stats.Percentile(sorted, 0.25),
		P75:    stats.Percentile(sorted, 0.75),
		P90:    stats.Percentile(sorted, 0.90),
		Min:    sorted[0],
		Max:    sorted[n-1],
		Stddev: stats.StdDev(values),
	}
}

// computeFromOutcomes builds the aggregate of one cell.
// Outcomes must be pre-filtered by (scope, group).
// They are sorted by OrderID so float sums do not depend on store order.
func computeFromOutcomes(outcomes []*domain.SimulatedOutcome) Aggregate {
	sorted := make([]*domain.SimulatedOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderID < sorted[j].OrderID
	})

	revenue := make([]float64, len(sorted))
	delta := make([]float64, len(sorted))
	var agg Aggregate
	responders, waived := 0, 0
	for i, o := range sorted {
		revenue[i] = o.FinalRevenue
		delta[i] = o.RevenueDelta
		agg.TotalRevenue += o.FinalRevenue
		agg.TotalDelta += o.RevenueDelta
		if o.BelowThreshold {
			agg.BelowThreshold++
		}
		if o.Responded {
			responders++
		}
		if o.ShippingWaived {
			waived++
		}
	}

	agg.Revenue = computeDistribution(revenue)
	agg.Delta = computeDistribution(delta)
	agg.ResponseRate = ratio(responders, agg.BelowThreshold)
	agg.WaivedShare = ratio(waived, len(sorted))
	return agg
}

// ratio returns num/den, 0 when den is zero.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
