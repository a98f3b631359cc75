// Package design sizes the experiment with a two-sample power calculation.
package design

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/stats"
)

// ErrNoOrders is returned when there is nothing to design an experiment on.
var ErrNoOrders = errors.New("no orders to design experiment on")

// Params are the design inputs.
type Params struct {
	Alpha  float64 // two-sided significance level
	Power  float64 // 1 - beta
	MDEPct float64 // minimum detectable effect, percent of baseline mean order_total
	Bounds domain.SegmentBounds
}

// DefaultParams returns alpha 0.05, power 0.80, MDE 5%.
func DefaultParams() Params {
	return Params{Alpha: 0.05, Power: 0.80, MDEPct: 5, Bounds: domain.DefaultSegmentBounds()}
}

// Plan is the experiment design.
type Plan struct {
	Params Params

	BaselineMean float64 // mean order_total
	BaselineStd  float64 // sample std of order_total
	MeanShipping float64
	MDEAbsolute  float64 // BaselineMean * MDEPct / 100
	ZAlpha       float64 // z_{1-alpha/2}
	ZBeta        float64 // z_{power}

	PerGroup      int // required orders per group
	TotalRequired int // 2 * PerGroup
	Available     int
	SampleSize    int  // min(TotalRequired, Available)
	Sufficient    bool // Available >= TotalRequired

	MDEExceedsShipping bool
	SegmentCounts      map[domain.Segment]int // available orders per segment
	Warnings           []string
}

// RequiredSampleSize returns the per-group size of a two-sided two-sample
// z-approximation: ceil(2 (z_{1-alpha/2} + z_{power})^2 sd^2 / delta^2).
func RequiredSampleSize(alpha, power, sd, delta float64) (int, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, fmt.Errorf("alpha must be in (0,1), got %v", alpha)
	}
	if power <= 0 || power >= 1 {
		return 0, fmt.Errorf("power must be in (0,1), got %v", power)
	}
	if delta <= 0 {
		return 0, fmt.Errorf("effect size must be positive, got %v", delta)
	}
	if sd < 0 {
		return 0, fmt.Errorf("standard deviation must be non-negative, got %v", sd)
	}
	z := stats.NormalQuantile(1-alpha/2) + stats.NormalQuantile(power)
	n := 2 * z * z * sd * sd / (delta * delta)
	// tolerate float noise just above an integer
	return int(math.Ceil(n - 1e-9)), nil
}

// Designer computes a Plan from the loaded orders.
type Designer struct {
	params Params
	logger *zap.Logger
}

// NewDesigner creates a designer.
func NewDesigner(params Params, logger *zap.Logger) *Designer {
	return &Designer{params: params, logger: logging.OrNop(logger)}
}

// Design sizes the experiment. An insufficient sample is reported as a
// warning; the plan then uses every available order.
func (d *Designer) Design(orders []*domain.Order) (*Plan, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	if err := d.params.Bounds.Validate(); err != nil {
		return nil, err
	}

	totals := make([]float64, len(orders))
	shipping := make([]float64, len(orders))
	segments := make(map[domain.Segment]int)
	for i, o := range orders {
		totals[i] = o.OrderTotal
		shipping[i] = o.TotalShipping
		segments[o.Segment(d.params.Bounds)]++
	}

	p := &Plan{
		Params:        d.params,
		BaselineMean:  stats.Mean(totals),
		BaselineStd:   stats.StdDev(totals),
		MeanShipping:  stats.Mean(shipping),
		ZAlpha:        stats.NormalQuantile(1 - d.params.Alpha/2),
		ZBeta:         stats.NormalQuantile(d.params.Power),
		Available:     len(orders),
		SegmentCounts: segments,
	}
	p.MDEAbsolute = p.BaselineMean * d.params.MDEPct / 100

	perGroup, err := RequiredSampleSize(d.params.Alpha, d.params.Power, p.BaselineStd, p.MDEAbsolute)
	if err != nil {
		return nil, fmt.Errorf("sample size: %w", err)
	}
	if perGroup < 2 {
		perGroup = 2
	}
	p.PerGroup = perGroup
	p.TotalRequired = 2 * perGroup
	p.Sufficient = p.Available >= p.TotalRequired
	p.SampleSize = min(p.TotalRequired, p.Available)
	p.MDEExceedsShipping = p.MDEAbsolute > p.MeanShipping

	if !p.Sufficient {
		w := fmt.Sprintf("insufficient sample: %d orders available, %d required for power %.2f; proceeding with all orders",
			p.Available, p.TotalRequired, d.params.Power)
		p.Warnings = append(p.Warnings, w)
		d.logger.Warn("experiment underpowered",
			zap.Int("available", p.Available),
			zap.Int("required", p.TotalRequired))
	}
	if n := segments[domain.SegmentUnknown]; n > 0 {
		p.Warnings = append(p.Warnings, fmt.Sprintf("%d orders with non-positive price fall outside every segment", n))
	}

	d.logger.Info("experiment designed",
		zap.Float64("baseline_mean", p.BaselineMean),
		zap.Float64("baseline_std", p.BaselineStd),
		zap.Float64("mde", p.MDEAbsolute),
		zap.Int("per_group", p.PerGroup),
		zap.Int("sample_size", p.SampleSize))
	return p, nil
}
