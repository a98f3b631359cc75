// Package analysis turns simulated outcomes into hypothesis tests, segment
// economics and a rollout strategy comparison.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/stats"
)

// ErrInsufficientData is returned when a group has fewer than two outcomes.
var ErrInsufficientData = errors.New("insufficient data for analysis")

// streamBootstrap selects the PCG stream used for bootstrap resampling.
const streamBootstrap uint64 = 0x626f6f74 // "boot"

// Params configures the analyzer.
type Params struct {
	Alpha               float64
	Power               float64
	Threshold           float64         // free-shipping threshold used by the simulation
	ImplementationCost  decimal.Decimal // fixed cost charged to each strategy
	BootstrapIterations int             // 0 disables the bootstrap CI
	Seed                uint64
	TargetSegments      []domain.Segment // segments of the targeted strategy
}

// DefaultParams returns alpha 0.05, power 0.80, threshold 100 and a
// small-orders targeted strategy.
func DefaultParams() Params {
	return Params{
		Alpha:          0.05,
		Power:          0.80,
		Threshold:      100,
		TargetSegments: []domain.Segment{domain.SegmentSmall},
	}
}

// Analysis is the full statistical and economic read-out of one run.
type Analysis struct {
	RunID      string
	Overall    *domain.TestResult
	Segments   []*domain.TestResult // in domain.AllSegments order, skipped when too small
	Economics  []domain.SegmentEconomics
	Strategies domain.StrategyComparison

	// SimpsonsParadox is set when the overall effect is not significant, or
	// points the other way, while some segment shows a significant effect.
	SimpsonsParadox bool
	Warnings        []string
}

// Results returns the overall result followed by the segment results.
func (a *Analysis) Results() []*domain.TestResult {
	out := make([]*domain.TestResult, 0, 1+len(a.Segments))
	out = append(out, a.Overall)
	return append(out, a.Segments...)
}

// Segment returns the test result of seg, or nil when it was skipped.
func (a *Analysis) Segment(seg domain.Segment) *domain.TestResult {
	for _, r := range a.Segments {
		if r.Scope == string(seg) {
			return r
		}
	}
	return nil
}

// Analyzer runs the statistical tests.
type Analyzer struct {
	params Params
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil logger disables logging.
func NewAnalyzer(params Params, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{params: params, logger: logger}
}

// Analyze tests FinalRevenue between groups overall and per segment, then
// computes segment economics and the strategy comparison.
func (a *Analyzer) Analyze(runID string, outcomes []*domain.SimulatedOutcome) (*Analysis, error) {
	sorted := make([]*domain.SimulatedOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderID < sorted[j].OrderID
	})

	res := &Analysis{RunID: runID}

	control, treatment := revenues(sorted, nil)
	overall, err := a.TestScope(runID, domain.ScopeOverall, control, treatment)
	if err != nil {
		return nil, fmt.Errorf("overall test: %w", err)
	}
	res.Overall = overall

	for _, seg := range domain.AllSegments {
		c, t := revenues(sorted, &seg)
		r, err := a.TestScope(runID, string(seg), c, t)
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("segment %s skipped: %d control / %d treatment orders", seg, len(c), len(t)))
				continue
			}
			return nil, fmt.Errorf("segment %s test: %w", seg, err)
		}
		res.Segments = append(res.Segments, r)
	}

	res.SimpsonsParadox = simpsons(res.Overall, res.Segments)
	if res.SimpsonsParadox {
		res.Warnings = append(res.Warnings,
			"aggregate effect hides significant segment effects (Simpson's paradox)")
	}

	res.Economics = SegmentEconomicsFor(sorted, a.params.Threshold)
	res.Strategies = CompareStrategies(res.Economics, treatmentCount(sorted), a.params.TargetSegments, a.params.ImplementationCost)

	a.logger.Info("analysis complete",
		zap.String("run_id", runID),
		zap.Float64("overall_pct_change", overall.PercentChange),
		zap.Float64("overall_p", overall.PValue),
		zap.Int("segments_tested", len(res.Segments)),
		zap.Bool("simpsons_paradox", res.SimpsonsParadox),
		zap.String("preferred_strategy", res.Strategies.Preferred),
	)

	return res, nil
}

// TestScope compares treatment against control revenue for one scope.
func (a *Analyzer) TestScope(runID, scope string, control, treatment []float64) (*domain.TestResult, error) {
	if len(control) < 2 || len(treatment) < 2 {
		return nil, ErrInsufficientData
	}

	pooled, err := stats.PooledTTest(treatment, control)
	if err != nil {
		return nil, err
	}
	welch, err := stats.WelchTTest(treatment, control)
	if err != nil {
		return nil, err
	}
	low, high, err := stats.DifferenceCI(treatment, control, 1-a.params.Alpha)
	if err != nil {
		return nil, err
	}

	r := &domain.TestResult{
		RunID:         runID,
		Scope:         scope,
		ControlN:      len(control),
		TreatmentN:    len(treatment),
		ControlMean:   pooled.MeanB,
		TreatmentMean: pooled.MeanA,
		ControlStd:    math.Sqrt(pooled.VarB),
		TreatmentStd:  math.Sqrt(pooled.VarA),
		Difference:    pooled.Difference,
		TStatistic:    pooled.T,
		DF:            pooled.DF,
		PValue:        pooled.P,
		CILow:         low,
		CIHigh:        high,
		CohensD:       stats.CohensD(treatment, control),
		WelchT:        welch.T,
		WelchPValue:   welch.P,
	}
	if r.ControlMean != 0 {
		r.PercentChange = r.Difference / r.ControlMean * 100
	}
	r.Significant = r.PValue < a.params.Alpha
	r.DetectableEffect = DetectableEffect(a.params.Alpha, a.params.Power, stats.PooledSD(treatment, control), len(control))

	if a.params.BootstrapIterations > 0 {
		rng := bootstrapRand(a.params.Seed, scope)
		bl, bh := BootstrapCI(treatment, control, a.params.BootstrapIterations, 1-a.params.Alpha, rng)
		r.BootstrapCILow = &bl
		r.BootstrapCIHigh = &bh
	}

	return r, nil
}

// DetectableEffect is the smallest mean difference a two-sided test at alpha
// detects with the given power, for n orders per group.
func DetectableEffect(alpha, power, sd float64, n int) float64 {
	if n <= 0 {
		return math.Inf(1)
	}
	z := stats.NormalQuantile(1-alpha/2) + stats.NormalQuantile(power)
	return z * sd / math.Sqrt(float64(n)/2)
}

// revenues splits FinalRevenue by group, optionally within one segment.
func revenues(outcomes []*domain.SimulatedOutcome, seg *domain.Segment) (control, treatment []float64) {
	for _, o := range outcomes {
		if seg != nil && o.Segment != *seg {
			continue
		}
		if o.Group == domain.GroupTreatment {
			treatment = append(treatment, o.FinalRevenue)
		} else {
			control = append(control, o.FinalRevenue)
		}
	}
	return control, treatment
}

func treatmentCount(outcomes []*domain.SimulatedOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Group == domain.GroupTreatment {
			n++
		}
	}
	return n
}

func simpsons(overall *domain.TestResult, segments []*domain.TestResult) bool {
	for _, s := range segments {
		if !s.Significant {
			continue
		}
		if !overall.Significant || math.Signbit(s.Difference) != math.Signbit(overall.Difference) {
			return true
		}
	}
	return false
}
