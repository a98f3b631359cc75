package decision

import (
	"errors"

	"free-shipping-lab/internal/analysis"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/quality"
)

// ErrStrategyNotFound is returned when the strategy is not in the analysis.
var ErrStrategyNotFound = errors.New("strategy not found in analysis")

// Builder constructs DecisionInput from the stage outputs of a run.
type Builder struct {
	alpha float64
}

// NewBuilder creates a new decision input builder.
func NewBuilder(alpha float64) *Builder {
	return &Builder{alpha: alpha}
}

// Build creates DecisionInput for the named strategy.
// The effect comes from the single targeted segment when there is one,
// otherwise from the overall test.
func (b *Builder) Build(res *analysis.Analysis, plan *design.Plan, qr *quality.Report, strategy string) (*DecisionInput, error) {
	var s domain.StrategyOutcome
	switch strategy {
	case res.Strategies.Universal.Name:
		s = res.Strategies.Universal
	case res.Strategies.Targeted.Name:
		s = res.Strategies.Targeted
	default:
		return nil, ErrStrategyNotFound
	}

	scope := res.Overall
	if strategy != analysis.StrategyUniversal && len(s.Segments) == 1 {
		if seg := res.Segment(s.Segments[0]); seg != nil {
			scope = seg
		}
	}

	in := &DecisionInput{
		Strategy:        strategy,
		Scope:           scope.Scope,
		EffectPct:       scope.PercentChange,
		PValue:          scope.PValue,
		Alpha:           b.alpha,
		NetImpact:       s.NetImpact.InexactFloat64(),
		ROIPct:          s.ROIPct,
		SimpsonsParadox: res.SimpsonsParadox,
	}
	if plan != nil {
		in.SampleSize = plan.SampleSize
		in.RequiredSample = plan.TotalRequired
	}
	if qr != nil {
		for _, c := range qr.Checks {
			if c.Status == domain.CheckFail {
				in.QualityFailures++
			}
		}
	}
	return in, nil
}
