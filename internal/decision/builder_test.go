package decision

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"free-shipping-lab/internal/analysis"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/quality"
)

func testAnalysis() *analysis.Analysis {
	roi := 120.0
	return &analysis.Analysis{
		Overall: &domain.TestResult{Scope: domain.ScopeOverall, PercentChange: -0.5, PValue: 0.6},
		Segments: []*domain.TestResult{
			{Scope: string(domain.SegmentSmall), PercentChange: 36, PValue: 0.00001, Significant: true},
		},
		Strategies: domain.StrategyComparison{
			Universal: domain.StrategyOutcome{Name: analysis.StrategyUniversal, NetImpact: decimal.NewFromInt(-900)},
			Targeted: domain.StrategyOutcome{
				Name: analysis.StrategyTargeted, Segments: []domain.Segment{domain.SegmentSmall},
				NetImpact: decimal.NewFromFloat(1200.5), ROIPct: &roi,
			},
			Preferred: analysis.StrategyTargeted,
		},
		SimpsonsParadox: true,
	}
}

func TestBuilder_Build(t *testing.T) {
	plan := &design.Plan{SampleSize: 12560, TotalRequired: 12560}
	qr := &quality.Report{Checks: []domain.QualityCheck{
		{Name: "Independence", Status: domain.CheckPass},
		{Name: "Variability", Status: domain.CheckAcknowledged},
		{Name: "Positive Values", Status: domain.CheckFail},
	}}

	in, err := NewBuilder(0.05).Build(testAnalysis(), plan, qr, analysis.StrategyTargeted)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if in.Scope != string(domain.SegmentSmall) || in.EffectPct != 36 {
		t.Errorf("targeted scope: got %s / %f", in.Scope, in.EffectPct)
	}
	if in.NetImpact != 1200.5 {
		t.Errorf("NetImpact: got %f", in.NetImpact)
	}
	if in.QualityFailures != 1 {
		t.Errorf("QualityFailures: got %d, want 1", in.QualityFailures)
	}
	if in.RequiredSample != 12560 {
		t.Errorf("RequiredSample: got %d", in.RequiredSample)
	}

	in, err = NewBuilder(0.05).Build(testAnalysis(), plan, nil, analysis.StrategyUniversal)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if in.Scope != domain.ScopeOverall {
		t.Errorf("universal scope: got %s", in.Scope)
	}

	result, _ := NewEvaluator().Evaluate(*in)
	if result.Decision != DecisionNOGO {
		t.Errorf("universal decision: got %s, want NO-GO", result.Decision)
	}

	_, err = NewBuilder(0.05).Build(testAnalysis(), plan, nil, "regional")
	if !errors.Is(err, ErrStrategyNotFound) {
		t.Errorf("Expected ErrStrategyNotFound, got %v", err)
	}
}
