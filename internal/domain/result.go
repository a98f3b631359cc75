package domain

import "github.com/shopspring/decimal"

// Scope constants for TestResult.
const (
	ScopeOverall = "overall"
)

// TestResult holds the two-sample comparison of final revenue between groups.
// Corresponds to the test_results table.
type TestResult struct {
	RunID string
	Scope string // "overall" or a segment name

	ControlN      int
	TreatmentN    int
	ControlMean   float64
	TreatmentMean float64
	ControlStd    float64
	TreatmentStd  float64

	Difference    float64 // TreatmentMean - ControlMean
	PercentChange float64 // Difference / ControlMean * 100

	TStatistic float64
	DF         float64
	PValue     float64
	CILow      float64 // 95% CI of Difference
	CIHigh     float64
	CohensD    float64

	WelchT      float64
	WelchPValue float64

	BootstrapCILow  *float64 // nil when bootstrap is disabled
	BootstrapCIHigh *float64

	DetectableEffect float64 // smallest difference detectable at target power
	Significant      bool    // PValue < alpha
}

// SegmentEconomics summarizes the money moved by the promotion within one segment.
type SegmentEconomics struct {
	Segment          Segment
	ControlN         int
	TreatmentN       int
	Responders       int
	ShippingWaivedN  int
	RevenueGained    decimal.Decimal // sum of responders' AmountAdded
	ShippingCost     decimal.Decimal // shipping waived on qualifying treatment orders
	NetImpact        decimal.Decimal // RevenueGained - ShippingCost
	PerCustomerDelta float64         // treatment minus control mean revenue
}

// Recommendation is the verdict for a rollout strategy.
type Recommendation string

// Recommendation constants
const (
	RecommendImplement Recommendation = "IMPLEMENT"
	RecommendReject    Recommendation = "REJECT"
)

// StrategyOutcome is the economics of one rollout strategy.
type StrategyOutcome struct {
	Name              string
	Segments          []Segment
	CustomersAffected int
	RevenueGained     decimal.Decimal
	ShippingCost      decimal.Decimal
	ImplementCost     decimal.Decimal
	NetImpact         decimal.Decimal // RevenueGained - ShippingCost - ImplementCost
	ROIPct            *float64        // nil when there is no cost to divide by
	Recommendation    Recommendation
}

// StrategyComparison contrasts universal rollout with a targeted one.
type StrategyComparison struct {
	Universal StrategyOutcome
	Targeted  StrategyOutcome
	Preferred string // name of the better strategy by net impact
}
