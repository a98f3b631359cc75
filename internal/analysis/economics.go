package analysis

import (
	"github.com/shopspring/decimal"

	"free-shipping-lab/internal/domain"
)

// Strategy names
const (
	StrategyUniversal = "universal"
	StrategyTargeted  = "targeted"
)

var hundred = decimal.NewFromInt(100)

// SegmentEconomicsFor computes the money moved by the offer in each priced
// segment. Shipping cost counts every treatment order whose final basket
// reached the threshold, responders or not.
func SegmentEconomicsFor(outcomes []*domain.SimulatedOutcome, threshold float64) []domain.SegmentEconomics {
	type acc struct {
		eco                  domain.SegmentEconomics
		controlRev, treatRev float64
	}
	bySeg := make(map[domain.Segment]*acc, len(domain.AllSegments))
	for _, s := range domain.AllSegments {
		bySeg[s] = &acc{eco: domain.SegmentEconomics{
			Segment:       s,
			RevenueGained: decimal.Zero,
			ShippingCost:  decimal.Zero,
			NetImpact:     decimal.Zero,
		}}
	}

	for _, o := range outcomes {
		a, ok := bySeg[o.Segment]
		if !ok {
			continue
		}
		if o.Group != domain.GroupTreatment {
			a.eco.ControlN++
			a.controlRev += o.FinalRevenue
			continue
		}
		a.eco.TreatmentN++
		a.treatRev += o.FinalRevenue
		if o.Responded {
			a.eco.Responders++
			a.eco.RevenueGained = a.eco.RevenueGained.Add(decimal.NewFromFloat(o.AmountAdded))
		}
		if o.FinalPrice >= threshold {
			a.eco.ShippingWaivedN++
			a.eco.ShippingCost = a.eco.ShippingCost.Add(decimal.NewFromFloat(o.Shipping))
		}
	}

	out := make([]domain.SegmentEconomics, 0, len(domain.AllSegments))
	for _, s := range domain.AllSegments {
		a := bySeg[s]
		a.eco.NetImpact = a.eco.RevenueGained.Sub(a.eco.ShippingCost)
		if a.eco.ControlN > 0 && a.eco.TreatmentN > 0 {
			a.eco.PerCustomerDelta = a.treatRev/float64(a.eco.TreatmentN) - a.controlRev/float64(a.eco.ControlN)
		}
		out = append(out, a.eco)
	}
	return out
}

// CompareStrategies contrasts rolling the offer out to everyone with
// targeting only the given segments.
func CompareStrategies(eco []domain.SegmentEconomics, treatmentN int, target []domain.Segment, implementCost decimal.Decimal) domain.StrategyComparison {
	universal := buildStrategy(StrategyUniversal, eco, domain.AllSegments, implementCost)
	universal.CustomersAffected = treatmentN

	targeted := buildStrategy(StrategyTargeted, eco, target, implementCost)

	cmp := domain.StrategyComparison{Universal: universal, Targeted: targeted, Preferred: StrategyUniversal}
	if targeted.NetImpact.GreaterThan(universal.NetImpact) {
		cmp.Preferred = StrategyTargeted
	}
	return cmp
}

func buildStrategy(name string, eco []domain.SegmentEconomics, segments []domain.Segment, implementCost decimal.Decimal) domain.StrategyOutcome {
	include := make(map[domain.Segment]bool, len(segments))
	for _, s := range segments {
		include[s] = true
	}

	s := domain.StrategyOutcome{
		Name:          name,
		Segments:      segments,
		RevenueGained: decimal.Zero,
		ShippingCost:  decimal.Zero,
		ImplementCost: implementCost,
	}
	for _, e := range eco {
		if !include[e.Segment] {
			continue
		}
		s.CustomersAffected += e.TreatmentN
		s.RevenueGained = s.RevenueGained.Add(e.RevenueGained)
		s.ShippingCost = s.ShippingCost.Add(e.ShippingCost)
	}
	s.NetImpact = s.RevenueGained.Sub(s.ShippingCost).Sub(implementCost)
	s.ROIPct = roi(s.NetImpact, s.ShippingCost.Add(implementCost))
	s.Recommendation = recommend(s.NetImpact, s.ROIPct)
	return s
}

// roi returns net / cost * 100, nil when there is no cost.
func roi(net, cost decimal.Decimal) *float64 {
	if cost.IsZero() {
		return nil
	}
	v := net.Div(cost).Mul(hundred).InexactFloat64()
	return &v
}

// recommend implements a strategy that makes money. Without a cost base the
// ROI is undefined and the net alone decides.
func recommend(net decimal.Decimal, roiPct *float64) domain.Recommendation {
	if !net.IsPositive() {
		return domain.RecommendReject
	}
	if roiPct != nil && *roiPct <= 0 {
		return domain.RecommendReject
	}
	return domain.RecommendImplement
}
