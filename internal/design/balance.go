package design

import (
	"math"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/stats"
)

// Balance compares groups on order_total before any treatment is applied.
type Balance struct {
	ControlN      int
	TreatmentN    int
	ControlMean   float64
	TreatmentMean float64
	DiffPct       float64 // (treatment - control) / control * 100
	PValue        float64 // Welch test, NaN when a group has fewer than two orders
	Balanced      bool    // PValue >= alpha
}

// CheckBalance runs the pre-treatment comparison for an assignment.
func CheckBalance(orders []*domain.Order, a *domain.Assignment, alpha float64) Balance {
	var control, treatment []float64
	for _, o := range orders {
		g, ok := a.Group(o.OrderID)
		if !ok {
			continue
		}
		if g == domain.GroupControl {
			control = append(control, o.OrderTotal)
		} else {
			treatment = append(treatment, o.OrderTotal)
		}
	}

	b := Balance{
		ControlN:      len(control),
		TreatmentN:    len(treatment),
		ControlMean:   stats.Mean(control),
		TreatmentMean: stats.Mean(treatment),
		PValue:        math.NaN(),
	}
	if b.ControlMean != 0 {
		b.DiffPct = (b.TreatmentMean - b.ControlMean) / b.ControlMean * 100
	}
	if r, err := stats.WelchTTest(treatment, control); err == nil {
		b.PValue = r.P
		b.Balanced = r.P >= alpha
	}
	return b
}
