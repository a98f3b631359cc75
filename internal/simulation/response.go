package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"free-shipping-lab/internal/domain"
)

// ResponseModel decides how treatment customers react to the free-shipping offer.
type ResponseModel interface {
	// Name identifies the model in reports.
	Name() string

	// Threshold is the basket value that unlocks free shipping.
	Threshold() float64

	// Respond picks responders among eligible orders and returns the amount
	// each one adds, keyed by order id. Eligible orders arrive sorted by id.
	Respond(rng *rand.Rand, eligible []*domain.Order) map[string]float64
}

// ThresholdTopUp is the default response model: a fixed share of eligible
// customers tops the basket up to the threshold plus a uniform extra.
type ThresholdTopUp struct {
	Limit  float64 // free-shipping threshold
	Rate   float64 // share of eligible customers who respond
	MinAdd float64 // extra above the gap, lower bound
	MaxAdd float64 // extra above the gap, upper bound (exclusive)
}

// DefaultThresholdTopUp returns the calibrated defaults: threshold 100,
// 40% response, extra U[15, 35).
func DefaultThresholdTopUp() ThresholdTopUp {
	return ThresholdTopUp{Limit: 100, Rate: 0.40, MinAdd: 15, MaxAdd: 35}
}

// Validate checks the model parameters.
func (m ThresholdTopUp) Validate() error {
	switch {
	case !(m.Limit > 0):
		return fmt.Errorf("threshold must be positive, got %v", m.Limit)
	case m.Rate < 0 || m.Rate > 1 || math.IsNaN(m.Rate):
		return fmt.Errorf("response rate must be in [0,1], got %v", m.Rate)
	case m.MinAdd < 0 || m.MaxAdd < m.MinAdd:
		return fmt.Errorf("invalid top-up range [%v, %v)", m.MinAdd, m.MaxAdd)
	}
	return nil
}

func (m ThresholdTopUp) Name() string       { return "threshold-top-up" }
func (m ThresholdTopUp) Threshold() float64 { return m.Limit }

// Respond selects exactly floor(len(eligible) * Rate) responders.
func (m ThresholdTopUp) Respond(rng *rand.Rand, eligible []*domain.Order) map[string]float64 {
	k := int(math.Floor(float64(len(eligible)) * m.Rate))
	if k == 0 {
		return map[string]float64{}
	}

	chosen := rng.Perm(len(eligible))[:k]
	sort.Ints(chosen)

	added := make(map[string]float64, k)
	for _, idx := range chosen {
		o := eligible[idx]
		gap := math.Max(0, m.Limit-o.TotalPrice)
		added[o.OrderID] = gap + m.MinAdd + rng.Float64()*(m.MaxAdd-m.MinAdd)
	}
	return added
}

var _ ResponseModel = ThresholdTopUp{}
