package simulation

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
)

// Summary describes what the treatment did to the sampled orders.
type Summary struct {
	ControlN       int
	TreatmentN     int
	Eligible       int // treatment orders below the threshold
	Responders     int
	NonResponders  int // eligible orders that did not respond
	AlreadyAbove   int // treatment orders already at or above the threshold
	ShippingWaived int

	RevenueGained float64 // basket value added by responders
	RevenueLost   float64 // shipping no longer charged
	NetRevenue    float64 // RevenueGained - RevenueLost
}

// Result is the outcome of one simulation.
type Result struct {
	Outcomes []*domain.SimulatedOutcome // in assignment draw order
	Summary  Summary
}

// Simulator applies a response model to an assignment.
type Simulator struct {
	model  ResponseModel
	bounds domain.SegmentBounds
	logger *zap.Logger
}

// NewSimulator creates a simulator. A nil logger disables logging.
func NewSimulator(model ResponseModel, bounds domain.SegmentBounds, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{model: model, bounds: bounds, logger: logger}
}

// Simulate computes one SimulatedOutcome per assigned order.
// Identical (runID, orders, assignment, model) always produce identical output.
func (s *Simulator) Simulate(runID string, orders []*domain.Order, a *domain.Assignment) (*Result, error) {
	if a == nil || len(a.Order) == 0 {
		return nil, ErrEmptySample
	}

	byID := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		byID[o.OrderID] = o
	}

	threshold := s.model.Threshold()

	var eligible []*domain.Order
	for _, id := range a.Order {
		o, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: assigned order %s not in input", ErrInvariant, id)
		}
		if a.Groups[id] == domain.GroupTreatment && o.TotalPrice < threshold {
			eligible = append(eligible, o)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].OrderID < eligible[j].OrderID
	})

	added := s.model.Respond(NewRand(a.Seed, streamResponse), eligible)

	res := &Result{Outcomes: make([]*domain.SimulatedOutcome, 0, len(a.Order))}
	sum := &res.Summary
	sum.Eligible = len(eligible)

	for _, id := range a.Order {
		o := byID[id]
		group := a.Groups[id]

		out := &domain.SimulatedOutcome{
			RunID:           runID,
			OrderID:         id,
			Group:           group,
			Segment:         o.Segment(s.bounds),
			OriginalPrice:   o.TotalPrice,
			Shipping:        o.TotalShipping,
			BelowThreshold:  o.TotalPrice < threshold,
			FinalPrice:      o.TotalPrice,
			BaselineRevenue: o.TotalPrice + o.TotalShipping,
		}

		if group == domain.GroupTreatment {
			sum.TreatmentN++
			if amount, ok := added[id]; ok {
				out.Responded = true
				out.AmountAdded = amount
				out.FinalPrice = o.TotalPrice + amount
				sum.Responders++
				sum.RevenueGained += amount
			} else if !out.BelowThreshold {
				sum.AlreadyAbove++
			}
			out.ShippingWaived = out.FinalPrice >= threshold
		} else {
			sum.ControlN++
		}

		out.FinalRevenue = out.FinalPrice
		if out.ShippingWaived {
			sum.ShippingWaived++
			sum.RevenueLost += o.TotalShipping
		} else {
			out.FinalRevenue += o.TotalShipping
		}
		out.RevenueDelta = out.FinalRevenue - out.BaselineRevenue

		if err := checkOutcome(out, threshold); err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	sum.NonResponders = sum.Eligible - sum.Responders
	sum.NetRevenue = sum.RevenueGained - sum.RevenueLost

	s.logger.Info("treatment simulated",
		zap.String("run_id", runID),
		zap.String("model", s.model.Name()),
		zap.Int("control", sum.ControlN),
		zap.Int("treatment", sum.TreatmentN),
		zap.Int("eligible", sum.Eligible),
		zap.Int("responders", sum.Responders),
		zap.Float64("net_revenue", sum.NetRevenue),
	)

	return res, nil
}

// checkOutcome enforces the per-order guarantees of the simulation.
func checkOutcome(o *domain.SimulatedOutcome, threshold float64) error {
	if math.IsNaN(o.FinalRevenue) || math.IsInf(o.FinalRevenue, 0) {
		return fmt.Errorf("%w: order %s has non-finite revenue", ErrInvariant, o.OrderID)
	}
	if o.Group == domain.GroupControl &&
		(o.FinalPrice != o.OriginalPrice || o.ShippingWaived || o.RevenueDelta != 0) {
		return fmt.Errorf("%w: control order %s was modified", ErrInvariant, o.OrderID)
	}
	if o.Responded && o.FinalPrice < threshold {
		return fmt.Errorf("%w: responder %s ended below threshold (%.2f)", ErrInvariant, o.OrderID, o.FinalPrice)
	}
	return nil
}
