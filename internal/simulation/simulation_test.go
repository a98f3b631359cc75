package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"pgregory.net/rapid"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage/memory"
	"free-shipping-lab/internal/storage/mocks"
)

func makeOrders(prices ...float64) []*domain.Order {
	orders := make([]*domain.Order, len(prices))
	for i, p := range prices {
		orders[i] = &domain.Order{
			OrderID:       fmt.Sprintf("o%03d", i),
			TotalPrice:    p,
			TotalShipping: 10,
			OrderTotal:    p + 10,
		}
	}
	return orders
}

// manualAssignment puts the listed ids in treatment and the rest in control.
func manualAssignment(orders []*domain.Order, treatment ...string) *domain.Assignment {
	a := &domain.Assignment{Seed: 42, Groups: map[string]domain.Group{}}
	inTreatment := map[string]bool{}
	for _, id := range treatment {
		inTreatment[id] = true
	}
	for _, o := range orders {
		g := domain.GroupControl
		if inTreatment[o.OrderID] {
			g = domain.GroupTreatment
		}
		a.Groups[o.OrderID] = g
		a.Order = append(a.Order, o.OrderID)
	}
	return a
}

func TestAssign_Partition(t *testing.T) {
	orders := makeOrders(10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110)

	a, err := Assign(orders, 7, 42)
	require.NoError(t, err)

	assert.Len(t, a.Order, 7)
	assert.Len(t, a.Groups, 7)
	assert.Equal(t, 4, a.Count(domain.GroupControl), "odd sample gives control the extra order")
	assert.Equal(t, 3, a.Count(domain.GroupTreatment))
	assert.Equal(t, uint64(42), a.Seed)
}

func TestAssign_Errors(t *testing.T) {
	orders := makeOrders(10, 20)

	_, err := Assign(orders, 0, 1)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Assign(nil, 1, 1)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Assign(orders, 3, 1)
	assert.Error(t, err)

	dup := append(makeOrders(10, 20), &domain.Order{OrderID: "o000"})
	_, err = Assign(dup, 3, 1)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestAssign_InputOrderIndependent(t *testing.T) {
	orders := makeOrders(10, 20, 30, 40, 50, 60)
	reversed := make([]*domain.Order, len(orders))
	for i, o := range orders {
		reversed[len(orders)-1-i] = o
	}

	a1, err := Assign(orders, 4, 9)
	require.NoError(t, err)
	a2, err := Assign(reversed, 4, 9)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestProperty_SimulationDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prices := rapid.SliceOfN(rapid.Float64Range(1, 400), 2, 60).Draw(t, "prices")
		seed := rapid.Uint64().Draw(t, "seed")
		n := rapid.IntRange(2, len(prices)).Draw(t, "sample")

		orders := makeOrders(prices...)
		sim := NewSimulator(DefaultThresholdTopUp(), domain.DefaultSegmentBounds(), nil)

		a1, err := Assign(orders, n, seed)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		a2, _ := Assign(orders, n, seed)
		r1, err := sim.Simulate("run", orders, a1)
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}
		r2, _ := sim.Simulate("run", orders, a2)

		if len(r1.Outcomes) != len(r2.Outcomes) {
			t.Fatalf("outcome count differs")
		}
		for i := range r1.Outcomes {
			if *r1.Outcomes[i] != *r2.Outcomes[i] {
				t.Fatalf("outcome %d differs: %+v vs %+v", i, r1.Outcomes[i], r2.Outcomes[i])
			}
		}
		if r1.Summary != r2.Summary {
			t.Fatalf("summary differs")
		}
	})
}

func TestProperty_SimulationInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prices := rapid.SliceOfN(rapid.Float64Range(1, 400), 2, 80).Draw(t, "prices")
		seed := rapid.Uint64().Draw(t, "seed")

		orders := makeOrders(prices...)
		model := DefaultThresholdTopUp()
		a, _ := Assign(orders, len(orders), seed)
		res, err := NewSimulator(model, domain.DefaultSegmentBounds(), nil).Simulate("run", orders, a)
		if err != nil {
			t.Fatalf("simulate: %v", err)
		}

		var net float64
		for _, o := range res.Outcomes {
			if o.Group == domain.GroupControl && o.FinalRevenue != o.BaselineRevenue {
				t.Fatalf("control order %s changed revenue", o.OrderID)
			}
			if o.Responded && o.FinalPrice < model.Limit {
				t.Fatalf("responder %s below threshold", o.OrderID)
			}
			if o.Group == domain.GroupTreatment {
				net += o.RevenueDelta
			}
		}
		if want := int(float64(res.Summary.Eligible) * model.Rate); res.Summary.Responders != want {
			t.Fatalf("responders = %d, want %d", res.Summary.Responders, want)
		}
		if diff := net - res.Summary.NetRevenue; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("net revenue %f != sum of deltas %f", res.Summary.NetRevenue, net)
		}
	})
}

func TestSimulate_RevenueRules(t *testing.T) {
	// o000..o009 below threshold in treatment, o010 above in treatment, o011 control
	prices := []float64{50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 150, 40}
	orders := makeOrders(prices...)
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = orders[i].OrderID
	}
	a := manualAssignment(orders, ids...)

	res, err := NewSimulator(DefaultThresholdTopUp(), domain.DefaultSegmentBounds(), nil).Simulate("r", orders, a)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 1, s.ControlN)
	assert.Equal(t, 11, s.TreatmentN)
	assert.Equal(t, 10, s.Eligible)
	assert.Equal(t, 4, s.Responders, "floor(10 * 0.40)")
	assert.Equal(t, 6, s.NonResponders)
	assert.Equal(t, 1, s.AlreadyAbove)
	assert.Equal(t, 5, s.ShippingWaived, "4 responders + 1 already above")
	assert.InDelta(t, 50.0, s.RevenueLost, 1e-9)

	for _, o := range res.Outcomes {
		switch {
		case o.Group == domain.GroupControl:
			assert.Equal(t, 50.0, o.FinalRevenue)
			assert.Equal(t, domain.SegmentSmall, o.Segment)
		case o.OrderID == "o010":
			assert.False(t, o.Responded)
			assert.True(t, o.ShippingWaived)
			assert.Equal(t, 150.0, o.FinalRevenue)
			assert.Equal(t, -10.0, o.RevenueDelta)
		case o.Responded:
			assert.GreaterOrEqual(t, o.AmountAdded, 100-o.OriginalPrice+15)
			assert.Less(t, o.AmountAdded, 100-o.OriginalPrice+35)
			assert.Equal(t, o.FinalPrice, o.FinalRevenue)
			assert.InDelta(t, o.AmountAdded-10, o.RevenueDelta, 1e-9)
		default:
			assert.False(t, o.ShippingWaived)
			assert.Equal(t, 0.0, o.RevenueDelta)
		}
	}
}

func TestSimulate_Errors(t *testing.T) {
	sim := NewSimulator(DefaultThresholdTopUp(), domain.DefaultSegmentBounds(), nil)

	_, err := sim.Simulate("r", nil, &domain.Assignment{})
	assert.ErrorIs(t, err, ErrEmptySample)

	orders := makeOrders(10)
	a := manualAssignment(makeOrders(10, 20))
	_, err = sim.Simulate("r", orders, a)
	assert.ErrorIs(t, err, ErrInvariant)
}

// shortTopUp lets responders stop below the threshold.
type shortTopUp struct{ ThresholdTopUp }

func (m shortTopUp) Respond(_ *rand.Rand, eligible []*domain.Order) map[string]float64 {
	out := map[string]float64{}
	for _, o := range eligible {
		out[o.OrderID] = 1
	}
	return out
}

func TestSimulate_RejectsResponderBelowThreshold(t *testing.T) {
	orders := makeOrders(50)
	a := manualAssignment(orders, "o000")

	_, err := NewSimulator(shortTopUp{DefaultThresholdTopUp()}, domain.DefaultSegmentBounds(), nil).Simulate("r", orders, a)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestThresholdTopUp_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholdTopUp().Validate())
	assert.Error(t, ThresholdTopUp{Limit: 0, Rate: 0.4, MinAdd: 15, MaxAdd: 35}.Validate())
	assert.Error(t, ThresholdTopUp{Limit: 100, Rate: 1.4, MinAdd: 15, MaxAdd: 35}.Validate())
	assert.Error(t, ThresholdTopUp{Limit: 100, Rate: 0.4, MinAdd: 35, MaxAdd: 15}.Validate())
}

func TestRunner_PersistsOutcomes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOutcomeStore()
	runner := NewRunner(RunnerOptions{
		Model:        DefaultThresholdTopUp(),
		Bounds:       domain.DefaultSegmentBounds(),
		OutcomeStore: store,
	})

	orders := makeOrders(30, 60, 90, 120, 150, 180, 210, 240)
	a, res, err := runner.Run(ctx, "run-1", orders, 6, 7)
	require.NoError(t, err)
	assert.Len(t, a.Order, 6)

	stored, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, stored, len(res.Outcomes))

	// Re-running the same id keeps the stored outcomes
	_, again, err := runner.Run(ctx, "run-1", orders, 6, 7)
	require.NoError(t, err)
	assert.Equal(t, res.Outcomes, again.Outcomes)
	stored, err = store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, stored, len(res.Outcomes))
}

func TestRunner_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection reset")
	store := mocks.NewMockOutcomeStore(ctrl)
	store.EXPECT().InsertBulk(gomock.Any(), gomock.Len(4)).Return(boom)

	runner := NewRunner(RunnerOptions{
		Model:        DefaultThresholdTopUp(),
		Bounds:       domain.DefaultSegmentBounds(),
		OutcomeStore: store,
	})

	_, _, err := runner.Run(context.Background(), "r", makeOrders(10, 20, 30, 40), 4, 1)
	assert.ErrorIs(t, err, boom)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(RunnerOptions{Model: DefaultThresholdTopUp(), Bounds: domain.DefaultSegmentBounds()})
	_, _, err := runner.Run(ctx, "r", makeOrders(10, 20), 2, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
