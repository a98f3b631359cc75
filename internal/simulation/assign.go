package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"free-shipping-lab/internal/domain"
)

// Simulation errors
var (
	ErrEmptySample = errors.New("empty sample: nothing to assign")
	ErrInvariant   = errors.New("simulation invariant violated")
)

// PCG stream selectors. Each random decision draws from its own stream so
// changing one stage does not shift the numbers another stage sees.
const (
	streamAssign   uint64 = 0x61737369676e // "assign"
	streamResponse uint64 = 0x726573706f6e // "respon"
)

// NewRand returns a deterministic generator for (seed, stream).
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// Assign samples sampleSize orders without replacement and splits them into
// control and treatment. The first ceil(n/2) drawn orders go to control.
// Input order does not affect the result: orders are ranked by id first.
func Assign(orders []*domain.Order, sampleSize int, seed uint64) (*domain.Assignment, error) {
	if sampleSize <= 0 || len(orders) == 0 {
		return nil, ErrEmptySample
	}
	if sampleSize > len(orders) {
		return nil, fmt.Errorf("sample size %d exceeds %d available orders", sampleSize, len(orders))
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	sort.Strings(ids)

	rng := NewRand(seed, streamAssign)
	perm := rng.Perm(len(ids))

	a := &domain.Assignment{
		Seed:   seed,
		Groups: make(map[string]domain.Group, sampleSize),
		Order:  make([]string, 0, sampleSize),
	}
	controlN := (sampleSize + 1) / 2
	for i, idx := range perm[:sampleSize] {
		id := ids[idx]
		if _, dup := a.Groups[id]; dup {
			return nil, fmt.Errorf("%w: order %s appears twice in input", ErrInvariant, id)
		}
		g := domain.GroupTreatment
		if i < controlN {
			g = domain.GroupControl
		}
		a.Groups[id] = g
		a.Order = append(a.Order, id)
	}

	return a, nil
}
