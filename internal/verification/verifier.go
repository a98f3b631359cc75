// Package verification checks that a stored run can be reproduced: it
// compares the stored outcomes and test results of a run against a replay
// of the same run.
package verification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/storage"
)

// FloatTolerance is the absolute tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// ErrRunNotStored is returned when the stored side has no outcomes for the run.
var ErrRunNotStored = errors.New("run has no stored outcomes")

// FieldDivergence is a mismatch between a stored and a replayed value.
type FieldDivergence struct {
	Field    string
	Expected any // stored
	Actual   any // replayed
}

func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored %v, replayed %v", d.Field, d.Expected, d.Actual)
}

// OutcomeDivergence lists the mismatched fields of one order.
type OutcomeDivergence struct {
	OrderID     string
	Divergences []FieldDivergence
}

// ResultDivergence lists the mismatched fields of one test scope.
type ResultDivergence struct {
	Scope       string
	Divergences []FieldDivergence
}

// Report is the outcome of verifying one run.
type Report struct {
	RunID            string
	StoredOutcomes   int
	ReplayedOutcomes int
	MatchedOutcomes  int
	MissingOutcomes  []string // replayed but not stored
	ExtraOutcomes    []string // stored but not replayed
	Outcomes         []OutcomeDivergence
	Results          []ResultDivergence
}

// Match reports whether stored and replayed runs are identical within tolerance.
func (r *Report) Match() bool {
	return len(r.MissingOutcomes) == 0 && len(r.ExtraOutcomes) == 0 &&
		len(r.Outcomes) == 0 && len(r.Results) == 0
}

// Source is one side of a comparison.
type Source struct {
	Outcomes storage.OutcomeStore
	Results  storage.ResultStore
}

// Verifier compares a stored run with its replay.
type Verifier struct {
	stored   Source
	replayed Source
}

// NewVerifier creates a verifier over the stored and replayed stores.
func NewVerifier(stored, replayed Source) *Verifier {
	return &Verifier{stored: stored, replayed: replayed}
}

// VerifyRun compares every outcome and test result of runID.
func (v *Verifier) VerifyRun(ctx context.Context, runID string) (*Report, error) {
	stored, err := v.stored.Outcomes.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load stored outcomes: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrRunNotStored
	}
	replayed, err := v.replayed.Outcomes.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load replayed outcomes: %w", err)
	}

	rep := &Report{RunID: runID, StoredOutcomes: len(stored), ReplayedOutcomes: len(replayed)}
	storedByID := make(map[string]*domain.SimulatedOutcome, len(stored))
	for _, o := range stored {
		storedByID[o.OrderID] = o
	}
	for _, r := range replayed {
		s, ok := storedByID[r.OrderID]
		if !ok {
			rep.MissingOutcomes = append(rep.MissingOutcomes, r.OrderID)
			continue
		}
		delete(storedByID, r.OrderID)
		if divs := CompareOutcomes(s, r); len(divs) > 0 {
			rep.Outcomes = append(rep.Outcomes, OutcomeDivergence{OrderID: r.OrderID, Divergences: divs})
			continue
		}
		rep.MatchedOutcomes++
	}
	for id := range storedByID {
		rep.ExtraOutcomes = append(rep.ExtraOutcomes, id)
	}
	sort.Strings(rep.MissingOutcomes)
	sort.Strings(rep.ExtraOutcomes)

	if err := v.verifyResults(ctx, runID, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (v *Verifier) verifyResults(ctx context.Context, runID string, rep *Report) error {
	stored, err := v.stored.Results.GetByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load stored results: %w", err)
	}
	replayed, err := v.replayed.Results.GetByRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load replayed results: %w", err)
	}

	storedByScope := make(map[string]*domain.TestResult, len(stored))
	for _, r := range stored {
		storedByScope[r.Scope] = r
	}
	for _, r := range replayed {
		s, ok := storedByScope[r.Scope]
		if !ok {
			rep.Results = append(rep.Results, ResultDivergence{
				Scope:       r.Scope,
				Divergences: []FieldDivergence{{Field: "Scope", Expected: nil, Actual: r.Scope}},
			})
			continue
		}
		delete(storedByScope, r.Scope)
		if divs := CompareResults(s, r); len(divs) > 0 {
			rep.Results = append(rep.Results, ResultDivergence{Scope: r.Scope, Divergences: divs})
		}
	}
	extra := make([]string, 0, len(storedByScope))
	for scope := range storedByScope {
		extra = append(extra, scope)
	}
	sort.Strings(extra)
	for _, scope := range extra {
		rep.Results = append(rep.Results, ResultDivergence{
			Scope:       scope,
			Divergences: []FieldDivergence{{Field: "Scope", Expected: scope, Actual: nil}},
		})
	}
	return nil
}

// CompareOutcomes returns the fields where two outcomes of the same order differ.
func CompareOutcomes(stored, replayed *domain.SimulatedOutcome) []FieldDivergence {
	var d differ
	d.exact("RunID", stored.RunID, replayed.RunID)
	d.exact("OrderID", stored.OrderID, replayed.OrderID)
	d.exact("Group", stored.Group, replayed.Group)
	d.exact("Segment", stored.Segment, replayed.Segment)
	d.float("OriginalPrice", stored.OriginalPrice, replayed.OriginalPrice)
	d.float("Shipping", stored.Shipping, replayed.Shipping)
	d.exact("BelowThreshold", stored.BelowThreshold, replayed.BelowThreshold)
	d.exact("Responded", stored.Responded, replayed.Responded)
	d.float("AmountAdded", stored.AmountAdded, replayed.AmountAdded)
	d.float("FinalPrice", stored.FinalPrice, replayed.FinalPrice)
	d.exact("ShippingWaived", stored.ShippingWaived, replayed.ShippingWaived)
	d.float("BaselineRevenue", stored.BaselineRevenue, replayed.BaselineRevenue)
	d.float("FinalRevenue", stored.FinalRevenue, replayed.FinalRevenue)
	d.float("RevenueDelta", stored.RevenueDelta, replayed.RevenueDelta)
	return d.out
}

// CompareResults returns the fields where two test results of the same scope differ.
func CompareResults(stored, replayed *domain.TestResult) []FieldDivergence {
	var d differ
	d.exact("ControlN", stored.ControlN, replayed.ControlN)
	d.exact("TreatmentN", stored.TreatmentN, replayed.TreatmentN)
	d.float("ControlMean", stored.ControlMean, replayed.ControlMean)
	d.float("TreatmentMean", stored.TreatmentMean, replayed.TreatmentMean)
	d.float("ControlStd", stored.ControlStd, replayed.ControlStd)
	d.float("TreatmentStd", stored.TreatmentStd, replayed.TreatmentStd)
	d.float("Difference", stored.Difference, replayed.Difference)
	d.float("PercentChange", stored.PercentChange, replayed.PercentChange)
	d.float("TStatistic", stored.TStatistic, replayed.TStatistic)
	d.float("DF", stored.DF, replayed.DF)
	d.float("PValue", stored.PValue, replayed.PValue)
	d.float("CILow", stored.CILow, replayed.CILow)
	d.float("CIHigh", stored.CIHigh, replayed.CIHigh)
	d.float("CohensD", stored.CohensD, replayed.CohensD)
	d.float("WelchT", stored.WelchT, replayed.WelchT)
	d.float("WelchPValue", stored.WelchPValue, replayed.WelchPValue)
	d.floatPtr("BootstrapCILow", stored.BootstrapCILow, replayed.BootstrapCILow)
	d.floatPtr("BootstrapCIHigh", stored.BootstrapCIHigh, replayed.BootstrapCIHigh)
	d.float("DetectableEffect", stored.DetectableEffect, replayed.DetectableEffect)
	d.exact("Significant", stored.Significant, replayed.Significant)
	return d.out
}

type differ struct {
	out []FieldDivergence
}

func (d *differ) exact(field string, a, b any) {
	if a != b {
		d.out = append(d.out, FieldDivergence{Field: field, Expected: a, Actual: b})
	}
}

func (d *differ) float(field string, a, b float64) {
	if !floatEquals(a, b) {
		d.out = append(d.out, FieldDivergence{Field: field, Expected: a, Actual: b})
	}
}

func (d *differ) floatPtr(field string, a, b *float64) {
	switch {
	case a == nil && b == nil:
	case a == nil || b == nil:
		d.out = append(d.out, FieldDivergence{Field: field, Expected: a, Actual: b})
	default:
		d.float(field, *a, *b)
	}
}

// floatEquals compares within FloatTolerance. NaN equals NaN and infinities
// must match in sign.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= FloatTolerance
}
