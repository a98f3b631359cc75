package decision

import (
	"errors"
	"fmt"
)

// Decision represents the final gate result.
type Decision string

const (
	DecisionGO               Decision = "GO"
	DecisionNOGO             Decision = "NO-GO"
	DecisionInsufficientData Decision = "INSUFFICIENT_DATA"
)

// ErrInvalidInput is returned when DecisionInput fails validation.
var ErrInvalidInput = errors.New("invalid decision input")

// DecisionInput contains the numbers the gate evaluates for one strategy.
type DecisionInput struct {
	Strategy string // strategy under evaluation
	Scope    string // test scope backing the strategy: "overall" or a segment

	// Effect in the strategy scope
	EffectPct float64 // treatment vs control percent change of revenue
	PValue    float64
	Alpha     float64

	// Economics of the strategy
	NetImpact float64
	ROIPct    *float64 // nil when the strategy has no cost base

	// Sample adequacy
	SampleSize     int
	RequiredSample int

	// Context
	QualityFailures int  // data quality checks with FAIL status
	SimpsonsParadox bool // aggregate result hides segment effects
}

// Validate checks that the input can be evaluated.
func (in *DecisionInput) Validate() error {
	if in == nil {
		return fmt.Errorf("%w: nil input", ErrInvalidInput)
	}
	if in.Strategy == "" {
		return fmt.Errorf("%w: empty strategy", ErrInvalidInput)
	}
	if !(in.Alpha > 0 && in.Alpha < 1) {
		return fmt.Errorf("%w: alpha %v outside (0,1)", ErrInvalidInput, in.Alpha)
	}
	if in.PValue < 0 || in.PValue > 1 {
		return fmt.Errorf("%w: p-value %v outside [0,1]", ErrInvalidInput, in.PValue)
	}
	return nil
}

// Check is one evaluated line of the gate checklist. Met reports whether
// the condition holds: a GO criterion passes when met, a NO-GO trigger
// fires when met.
type Check struct {
	Name      string
	Condition string
	Observed  string
	Met       bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Strategy string
	Scope    string
	Decision Decision
	Criteria []Check // all must be met for GO
	Triggers []Check // any met forces NO-GO
}

// Fired returns the triggers that forced a NO-GO.
func (r *DecisionResult) Fired() []Check {
	return filterChecks(r.Triggers, true)
}

// Unmet returns the GO criteria that did not pass.
func (r *DecisionResult) Unmet() []Check {
	return filterChecks(r.Criteria, false)
}

func filterChecks(checks []Check, met bool) []Check {
	var out []Check
	for _, c := range checks {
		if c.Met == met {
			out = append(out, c)
		}
	}
	return out
}
