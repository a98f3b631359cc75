package decision

import (
	"fmt"
	"strconv"

	"free-shipping-lab/internal/domain"
)

// rule is one line of the gate checklist.
type rule struct {
	name      string
	condition func(DecisionInput) string
	observe   func(DecisionInput) string
	holds     func(DecisionInput) bool
}

func (r rule) check(in DecisionInput) Check {
	return Check{
		Name:      r.name,
		Condition: r.condition(in),
		Observed:  r.observe(in),
		Met:       r.holds(in),
	}
}

func fixed(s string) func(DecisionInput) string {
	return func(DecisionInput) string { return s }
}

func effectCondition(sign string) func(DecisionInput) string {
	return func(in DecisionInput) string {
		return fmt.Sprintf("p < %.2f AND effect %s 0", in.Alpha, sign)
	}
}

func observeEffect(in DecisionInput) string {
	return fmt.Sprintf("p=%s, effect=%+.2f%%", formatP(in.PValue), in.EffectPct)
}

func observeNet(in DecisionInput) string {
	return fmt.Sprintf("%.2f", in.NetImpact)
}

func significant(in DecisionInput) bool {
	return in.PValue < in.Alpha
}

var goRules = []rule{
	{
		name:      "Significant positive effect",
		condition: effectCondition(">"),
		observe:   observeEffect,
		holds:     func(in DecisionInput) bool { return significant(in) && in.EffectPct > 0 },
	},
	{
		name:      "Positive net profit",
		condition: fixed("> 0"),
		observe:   observeNet,
		holds:     func(in DecisionInput) bool { return in.NetImpact > 0 },
	},
	{
		// Without a cost base the net decides.
		name:      "Positive ROI",
		condition: fixed("> 0%"),
		observe: func(in DecisionInput) string {
			if in.ROIPct == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.2f%%", *in.ROIPct)
		},
		holds: func(in DecisionInput) bool {
			if in.ROIPct == nil {
				return in.NetImpact > 0
			}
			return *in.ROIPct > 0
		},
	},
	{
		name:      "Adequate sample",
		condition: func(in DecisionInput) string { return ">= " + strconv.Itoa(in.RequiredSample) },
		observe:   func(in DecisionInput) string { return strconv.Itoa(in.SampleSize) },
		holds:     sampleAdequate,
	},
}

var nogoRules = []rule{
	{
		name:      "Significant revenue loss",
		condition: effectCondition("<"),
		observe:   observeEffect,
		holds:     func(in DecisionInput) bool { return significant(in) && in.EffectPct < 0 },
	},
	{
		name:      "Net loss",
		condition: fixed("< 0"),
		observe:   observeNet,
		holds:     func(in DecisionInput) bool { return in.NetImpact < 0 },
	},
	{
		name:      "Data quality failure",
		condition: fixed("failed checks > 0"),
		observe:   func(in DecisionInput) string { return strconv.Itoa(in.QualityFailures) },
		holds:     func(in DecisionInput) bool { return in.QualityFailures > 0 },
	},
	{
		// A universal rollout judged on an aggregate that hides segment effects.
		name:      "Aggregate masks segment effects",
		condition: fixed("overall scope AND Simpson's paradox"),
		observe: func(in DecisionInput) string {
			return fmt.Sprintf("scope=%s, paradox=%t", in.Scope, in.SimpsonsParadox)
		},
		holds: func(in DecisionInput) bool {
			return in.Scope == domain.ScopeOverall && in.SimpsonsParadox
		},
	},
}

func sampleAdequate(in DecisionInput) bool {
	return in.SampleSize >= in.RequiredSample
}

// Evaluator applies the GO / NO-GO checklist.
type Evaluator struct {
	criteria []rule
	triggers []rule
}

// NewEvaluator creates an evaluator with the standard checklist.
func NewEvaluator() *Evaluator {
	return &Evaluator{criteria: goRules, triggers: nogoRules}
}

// Evaluate produces DecisionResult from DecisionInput.
// Any fired trigger means NO-GO; all criteria met means GO. Otherwise the
// result is INSUFFICIENT_DATA when the sample is short and NO-GO when not.
func (e *Evaluator) Evaluate(input DecisionInput) (*DecisionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	res := &DecisionResult{
		Strategy: input.Strategy,
		Scope:    input.Scope,
		Criteria: make([]Check, len(e.criteria)),
		Triggers: make([]Check, len(e.triggers)),
	}
	for i, r := range e.criteria {
		res.Criteria[i] = r.check(input)
	}
	for i, r := range e.triggers {
		res.Triggers[i] = r.check(input)
	}

	switch {
	case len(res.Fired()) > 0:
		res.Decision = DecisionNOGO
	case len(res.Unmet()) == 0:
		res.Decision = DecisionGO
	case !sampleAdequate(input):
		res.Decision = DecisionInsufficientData
	default:
		res.Decision = DecisionNOGO
	}
	return res, nil
}

func formatP(p float64) string {
	if p < 0.0001 {
		return "<0.0001"
	}
	return strconv.FormatFloat(p, 'f', 4, 64)
}
