package reporting

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"free-shipping-lab/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Summary is the machine-readable digest written to summary.json.
type Summary struct {
	RunID       string    `json:"run_id"`
	DataVersion string    `json:"data_version"`
	GitCommit   string    `json:"git_commit,omitempty"`
	Seed        uint64    `json:"seed"`
	GeneratedAt time.Time `json:"generated_at"`

	Orders     int  `json:"orders"`
	SampleSize int  `json:"sample_size"`
	Sufficient bool `json:"sufficient_sample"`
	QualityOK  bool `json:"quality_all_pass"`

	Effects         []EffectSummary   `json:"effects"`
	Strategies      []StrategySummary `json:"strategies"`
	Preferred       string            `json:"preferred_strategy"`
	SimpsonsParadox bool              `json:"simpsons_paradox"`
	Decision        string            `json:"decision,omitempty"`
	Warnings        []string          `json:"warnings"`
}

// EffectSummary is the revenue effect in one scope.
type EffectSummary struct {
	Scope         string  `json:"scope"`
	ControlMean   float64 `json:"control_mean"`
	TreatmentMean float64 `json:"treatment_mean"`
	PercentChange float64 `json:"percent_change"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significant"`
}

// StrategySummary is the economics of one rollout strategy.
type StrategySummary struct {
	Name           string   `json:"name"`
	NetImpact      string   `json:"net_impact"`
	ROIPct         *float64 `json:"roi_pct"`
	Recommendation string   `json:"recommendation"`
}

// BuildSummary condenses a report.
func BuildSummary(r *Report) Summary {
	s := Summary{
		RunID:           r.Run.RunID,
		DataVersion:     r.Run.DataVersion,
		GitCommit:       r.GitCommit,
		Seed:            r.Run.Seed,
		GeneratedAt:     r.GeneratedAt,
		Orders:          r.DataSummary.Orders,
		SampleSize:      r.Run.SampleSize,
		Preferred:       r.Strategies.Preferred,
		SimpsonsParadox: r.SimpsonsParadox,
		Warnings:        append([]string{}, r.Warnings...),
		Effects:         []EffectSummary{},
	}
	if r.Plan != nil {
		s.Sufficient = r.Plan.Sufficient
	}
	if r.Quality != nil {
		s.QualityOK = r.Quality.AllPass
	}
	if r.Decision != nil {
		s.Decision = string(r.Decision.Decision)
	}
	for _, t := range r.Results {
		s.Effects = append(s.Effects, EffectSummary{
			Scope:         t.Scope,
			ControlMean:   t.ControlMean,
			TreatmentMean: t.TreatmentMean,
			PercentChange: t.PercentChange,
			PValue:        t.PValue,
			Significant:   t.Significant,
		})
	}
	for _, o := range []domain.StrategyOutcome{r.Strategies.Universal, r.Strategies.Targeted} {
		s.Strategies = append(s.Strategies, StrategySummary{
			Name:           o.Name,
			NetImpact:      o.NetImpact.StringFixed(2),
			ROIPct:         o.ROIPct,
			Recommendation: string(o.Recommendation),
		})
	}
	return s
}

// RenderSummaryJSON renders the summary as indented JSON.
func RenderSummaryJSON(r *Report) ([]byte, error) {
	return json.MarshalIndent(BuildSummary(r), "", "  ")
}
