package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/metrics"
	"free-shipping-lab/internal/simulation"
)

// CSV file names under processed/.
const (
	CSVExperimentDesign   = "experiment_design.csv"
	CSVExperimentResults  = "experiment_results.csv"
	CSVValidationReport   = "validation_report.csv"
	CSVAnalysisResults    = "analysis_results.csv"
	CSVSegmentResults     = "segment_results.csv"
	CSVSegmentEconomics   = "segment_economics.csv"
	CSVStrategyComparison = "strategy_comparison.csv"
)

var testResultColumns = []string{
	"scope", "control_n", "treatment_n", "control_mean", "treatment_mean",
	"control_std", "treatment_std", "difference", "percent_change",
	"t_statistic", "df", "p_value", "ci_low", "ci_high", "cohens_d",
	"welch_t", "welch_p_value", "bootstrap_ci_low", "bootstrap_ci_high",
	"detectable_effect", "significant",
}

// RenderDesignCSV renders the experiment plan and balance as metric,value rows.
func RenderDesignCSV(p *design.Plan, b design.Balance) string {
	rows := [][]string{
		{"alpha", ff(p.Params.Alpha)},
		{"power", ff(p.Params.Power)},
		{"mde_pct", ff(p.Params.MDEPct)},
		{"mde_absolute", ff(p.MDEAbsolute)},
		{"baseline_mean", ff(p.BaselineMean)},
		{"baseline_std", ff(p.BaselineStd)},
		{"mean_shipping", ff(p.MeanShipping)},
		{"z_alpha", ff(p.ZAlpha)},
		{"z_beta", ff(p.ZBeta)},
		{"required_per_group", strconv.Itoa(p.PerGroup)},
		{"required_total", strconv.Itoa(p.TotalRequired)},
		{"available", strconv.Itoa(p.Available)},
		{"sample_size", strconv.Itoa(p.SampleSize)},
		{"sufficient", strconv.FormatBool(p.Sufficient)},
		{"mde_exceeds_shipping", strconv.FormatBool(p.MDEExceedsShipping)},
		{"control_n", strconv.Itoa(b.ControlN)},
		{"treatment_n", strconv.Itoa(b.TreatmentN)},
		{"control_mean_order_total", ff(b.ControlMean)},
		{"treatment_mean_order_total", ff(b.TreatmentMean)},
		{"balance_diff_pct", ff(b.DiffPct)},
		{"balance_p_value", ff(b.PValue)},
		{"balanced", strconv.FormatBool(b.Balanced)},
	}
	for _, seg := range domain.AllSegments {
		rows = append(rows, []string{"available_" + string(seg), strconv.Itoa(p.SegmentCounts[seg])})
	}
	return renderCSV([]string{"metric", "value"}, rows)
}

// RenderExperimentResultsCSV renders the simulation summary followed by the
// group comparison.
func RenderExperimentResultsCSV(s simulation.Summary, groups []metrics.GroupMetric) string {
	rows := [][]string{
		{"control_n", strconv.Itoa(s.ControlN), "", "", ""},
		{"treatment_n", "", strconv.Itoa(s.TreatmentN), "", ""},
		{"eligible", "", strconv.Itoa(s.Eligible), "", ""},
		{"responders", "", strconv.Itoa(s.Responders), "", ""},
		{"non_responders", "", strconv.Itoa(s.NonResponders), "", ""},
		{"already_above_threshold", "", strconv.Itoa(s.AlreadyAbove), "", ""},
		{"shipping_waived", "", strconv.Itoa(s.ShippingWaived), "", ""},
		{"revenue_gained", "", ff(s.RevenueGained), "", ""},
		{"revenue_lost", "", ff(s.RevenueLost), "", ""},
		{"net_revenue", "", ff(s.NetRevenue), "", ""},
	}
	for _, g := range groups {
		rows = append(rows, []string{
			"mean_" + g.Metric, ff(g.Control), ff(g.Treatment), ff(g.Difference), ff(g.PercentChange),
		})
	}
	return renderCSV([]string{"metric", "control", "treatment", "difference", "percent_change"}, rows)
}

// RenderValidationCSV renders the quality checks.
func RenderValidationCSV(checks []domain.QualityCheck) string {
	rows := make([][]string, len(checks))
	for i, c := range checks {
		rows[i] = []string{c.Name, c.Threshold, c.Actual, string(c.Status), c.Details}
	}
	return renderCSV([]string{"check", "threshold", "actual", "status", "details"}, rows)
}

// RenderAnalysisCSV renders the overall test result.
func RenderAnalysisCSV(results []*domain.TestResult) string {
	var rows [][]string
	for _, t := range results {
		if t.Scope == domain.ScopeOverall {
			rows = append(rows, testResultRow(t))
		}
	}
	return renderCSV(testResultColumns, rows)
}

// RenderSegmentResultsCSV renders the per-segment test results.
func RenderSegmentResultsCSV(results []*domain.TestResult) string {
	var rows [][]string
	for _, t := range results {
		if t.Scope != domain.ScopeOverall {
			rows = append(rows, testResultRow(t))
		}
	}
	return renderCSV(testResultColumns, rows)
}

// RenderSegmentEconomicsCSV renders money moved per segment.
func RenderSegmentEconomicsCSV(eco []domain.SegmentEconomics) string {
	rows := make([][]string, len(eco))
	for i, e := range eco {
		rows[i] = []string{
			string(e.Segment),
			strconv.Itoa(e.ControlN),
			strconv.Itoa(e.TreatmentN),
			strconv.Itoa(e.Responders),
			strconv.Itoa(e.ShippingWaivedN),
			e.RevenueGained.StringFixed(2),
			e.ShippingCost.StringFixed(2),
			e.NetImpact.StringFixed(2),
			ff(e.PerCustomerDelta),
		}
	}
	return renderCSV([]string{
		"segment", "control_n", "treatment_n", "responders", "shipping_waived_n",
		"revenue_gained", "shipping_cost", "net_impact", "per_customer_delta",
	}, rows)
}

// RenderStrategyCSV renders universal and targeted rollout economics.
func RenderStrategyCSV(c domain.StrategyComparison) string {
	var rows [][]string
	for _, s := range []domain.StrategyOutcome{c.Universal, c.Targeted} {
		roi := ""
		if s.ROIPct != nil {
			roi = ff(*s.ROIPct)
		}
		rows = append(rows, []string{
			s.Name,
			segmentList(s.Segments),
			strconv.Itoa(s.CustomersAffected),
			s.RevenueGained.StringFixed(2),
			s.ShippingCost.StringFixed(2),
			s.ImplementCost.StringFixed(2),
			s.NetImpact.StringFixed(2),
			roi,
			string(s.Recommendation),
			strconv.FormatBool(s.Name == c.Preferred),
		})
	}
	return renderCSV([]string{
		"strategy", "segments", "customers_affected", "revenue_gained", "shipping_cost",
		"implementation_cost", "net_impact", "roi_pct", "recommendation", "preferred",
	}, rows)
}

func testResultRow(t *domain.TestResult) []string {
	return []string{
		t.Scope,
		strconv.Itoa(t.ControlN),
		strconv.Itoa(t.TreatmentN),
		ff(t.ControlMean),
		ff(t.TreatmentMean),
		ff(t.ControlStd),
		ff(t.TreatmentStd),
		ff(t.Difference),
		ff(t.PercentChange),
		ff(t.TStatistic),
		ff(t.DF),
		ff(t.PValue),
		ff(t.CILow),
		ff(t.CIHigh),
		ff(t.CohensD),
		ff(t.WelchT),
		ff(t.WelchPValue),
		optional(t.BootstrapCILow),
		optional(t.BootstrapCIHigh),
		ff(t.DetectableEffect),
		strconv.FormatBool(t.Significant),
	}
}

func renderCSV(header []string, rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	// Write errors only come from the underlying writer; bytes.Buffer never fails.
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	return buf.String()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return ff(*v)
}
