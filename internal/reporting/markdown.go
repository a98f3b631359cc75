package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"free-shipping-lab/internal/domain"
)

// Chart file names under figures/.
const (
	ChartPriceDistribution = "price_distribution.png"
	ChartGroupSizes        = "group_sizes.png"
	ChartRevenueByGroup    = "revenue_by_group.png"
	ChartSegmentEffects    = "segment_effects.png"
	ChartStrategyNet       = "strategy_net_impact.png"
	ChartStrategyROI       = "strategy_roi.png"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Free Shipping Threshold Experiment Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Data version: `%s` | Seed: %d", r.Run.RunID, r.Run.DataVersion, r.Run.Seed))
	if r.GitCommit != "" {
		sb.WriteString(fmt.Sprintf(" | Commit: `%s`", r.GitCommit))
	}
	sb.WriteString("\n\n")

	writeExecutiveSummary(&sb, r)
	writeDataSection(&sb, r)
	writeDesignSection(&sb, r)
	writeSimulationSection(&sb, r)
	writeResultsSection(&sb, r)
	writeEconomicsSection(&sb, r)

	// Warnings
	sb.WriteString("## Warnings\n\n")
	if len(r.Warnings) > 0 {
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	} else {
		sb.WriteString("None.\n")
	}
	sb.WriteString("\n")

	// Figures
	sb.WriteString("## Figures\n\n")
	for _, f := range []string{
		ChartPriceDistribution, ChartGroupSizes, ChartRevenueByGroup,
		ChartSegmentEffects, ChartStrategyNet, ChartStrategyROI,
	} {
		sb.WriteString(fmt.Sprintf("![%s](figures/%s)\n", strings.TrimSuffix(f, ".png"), f))
	}
	sb.WriteString("\n")

	return sb.String()
}

func writeExecutiveSummary(sb *strings.Builder, r *Report) {
	sb.WriteString("## Executive Summary\n\n")
	pref := r.PreferredStrategy()
	sb.WriteString(fmt.Sprintf("Offering free shipping above $%.0f was simulated on %d orders (response rate %.0f%%).\n\n",
		r.Threshold, r.Run.SampleSize, r.ResponseRate*100))

	if o := r.Overall(); o != nil {
		sb.WriteString(fmt.Sprintf("- Overall revenue per order: %+.2f%% (p=%s, %s)\n",
			o.PercentChange, formatP(o.PValue), significance(o.Significant)))
	}
	for _, seg := range domain.AllSegments {
		if t := r.SegmentResult(seg); t != nil {
			sb.WriteString(fmt.Sprintf("- %s orders (%s): %+.2f%% (p=%s, %s)\n",
				seg.Label(), r.Bounds.Describe(seg), t.PercentChange, formatP(t.PValue), significance(t.Significant)))
		}
	}
	if r.SimpsonsParadox {
		sb.WriteString("- The aggregate result hides segment effects (Simpson's paradox); decide per segment.\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("**Recommendation: %s %s rollout** (net impact $%s, ROI %s).\n\n",
		pref.Recommendation, pref.Name, pref.NetImpact.StringFixed(2), formatROI(pref.ROIPct)))
	if r.Decision != nil {
		sb.WriteString(fmt.Sprintf("Decision gate: **%s** (see DECISION_GATE_REPORT.md).\n\n", r.Decision.Decision))
	}
}

func writeDataSection(sb *strings.Builder, r *Report) {
	d := r.DataSummary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Orders | %d |\n", d.Orders))
	sb.WriteString(fmt.Sprintf("| Delivered | %.1f%% |\n", d.DeliveredPct))
	sb.WriteString(fmt.Sprintf("| Mean Order Total | $%.2f |\n", d.MeanOrderTotal))
	sb.WriteString(fmt.Sprintf("| Mean Shipping | $%.2f |\n", d.MeanShipping))
	sb.WriteString(fmt.Sprintf("| Duplicate Order IDs | %d |\n", d.DuplicateOrderIDs))
	sb.WriteString(fmt.Sprintf("| Rows With Missing Values | %d |\n", d.MissingValues))
	if d.Orders > 0 {
		sb.WriteString(fmt.Sprintf("| Date Range | %s to %s |\n", formatDate(d.DateRangeStart), formatDate(d.DateRangeEnd)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Data Quality\n\n")
	if r.Quality == nil || len(r.Quality.Checks) == 0 {
		sb.WriteString("No data quality checks performed.\n\n")
		return
	}
	sb.WriteString("| Check | Threshold | Actual | Status | Details |\n")
	sb.WriteString("|-------|-----------|--------|--------|---------|\n")
	for _, c := range r.Quality.Checks {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			c.Name, c.Threshold, c.Actual, c.Status, c.Details))
	}
	sb.WriteString("\n")
	if r.Quality.AllPass {
		sb.WriteString("**All checks passed.**\n\n")
	} else {
		sb.WriteString("**Some checks failed.** Results below carry that caveat.\n\n")
	}

	if len(r.Quality.Segments) > 0 {
		sb.WriteString("### Segment Profiles\n\n")
		sb.WriteString("| Segment | Range | N | Mean | Std | Skew | IQR Outliers | Z Outliers | Mean Shipping | Below Threshold |\n")
		sb.WriteString("|---------|-------|---|------|-----|------|--------------|------------|---------------|-----------------|\n")
		for _, p := range r.Quality.Segments {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f | %.2f | %.2f | %d | %d | %.2f | %d |\n",
				p.Segment.Label(), r.Bounds.Describe(p.Segment), p.N, p.Mean, p.StdDev, p.Skewness,
				p.IQROutliers, p.ZScoreOutliers, p.MeanShipping, p.BelowThreshold))
		}
		sb.WriteString("\n")
	}
}

func writeDesignSection(sb *strings.Builder, r *Report) {
	p := r.Plan
	sb.WriteString("## Experiment Design\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Alpha | %.2f |\n", p.Params.Alpha))
	sb.WriteString(fmt.Sprintf("| Power | %.2f |\n", p.Params.Power))
	sb.WriteString(fmt.Sprintf("| MDE | %.1f%% ($%.2f) |\n", p.Params.MDEPct, p.MDEAbsolute))
	sb.WriteString(fmt.Sprintf("| Baseline Mean | $%.2f |\n", p.BaselineMean))
	sb.WriteString(fmt.Sprintf("| Baseline Std | $%.2f |\n", p.BaselineStd))
	sb.WriteString(fmt.Sprintf("| Required Per Group | %d |\n", p.PerGroup))
	sb.WriteString(fmt.Sprintf("| Required Total | %d |\n", p.TotalRequired))
	sb.WriteString(fmt.Sprintf("| Available | %d |\n", p.Available))
	sb.WriteString(fmt.Sprintf("| Sample Size | %d |\n", p.SampleSize))
	sb.WriteString(fmt.Sprintf("| Sufficient | %t |\n", p.Sufficient))
	sb.WriteString(fmt.Sprintf("| MDE Exceeds Mean Shipping | %t |\n", p.MDEExceedsShipping))
	sb.WriteString("\n")

	b := r.Balance
	sb.WriteString("### Pre-treatment Balance\n\n")
	sb.WriteString("| Group | N | Mean Order Total |\n")
	sb.WriteString("|-------|---|------------------|\n")
	sb.WriteString(fmt.Sprintf("| Control | %d | $%.2f |\n", b.ControlN, b.ControlMean))
	sb.WriteString(fmt.Sprintf("| Treatment | %d | $%.2f |\n", b.TreatmentN, b.TreatmentMean))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Difference %+.2f%%, p=%s, balanced: %t\n\n", b.DiffPct, formatP(b.PValue), b.Balanced))
}

func writeSimulationSection(sb *strings.Builder, r *Report) {
	s := r.Simulation
	sb.WriteString("## Treatment Simulation\n\n")
	sb.WriteString("| Treatment Composition | Orders |\n")
	sb.WriteString("|-----------------------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Below Threshold (eligible) | %d |\n", s.Eligible))
	sb.WriteString(fmt.Sprintf("| Responders | %d |\n", s.Responders))
	sb.WriteString(fmt.Sprintf("| Non-responders | %d |\n", s.NonResponders))
	sb.WriteString(fmt.Sprintf("| Already Above Threshold | %d |\n", s.AlreadyAbove))
	sb.WriteString(fmt.Sprintf("| Shipping Waived | %d |\n", s.ShippingWaived))
	sb.WriteString("\n")

	sb.WriteString("| Revenue Breakdown | Amount |\n")
	sb.WriteString("|-------------------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Gained From Top-ups | $%.2f |\n", s.RevenueGained))
	sb.WriteString(fmt.Sprintf("| Lost To Waived Shipping | $%.2f |\n", s.RevenueLost))
	sb.WriteString(fmt.Sprintf("| Net | $%.2f |\n", s.NetRevenue))
	sb.WriteString("\n")

	if len(r.GroupMetrics) > 0 {
		sb.WriteString("### Group Comparison (means)\n\n")
		sb.WriteString("| Metric | Control | Treatment | Difference | Change |\n")
		sb.WriteString("|--------|---------|-----------|------------|--------|\n")
		for _, m := range r.GroupMetrics {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %+.2f | %+.2f%% |\n",
				m.Metric, m.Control, m.Treatment, m.Difference, m.PercentChange))
		}
		sb.WriteString("\n")
	}

	if len(r.Aggregates) > 0 {
		sb.WriteString("### Revenue Distribution\n\n")
		sb.WriteString("| Scope | Group | N | Mean | Median | P10 | P90 | Stddev | Response Rate | Waived |\n")
		sb.WriteString("|-------|-------|---|------|--------|-----|-----|--------|---------------|--------|\n")
		for _, a := range r.Aggregates {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f | %.2f | %.2f | %.2f | %.2f | %.1f%% | %.1f%% |\n",
				a.Scope, a.Group, a.Revenue.N, a.Revenue.Mean, a.Revenue.Median,
				a.Revenue.P10, a.Revenue.P90, a.Revenue.Stddev,
				a.ResponseRate*100, a.WaivedShare*100))
		}
		sb.WriteString("\n")
	}
}

func writeResultsSection(sb *strings.Builder, r *Report) {
	sb.WriteString("## Statistical Results\n\n")
	if len(r.Results) == 0 {
		sb.WriteString("No test results available.\n\n")
		return
	}
	sb.WriteString("| Scope | Control N | Treatment N | Control Mean | Treatment Mean | Diff | Diff % | t | p | 95% CI | Cohen's d | Welch p | Significant |\n")
	sb.WriteString("|-------|-----------|-------------|--------------|----------------|------|--------|---|---|--------|-----------|---------|-------------|\n")
	for _, t := range r.Results {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f | %+.2f | %+.2f%% | %.3f | %s | [%.2f, %.2f] | %.3f | %s | %s |\n",
			t.Scope, t.ControlN, t.TreatmentN, t.ControlMean, t.TreatmentMean,
			t.Difference, t.PercentChange, t.TStatistic, formatP(t.PValue),
			t.CILow, t.CIHigh, t.CohensD, formatP(t.WelchPValue), yesNo(t.Significant)))
	}
	sb.WriteString("\n")

	hasBootstrap := false
	for _, t := range r.Results {
		if t.BootstrapCILow != nil && t.BootstrapCIHigh != nil {
			if !hasBootstrap {
				sb.WriteString("### Bootstrap Confidence Intervals\n\n")
				sb.WriteString("| Scope | Low | High |\n")
				sb.WriteString("|-------|-----|------|\n")
				hasBootstrap = true
			}
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f |\n", t.Scope, *t.BootstrapCILow, *t.BootstrapCIHigh))
		}
	}
	if hasBootstrap {
		sb.WriteString("\n")
	}

	sb.WriteString("### Detectable Effects\n\n")
	sb.WriteString("| Scope | Detectable Difference | Observed Difference |\n")
	sb.WriteString("|-------|-----------------------|---------------------|\n")
	for _, t := range r.Results {
		sb.WriteString(fmt.Sprintf("| %s | $%.2f | $%+.2f |\n", t.Scope, t.DetectableEffect, t.Difference))
	}
	sb.WriteString("\n")
}

func writeEconomicsSection(sb *strings.Builder, r *Report) {
	sb.WriteString("## Segment Economics\n\n")
	if len(r.Economics) > 0 {
		sb.WriteString("| Segment | Treatment N | Responders | Revenue Gained | Shipping Cost | Net Impact | Per-customer Delta |\n")
		sb.WriteString("|---------|-------------|------------|----------------|---------------|------------|--------------------|\n")
		for _, e := range r.Economics {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | $%s | $%s | $%s | $%+.2f |\n",
				e.Segment.Label(), e.TreatmentN, e.Responders,
				e.RevenueGained.StringFixed(2), e.ShippingCost.StringFixed(2), e.NetImpact.StringFixed(2),
				e.PerCustomerDelta))
		}
	} else {
		sb.WriteString("No segment economics available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Strategy Comparison\n\n")
	sb.WriteString("| Strategy | Segments | Customers Affected | Revenue Gained | Shipping Cost | Implementation Cost | Net Impact | ROI | Recommendation |\n")
	sb.WriteString("|----------|----------|--------------------|----------------|---------------|---------------------|------------|-----|----------------|\n")
	for _, s := range []domain.StrategyOutcome{r.Strategies.Universal, r.Strategies.Targeted} {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | $%s | $%s | $%s | $%s | %s | %s |\n",
			s.Name, segmentList(s.Segments), s.CustomersAffected,
			s.RevenueGained.StringFixed(2), s.ShippingCost.StringFixed(2), s.ImplementCost.StringFixed(2),
			s.NetImpact.StringFixed(2), formatROI(s.ROIPct), s.Recommendation))
	}
	sb.WriteString("\n")
	if r.Strategies.Preferred != "" {
		sb.WriteString(fmt.Sprintf("Preferred strategy by net impact: **%s**\n\n", r.Strategies.Preferred))
	}
}

func formatP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.0001 {
		return "<0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func formatROI(roi *float64) string {
	if roi == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *roi)
}

func formatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

func significance(sig bool) string {
	if sig {
		return "significant"
	}
	return "not significant"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func segmentList(segs []domain.Segment) string {
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = string(s)
	}
	return strings.Join(names, "+")
}
