// Package quality checks the loaded orders against the assumptions of a
// two-sample test. Findings annotate the run; they never stop it.
package quality

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/stats"
)

// Thresholds used by the checks.
const (
	MaxRepeatCustomerPct = 5.0  // independence
	MaxMonthlyRatio      = 3.0  // temporal spread, busiest / quietest month
	MinDeliveredPct      = 90.0 // order quality
	OutlierIQRFactor     = 3.0
	MaxOutlierPct        = 5.0
	ZScoreLimit          = 3.0
	ModerateCVPct        = 30.0
	HighCVPct            = 100.0
)

// Check names, in report order.
const (
	CheckIndependence   = "Independence"
	CheckTemporal       = "Temporal Distribution"
	CheckOrderQuality   = "Order Quality"
	CheckOutliers       = "Outliers"
	CheckVariability    = "Variability"
	CheckCompleteness   = "Data Completeness"
	CheckPositiveValues = "Positive Values"
	CheckHomogeneity    = "Variance Homogeneity"
)

// LoadStats carries loader findings the checks report on.
type LoadStats struct {
	MissingValues     int
	DuplicateOrderIDs int
}

// SegmentProfile describes the order_total distribution of one segment.
type SegmentProfile struct {
	Segment        domain.Segment
	N              int
	Mean           float64
	Variance       float64
	StdDev         float64
	Skewness       float64
	IQROutliers    int
	ZScoreOutliers int
	MeanShipping   float64
	BelowThreshold int // orders priced under the free-shipping threshold
}

// Report is the output of Validate.
type Report struct {
	Checks   []domain.QualityCheck
	Segments []SegmentProfile
	AllPass  bool     // no FAIL status (ACKNOWLEDGED does not count as failure)
	Warnings []string // one line per FAIL or ACKNOWLEDGED check
}

// Validator runs the quality checks.
type Validator struct {
	bounds    domain.SegmentBounds
	alpha     float64
	threshold float64
	logger    *zap.Logger
}

// NewValidator creates a validator. alpha is used by the homogeneity test,
// threshold by the per-segment eligibility counts.
func NewValidator(bounds domain.SegmentBounds, alpha, threshold float64, logger *zap.Logger) *Validator {
	return &Validator{bounds: bounds, alpha: alpha, threshold: threshold, logger: logging.OrNop(logger)}
}

// Validate runs every check over orders.
func (v *Validator) Validate(orders []*domain.Order, load LoadStats) *Report {
	totals := make([]float64, len(orders))
	for i, o := range orders {
		totals[i] = o.OrderTotal
	}

	report := &Report{
		Checks: []domain.QualityCheck{
			v.checkIndependence(orders),
			v.checkTemporal(orders),
			v.checkOrderQuality(orders),
			v.checkOutliers(totals),
			v.checkVariability(totals),
			v.checkCompleteness(len(orders), load),
			v.checkPositive(orders),
		},
		AllPass: true,
	}

	profiles, groups := v.profileSegments(orders)
	report.Segments = profiles
	report.Checks = append(report.Checks, v.checkHomogeneity(groups))

	for _, c := range report.Checks {
		switch c.Status {
		case domain.CheckFail:
			report.AllPass = false
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s failed: %s", c.Name, c.Details))
			v.logger.Warn("quality check failed", zap.String("check", c.Name), zap.String("actual", c.Actual))
		case domain.CheckAcknowledged:
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s acknowledged: %s", c.Name, c.Details))
			v.logger.Info("quality check acknowledged", zap.String("check", c.Name), zap.String("actual", c.Actual))
		default:
			v.logger.Debug("quality check passed", zap.String("check", c.Name), zap.String("actual", c.Actual))
		}
	}
	return report
}

func passOrFail(ok bool) domain.CheckStatus {
	if ok {
		return domain.CheckPass
	}
	return domain.CheckFail
}

// checkIndependence measures customers with more than one order.
func (v *Validator) checkIndependence(orders []*domain.Order) domain.QualityCheck {
	counts := make(map[string]int)
	for _, o := range orders {
		counts[o.CustomerUniqueID]++
	}
	repeat := 0
	for _, n := range counts {
		if n > 1 {
			repeat++
		}
	}
	pct := 0.0
	if len(counts) > 0 {
		pct = float64(repeat) / float64(len(counts)) * 100
	}

	ok := pct < MaxRepeatCustomerPct
	details := "Independence assumption holds"
	if !ok {
		details = "Consider customer-level randomization"
	}
	return domain.QualityCheck{
		Name:      CheckIndependence,
		Threshold: fmt.Sprintf("< %.0f%% repeat customers", MaxRepeatCustomerPct),
		Actual:    fmt.Sprintf("%.2f%%", pct),
		Status:    passOrFail(ok),
		Details:   fmt.Sprintf("Repeat customers: %.2f%% (%d of %d). %s", pct, repeat, len(counts), details),
	}
}

// checkTemporal compares order volume across calendar months (1-12, all years pooled).
func (v *Validator) checkTemporal(orders []*domain.Order) domain.QualityCheck {
	months := make(map[time.Month]int)
	for _, o := range orders {
		months[time.UnixMilli(o.PurchasedAt).UTC().Month()]++
	}

	check := domain.QualityCheck{
		Name:      CheckTemporal,
		Threshold: fmt.Sprintf("max/min monthly orders < %.0f", MaxMonthlyRatio),
	}
	if len(months) == 0 {
		check.Actual = "n/a"
		check.Status = domain.CheckFail
		check.Details = "No orders"
		return check
	}

	lo, hi := -1, 0
	for _, n := range months {
		if lo < 0 || n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	ratio := float64(hi) / float64(lo)
	ok := ratio < MaxMonthlyRatio

	check.Actual = fmt.Sprintf("%.2f", ratio)
	check.Status = passOrFail(ok)
	if ok {
		check.Details = fmt.Sprintf("Temporal ratio: %.2f across %d months. Orders are reasonably distributed over time", ratio, len(months))
	} else {
		check.Details = fmt.Sprintf("Temporal ratio: %.2f across %d months. Significant temporal clustering", ratio, len(months))
	}
	return check
}

// checkOrderQuality reports the delivered share. Non-delivered orders stay in
// the analysis.
func (v *Validator) checkOrderQuality(orders []*domain.Order) domain.QualityCheck {
	delivered := 0
	for _, o := range orders {
		if o.Status == domain.StatusDelivered {
			delivered++
		}
	}
	pct := 0.0
	if len(orders) > 0 {
		pct = float64(delivered) / float64(len(orders)) * 100
	}

	status := domain.CheckPass
	details := fmt.Sprintf("Delivered orders: %.2f%%", pct)
	switch {
	case delivered == len(orders):
		details += ". Dataset contains only delivered orders"
	case pct >= MinDeliveredPct:
		details += ". Includes some non-delivered but valid orders"
	default:
		status = domain.CheckAcknowledged
		details += ". Large share of non-delivered orders"
	}
	return domain.QualityCheck{
		Name:      CheckOrderQuality,
		Threshold: fmt.Sprintf(">= %.0f%% delivered", MinDeliveredPct),
		Actual:    fmt.Sprintf("%.2f%%", pct),
		Status:    status,
		Details:   details,
	}
}

func (v *Validator) checkOutliers(totals []float64) domain.QualityCheck {
	fences := stats.IQRFences(totals, OutlierIQRFactor)
	n := fences.Count(totals)
	pct := 0.0
	if len(totals) > 0 {
		pct = float64(n) / float64(len(totals)) * 100
	}
	ok := pct < MaxOutlierPct
	advice := "Minimal outliers, standard analysis fine"
	if !ok {
		advice = "Consider robust methods or transformations"
	}
	return domain.QualityCheck{
		Name:      CheckOutliers,
		Threshold: fmt.Sprintf("< %.0f%% outside Q1/Q3 -/+ %.0f*IQR", MaxOutlierPct, OutlierIQRFactor),
		Actual:    fmt.Sprintf("%.2f%%", pct),
		Status:    passOrFail(ok),
		Details:   fmt.Sprintf("Outliers: %.2f%% (%d orders above %.2f or below %.2f). %s", pct, n, fences.Upper, fences.Lower, advice),
	}
}

// checkVariability classifies the coefficient of variation. High variability
// is a property of the data the design accounts for, so it is never a failure.
func (v *Validator) checkVariability(totals []float64) domain.QualityCheck {
	cv := stats.CoefficientOfVariation(totals)

	status := domain.CheckPass
	var band string
	switch {
	case cv < ModerateCVPct:
		band = "Moderate variability"
	case cv < HighCVPct:
		band = "High variability"
		status = domain.CheckAcknowledged
	default:
		band = "Very high variability, large sample sizes required"
		status = domain.CheckAcknowledged
	}
	return domain.QualityCheck{
		Name:      CheckVariability,
		Threshold: fmt.Sprintf("CV < %.0f%%", ModerateCVPct),
		Actual:    fmt.Sprintf("%.2f%%", cv),
		Status:    status,
		Details:   fmt.Sprintf("CV: %.2f%%. %s", cv, band),
	}
}

func (v *Validator) checkCompleteness(n int, load LoadStats) domain.QualityCheck {
	ok := load.MissingValues == 0
	details := "No missing values"
	if !ok {
		details = fmt.Sprintf("%d source rows skipped for missing required fields", load.MissingValues)
	}
	if load.DuplicateOrderIDs > 0 {
		details += fmt.Sprintf("; %d duplicate order ids dropped", load.DuplicateOrderIDs)
	}
	if n == 0 {
		ok = false
		details = "No orders loaded"
	}
	return domain.QualityCheck{
		Name:      CheckCompleteness,
		Threshold: "0 missing values",
		Actual:    fmt.Sprintf("%d", load.MissingValues),
		Status:    passOrFail(ok),
		Details:   details,
	}
}

func (v *Validator) checkPositive(orders []*domain.Order) domain.QualityCheck {
	badPrice, badTotal := 0, 0
	for _, o := range orders {
		if o.TotalPrice <= 0 {
			badPrice++
		}
		if o.OrderTotal <= 0 {
			badTotal++
		}
	}
	ok := badPrice == 0 && badTotal == 0
	details := "All orders have positive values"
	if !ok {
		details = fmt.Sprintf("Orders with zero/negative values: price=%d, total=%d", badPrice, badTotal)
	}
	return domain.QualityCheck{
		Name:      CheckPositiveValues,
		Threshold: "0 non-positive orders",
		Actual:    fmt.Sprintf("price=%d, total=%d", badPrice, badTotal),
		Status:    passOrFail(ok),
		Details:   details,
	}
}

// profileSegments returns per-segment profiles and the order_total values per segment.
func (v *Validator) profileSegments(orders []*domain.Order) ([]SegmentProfile, [][]float64) {
	totals := make(map[domain.Segment][]float64)
	shipping := make(map[domain.Segment][]float64)
	below := make(map[domain.Segment]int)
	for _, o := range orders {
		seg := o.Segment(v.bounds)
		totals[seg] = append(totals[seg], o.OrderTotal)
		shipping[seg] = append(shipping[seg], o.TotalShipping)
		if o.TotalPrice < v.threshold {
			below[seg]++
		}
	}

	var profiles []SegmentProfile
	var groups [][]float64
	for _, seg := range domain.AllSegments {
		x := totals[seg]
		if len(x) == 0 {
			continue
		}
		profiles = append(profiles, SegmentProfile{
			Segment:        seg,
			N:              len(x),
			Mean:           stats.Mean(x),
			Variance:       stats.Variance(x),
			StdDev:         stats.StdDev(x),
			Skewness:       stats.Skewness(x),
			IQROutliers:    stats.IQRFences(x, OutlierIQRFactor).Count(x),
			ZScoreOutliers: stats.ZScoreOutliers(x, ZScoreLimit),
			MeanShipping:   stats.Mean(shipping[seg]),
			BelowThreshold: below[seg],
		})
		groups = append(groups, x)
	}
	return profiles, groups
}

// checkHomogeneity runs Brown-Forsythe across segments. Unequal variances are
// expected for basket-size bands and only steer the choice of test.
func (v *Validator) checkHomogeneity(groups [][]float64) domain.QualityCheck {
	check := domain.QualityCheck{
		Name:      CheckHomogeneity,
		Threshold: fmt.Sprintf("Brown-Forsythe p >= %.2f", v.alpha),
	}
	f, p, err := stats.BrownForsythe(groups)
	if err != nil {
		check.Actual = "n/a"
		check.Status = domain.CheckAcknowledged
		check.Details = "Fewer than two populated segments, test skipped"
		return check
	}
	check.Actual = fmt.Sprintf("F=%.2f, p=%.4g", f, p)
	if p >= v.alpha {
		check.Status = domain.CheckPass
		check.Details = "Segment variances are compatible"
	} else {
		check.Status = domain.CheckAcknowledged
		check.Details = "Segment variances differ; Welch statistics are reported alongside pooled ones"
	}
	return check
}
