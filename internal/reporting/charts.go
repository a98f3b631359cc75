package reporting

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"free-shipping-lab/internal/domain"
)

// errNoData is returned by chart builders given an empty series.
var errNoData = errors.New("no data to chart")

const histogramBins = 60

var (
	colorControl   = color.RGBA{R: 52, G: 101, B: 164, A: 255}
	colorTreatment = color.RGBA{R: 245, G: 121, B: 0, A: 255}
	colorThreshold = color.RGBA{R: 204, G: 0, B: 0, A: 255}
	colorPositive  = color.RGBA{R: 78, G: 154, B: 6, A: 255}
	colorNegative  = color.RGBA{R: 204, G: 0, B: 0, A: 255}
)

// WriteCharts renders every chart of r into dir and returns the written paths.
// Charts whose data is missing are skipped.
func WriteCharts(dir string, r *Report) ([]string, error) {
	builders := []struct {
		name  string
		build func(*Report) (*plot.Plot, error)
	}{
		{ChartPriceDistribution, priceDistributionPlot},
		{ChartGroupSizes, groupSizesPlot},
		{ChartRevenueByGroup, revenueByGroupPlot},
		{ChartSegmentEffects, segmentEffectsPlot},
		{ChartStrategyNet, strategyNetPlot},
		{ChartStrategyROI, strategyROIPlot},
	}

	var written []string
	for _, b := range builders {
		p, err := b.build(r)
		if errors.Is(err, errNoData) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("chart %s: %w", b.name, err)
		}
		path := filepath.Join(dir, b.name)
		if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
			return written, fmt.Errorf("save chart %s: %w", b.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// priceDistributionPlot is a histogram of basket prices with the threshold marked.
func priceDistributionPlot(r *Report) (*plot.Plot, error) {
	if len(r.OrderPrices) == 0 {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "Order price distribution"
	p.X.Label.Text = "Basket price ($)"
	p.Y.Label.Text = "Orders"

	// Clip the long tail so the threshold region stays readable.
	clip := r.Bounds.MediumMax * 3
	values := make(plotter.Values, 0, len(r.OrderPrices))
	for _, v := range r.OrderPrices {
		if v <= clip {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, errNoData
	}
	h, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = colorControl
	p.Add(h)

	maxY := 0.0
	for _, b := range h.Bins {
		maxY = max(maxY, b.Weight)
	}
	line, err := plotter.NewLine(plotter.XYs{{X: r.Threshold, Y: 0}, {X: r.Threshold, Y: maxY}})
	if err != nil {
		return nil, err
	}
	line.Color = colorThreshold
	line.Width = vg.Points(2)
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("threshold $%.0f", r.Threshold), line)
	p.Legend.Top = true
	return p, nil
}

// groupSizesPlot compares group sizes and mean baseline order totals.
func groupSizesPlot(r *Report) (*plot.Plot, error) {
	b := r.Balance
	if b.ControlN+b.TreatmentN == 0 {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "Group sizes and baseline mean order total"
	p.Y.Label.Text = "Orders / $"

	w := vg.Points(30)
	sizes, err := plotter.NewBarChart(plotter.Values{float64(b.ControlN), float64(b.TreatmentN)}, w)
	if err != nil {
		return nil, err
	}
	sizes.Color = colorControl
	sizes.Offset = -w / 2

	means, err := plotter.NewBarChart(plotter.Values{b.ControlMean, b.TreatmentMean}, w)
	if err != nil {
		return nil, err
	}
	means.Color = colorTreatment
	means.Offset = w / 2

	p.Add(sizes, means)
	p.Legend.Add("orders", sizes)
	p.Legend.Add("mean order total ($)", means)
	p.Legend.Top = true
	p.NominalX("Control", "Treatment")
	return p, nil
}

// revenueByGroupPlot shows box plots of final revenue per group.
func revenueByGroupPlot(r *Report) (*plot.Plot, error) {
	control := r.Revenue[domain.GroupControl]
	treatment := r.Revenue[domain.GroupTreatment]
	if len(control) == 0 || len(treatment) == 0 {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "Final revenue by group"
	p.Y.Label.Text = "Revenue per order ($)"

	w := vg.Points(60)
	cb, err := plotter.NewBoxPlot(w, 0, plotter.Values(control))
	if err != nil {
		return nil, err
	}
	cb.FillColor = colorControl
	tb, err := plotter.NewBoxPlot(w, 1, plotter.Values(treatment))
	if err != nil {
		return nil, err
	}
	tb.FillColor = colorTreatment

	p.Add(cb, tb)
	p.NominalX("Control", "Treatment")
	return p, nil
}

// segmentEffectsPlot shows the percent change of revenue per scope.
func segmentEffectsPlot(r *Report) (*plot.Plot, error) {
	if len(r.Results) == 0 {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "Treatment effect on revenue per order"
	p.Y.Label.Text = "Change vs control (%)"

	var names []string
	w := vg.Points(40)
	for i, t := range r.Results {
		bar, err := plotter.NewBarChart(plotter.Values{t.PercentChange}, w)
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = colorFor(t.PercentChange)
		if !t.Significant {
			bar.Color = color.Gray{Y: 160}
		}
		p.Add(bar)
		label := t.Scope
		if t.Significant {
			label += " *"
		}
		names = append(names, label)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(names...)
	return p, nil
}

// strategyNetPlot compares net impact of the rollout strategies.
func strategyNetPlot(r *Report) (*plot.Plot, error) {
	s := r.Strategies
	if s.Universal.Name == "" && s.Targeted.Name == "" {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "Net impact by rollout strategy"
	p.Y.Label.Text = "Net impact ($)"

	w := vg.Points(60)
	for i, o := range []domain.StrategyOutcome{s.Universal, s.Targeted} {
		v := o.NetImpact.InexactFloat64()
		bar, err := plotter.NewBarChart(plotter.Values{v}, w)
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = colorFor(v)
		p.Add(bar)
	}
	p.NominalX(s.Universal.Name, s.Targeted.Name)
	return p, nil
}

// strategyROIPlot compares ROI of the rollout strategies; undefined ROI plots as 0.
func strategyROIPlot(r *Report) (*plot.Plot, error) {
	s := r.Strategies
	if s.Universal.ROIPct == nil && s.Targeted.ROIPct == nil {
		return nil, errNoData
	}
	p := plot.New()
	p.Title.Text = "ROI by rollout strategy"
	p.Y.Label.Text = "ROI (%)"

	w := vg.Points(60)
	for i, o := range []domain.StrategyOutcome{s.Universal, s.Targeted} {
		v := 0.0
		if o.ROIPct != nil {
			v = *o.ROIPct
		}
		bar, err := plotter.NewBarChart(plotter.Values{v}, w)
		if err != nil {
			return nil, err
		}
		bar.XMin = float64(i)
		bar.Color = colorFor(v)
		p.Add(bar)
	}
	p.NominalX(s.Universal.Name, s.Targeted.Name)
	return p, nil
}

func colorFor(v float64) color.Color {
	if v < 0 {
		return colorNegative
	}
	return colorPositive
}
