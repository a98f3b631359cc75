package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"free-shipping-lab/internal/analysis"
	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/loader"
	"free-shipping-lab/internal/metrics"
	"free-shipping-lab/internal/quality"
	"free-shipping-lab/internal/simulation"
	"free-shipping-lab/internal/storage"
	"free-shipping-lab/internal/storage/memory"
)

const testRunID = "run-1"

var fixedTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// testOrders spreads 240 orders over three segments and six months.
func testOrders() []*domain.Order {
	var orders []*domain.Order
	base := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 240; i++ {
		price := 20 + float64((i*37)%380)
		ship := 8 + float64(i%7)
		orders = append(orders, &domain.Order{
			OrderID:          fmt.Sprintf("o%04d", i),
			CustomerID:       fmt.Sprintf("c%04d", i),
			CustomerUniqueID: fmt.Sprintf("u%04d", i),
			Status:           domain.StatusDelivered,
			PurchasedAt:      base.AddDate(0, i%6, i%28).UnixMilli(),
			TotalPrice:       price,
			TotalShipping:    ship,
			NumItems:         1 + i%3,
			OrderTotal:       price + ship,
		})
	}
	return orders
}

// buildReport runs every stage over testOrders and generates a report.
func buildReport(t *testing.T) *Report {
	t.Helper()
	ctx := context.Background()
	orders := testOrders()
	bounds := domain.DefaultSegmentBounds()

	qr := quality.NewValidator(bounds, 0.05, 100, nil).Validate(orders, quality.LoadStats{})

	params := design.DefaultParams()
	params.MDEPct = 20
	plan, err := design.NewDesigner(params, nil).Design(orders)
	require.NoError(t, err)

	a, err := simulation.Assign(orders, plan.SampleSize, 42)
	require.NoError(t, err)
	sim, err := simulation.NewSimulator(simulation.DefaultThresholdTopUp(), bounds, nil).Simulate(testRunID, orders, a)
	require.NoError(t, err)

	res, err := analysis.NewAnalyzer(analysis.DefaultParams(), nil).Analyze(testRunID, sim.Outcomes)
	require.NoError(t, err)

	in, err := decision.NewBuilder(0.05).Build(res, plan, qr, res.Strategies.Preferred)
	require.NoError(t, err)
	dec, err := decision.NewEvaluator().Evaluate(*in)
	require.NoError(t, err)

	outcomeStore := memory.NewOutcomeStore()
	require.NoError(t, outcomeStore.InsertBulk(ctx, sim.Outcomes))
	resultStore := memory.NewResultStore()
	require.NoError(t, resultStore.InsertBulk(ctx, res.Results()))

	gen := NewGenerator(resultStore, metrics.NewAggregator(outcomeStore)).
		WithClock(func() time.Time { return fixedTime })
	r, err := gen.Generate(ctx, Inputs{
		Run: domain.RunRecord{
			RunID: testRunID, DataVersion: "v1", Seed: 42,
			Orders: len(orders), SampleSize: plan.SampleSize,
		},
		GitCommit:    "abc1234",
		Bounds:       bounds,
		Threshold:    100,
		ResponseRate: 0.4,
		Load:         &loader.Result{Orders: orders},
		Quality:      qr,
		Plan:         plan,
		Balance:      design.CheckBalance(orders, a, 0.05),
		Sim:          sim,
		Analysis:     res,
		Decision:     dec,
	})
	require.NoError(t, err)
	return r
}

func TestGenerator_Generate(t *testing.T) {
	r := buildReport(t)

	assert.Equal(t, fixedTime, r.GeneratedAt)
	assert.Equal(t, 240, r.DataSummary.Orders)
	assert.InDelta(t, 100.0, r.DataSummary.DeliveredPct, 1e-9)
	assert.Less(t, r.DataSummary.DateRangeStart, r.DataSummary.DateRangeEnd)

	require.NotEmpty(t, r.Results)
	assert.Equal(t, domain.ScopeOverall, r.Results[0].Scope, "overall result comes first")
	assert.NotNil(t, r.Overall())
	assert.NotNil(t, r.SegmentResult(domain.SegmentSmall))

	require.Len(t, r.GroupMetrics, 4)
	assert.Equal(t, metrics.MetricOriginalPrice, r.GroupMetrics[0].Metric)
	assert.NotEmpty(t, r.Aggregates)
	assert.Len(t, r.OrderPrices, 240)
	assert.Equal(t, r.Simulation.ControlN, len(r.Revenue[domain.GroupControl]))
	assert.Equal(t, r.Simulation.TreatmentN, len(r.Revenue[domain.GroupTreatment]))
}

func TestGenerator_IncompleteInputs(t *testing.T) {
	gen := NewGenerator(memory.NewResultStore(), metrics.NewAggregator(memory.NewOutcomeStore()))
	_, err := gen.Generate(context.Background(), Inputs{})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}

func TestGenerator_MissingOutcomes(t *testing.T) {
	r := buildReport(t)
	gen := NewGenerator(memory.NewResultStore(), metrics.NewAggregator(memory.NewOutcomeStore()))
	_, err := gen.Generate(context.Background(), Inputs{
		Run:      r.Run,
		Load:     &loader.Result{},
		Plan:     r.Plan,
		Sim:      &simulation.Result{},
		Analysis: &analysis.Analysis{},
	})
	assert.True(t, errors.Is(err, metrics.ErrNoOutcomes))
}

func TestRenderMarkdown(t *testing.T) {
	r := buildReport(t)
	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Free Shipping Threshold Experiment Report",
		"Generated: 2026-01-15T12:00:00Z",
		"Run: `run-1` | Data version: `v1` | Seed: 42 | Commit: `abc1234`",
		"## Executive Summary",
		"**Recommendation:",
		"## Data Quality",
		"| Independence |",
		"## Experiment Design",
		"### Pre-treatment Balance",
		"## Treatment Simulation",
		"### Group Comparison (means)",
		"| overall |",
		"## Segment Economics",
		"## Strategy Comparison",
		"Decision gate: **",
		"![price_distribution](figures/price_distribution.png)",
	} {
		assert.Contains(t, md, want)
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	assert.Equal(t, RenderMarkdown(buildReport(t)), RenderMarkdown(buildReport(t)))
}

func TestRenderCSVs(t *testing.T) {
	r := buildReport(t)

	lines := func(s string) []string {
		return strings.Split(strings.TrimSpace(s), "\n")
	}

	analysisCSV := lines(RenderAnalysisCSV(r.Results))
	require.Len(t, analysisCSV, 2)
	assert.True(t, strings.HasPrefix(analysisCSV[0], "scope,control_n,treatment_n,"))
	assert.True(t, strings.HasPrefix(analysisCSV[1], "overall,"))

	segCSV := lines(RenderSegmentResultsCSV(r.Results))
	assert.Len(t, segCSV, len(r.Results))

	strategyCSV := lines(RenderStrategyCSV(r.Strategies))
	require.Len(t, strategyCSV, 3)
	assert.True(t, strings.HasPrefix(strategyCSV[1], analysis.StrategyUniversal+","))

	validation := lines(RenderValidationCSV(r.Quality.Checks))
	assert.Equal(t, "check,threshold,actual,status,details", validation[0])
	assert.Len(t, validation, len(r.Quality.Checks)+1)

	designCSV := RenderDesignCSV(r.Plan, r.Balance)
	assert.Contains(t, designCSV, "sample_size,"+fmt.Sprint(r.Plan.SampleSize))
	assert.Contains(t, designCSV, "available_small,")

	exp := RenderExperimentResultsCSV(r.Simulation, r.GroupMetrics)
	assert.Contains(t, exp, "mean_final_revenue,")
	assert.Contains(t, exp, fmt.Sprintf("responders,,%d,,", r.Simulation.Responders))
}

func TestRenderValidationCSV_QuotesCommas(t *testing.T) {
	out := RenderValidationCSV([]domain.QualityCheck{
		{Name: "Outliers", Threshold: "< 5%", Actual: "1.2%", Status: domain.CheckPass, Details: "12 orders, all large"},
	})
	assert.Contains(t, out, `"12 orders, all large"`)
}

func TestSummaryJSON(t *testing.T) {
	r := buildReport(t)
	data, err := RenderSummaryJSON(r)
	require.NoError(t, err)

	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, testRunID, s.RunID)
	assert.Equal(t, "v1", s.DataVersion)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Len(t, s.Effects, len(r.Results))
	assert.Len(t, s.Strategies, 2)
	assert.Equal(t, r.Strategies.Preferred, s.Preferred)
	assert.Equal(t, string(r.Decision.Decision), s.Decision)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "<0.0001", formatP(0.00001))
	assert.Equal(t, "0.0500", formatP(0.05))
	roi := 12.345
	assert.Equal(t, "12.3%", formatROI(&roi))
	assert.Equal(t, "n/a", formatROI(nil))
	assert.Equal(t, "small+medium", segmentList([]domain.Segment{domain.SegmentSmall, domain.SegmentMedium}))
}

func TestConsole_PlainOutput(t *testing.T) {
	r := buildReport(t)
	var buf bytes.Buffer
	NewConsole(&buf).PrintSummary(r)

	out := buf.String()
	assert.Contains(t, out, "== Free shipping experiment ==")
	assert.Contains(t, out, "== Data quality ==")
	assert.Contains(t, out, "Independence")
	assert.Contains(t, out, analysis.StrategyTargeted)
	assert.Contains(t, out, "Decision (")
	assert.NotContains(t, out, "\x1b[", "no ANSI escapes when not a terminal")
}

func TestWriteAll(t *testing.T) {
	r := buildReport(t)
	dir := t.TempDir()

	written, err := WriteAll(dir, r, WriteOptions{})
	require.NoError(t, err)

	for _, rel := range []string{
		filepath.Join(ProcessedDir, CSVExperimentDesign),
		filepath.Join(ProcessedDir, CSVExperimentResults),
		filepath.Join(ProcessedDir, CSVValidationReport),
		filepath.Join(ProcessedDir, CSVAnalysisResults),
		filepath.Join(ProcessedDir, CSVSegmentResults),
		filepath.Join(ProcessedDir, CSVSegmentEconomics),
		filepath.Join(ProcessedDir, CSVStrategyComparison),
		ReportFile,
		DecisionReportFile,
		SummaryFile,
		filepath.Join(FiguresDir, ChartPriceDistribution),
		filepath.Join(FiguresDir, ChartRevenueByGroup),
		filepath.Join(FiguresDir, ChartSegmentEffects),
	} {
		path := filepath.Join(dir, rel)
		info, err := os.Stat(path)
		require.NoError(t, err, rel)
		assert.Greater(t, info.Size(), int64(0), rel)
		assert.Contains(t, written, path)
	}
}

func TestWriteAll_SkipCharts(t *testing.T) {
	r := buildReport(t)
	dir := t.TempDir()

	_, err := WriteAll(dir, r, WriteOptions{SkipCharts: true})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, FiguresDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
