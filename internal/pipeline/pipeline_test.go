package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/idhash"
	"free-shipping-lab/internal/loader"
	"free-shipping-lab/internal/reporting"
	"free-shipping-lab/internal/storage/mocks"
)

var fixedTime = time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T, orders int) *config.Config {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "raw")
	require.NoError(t, WriteFixtures(dataDir, orders, 7))

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.ResultsDir = filepath.Join(t.TempDir(), "results")
	return cfg
}

func newTestPipeline(cfg *config.Config, stores *Stores) *Pipeline {
	return New(cfg, stores, nil).
		WithClock(func() time.Time { return fixedTime }).
		WithGitCommit(func() string { return "abc1234" }).
		WithoutCharts()
}

func TestWriteFixtures_Loadable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFixtures(dir, 300, 1))

	res, err := loader.New(dir, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Orders, 300)
	assert.Empty(t, res.DuplicateOrderIDs)
	assert.True(t, res.PaymentsLoaded)

	// Deterministic for the same seed
	dir2 := t.TempDir()
	require.NoError(t, WriteFixtures(dir2, 300, 1))
	a, err := os.ReadFile(filepath.Join(dir, loader.ItemsFile))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dir2, loader.ItemsFile))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Error(t, WriteFixtures(t.TempDir(), 0, 1))
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t, 2000)
	stores := MemoryStores()
	ctx := context.Background()

	out, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)

	// Run record
	assert.NotEmpty(t, out.Run.RunID)
	assert.NotEmpty(t, out.Run.DataVersion)
	assert.Equal(t, uint64(42), out.Run.Seed)
	assert.Equal(t, 2000, out.Run.Orders)
	assert.Equal(t, fixedTime.UnixMilli(), out.Run.CreatedAt)
	assert.Contains(t, []string{
		string(decision.DecisionGO), string(decision.DecisionNOGO), string(decision.DecisionInsufficientData),
	}, out.Run.Decision)

	stored, err := stores.Runs.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, out.Run, *stored)

	// Stores were filled
	n, err := stores.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2000, n)
	outcomes, err := stores.Outcomes.GetByRun(ctx, out.Run.RunID)
	require.NoError(t, err)
	assert.Len(t, outcomes, out.Run.SampleSize)
	results, err := stores.Results.GetByRun(ctx, out.Run.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, domain.ScopeOverall, results[0].Scope)

	// Artifacts
	for _, rel := range []string{
		filepath.Join(reporting.ProcessedDir, loader.OrderTotalsFile),
		filepath.Join(reporting.ProcessedDir, reporting.CSVExperimentDesign),
		filepath.Join(reporting.ProcessedDir, reporting.CSVExperimentResults),
		filepath.Join(reporting.ProcessedDir, reporting.CSVValidationReport),
		filepath.Join(reporting.ProcessedDir, reporting.CSVAnalysisResults),
		filepath.Join(reporting.ProcessedDir, reporting.CSVSegmentResults),
		filepath.Join(reporting.ProcessedDir, reporting.CSVSegmentEconomics),
		filepath.Join(reporting.ProcessedDir, reporting.CSVStrategyComparison),
		reporting.ReportFile,
		reporting.DecisionReportFile,
		reporting.SummaryFile,
		MetricsFile,
	} {
		_, err := os.Stat(filepath.Join(cfg.ResultsDir, rel))
		assert.NoError(t, err, rel)
	}

	prom, err := os.ReadFile(filepath.Join(cfg.ResultsDir, MetricsFile))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `abtest_pipeline_runs_total{status="success"} 1`)
	assert.Contains(t, string(prom), `abtest_pipeline_rows_processed_total{stage="load"} 2000`)
}

func TestPipeline_Reproducible(t *testing.T) {
	cfg := testConfig(t, 1500)
	ctx := context.Background()

	// Same stores: the second run finds its outcomes and results already stored
	stores := MemoryStores()
	first, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)
	report1, err := os.ReadFile(filepath.Join(cfg.ResultsDir, reporting.ReportFile))
	require.NoError(t, err)

	second, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)
	report2, err := os.ReadFile(filepath.Join(cfg.ResultsDir, reporting.ReportFile))
	require.NoError(t, err)

	assert.Equal(t, first.Run, second.Run)
	assert.Equal(t, string(report1), string(report2))

	// Fresh stores give the same answer
	third, err := newTestPipeline(cfg, MemoryStores()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Run.RunID, third.Run.RunID)
	assert.Equal(t, first.Report.Results, third.Report.Results)
}

func TestPipeline_ChangedDataReplacesOrders(t *testing.T) {
	cfg := testConfig(t, 600)
	ctx := context.Background()
	stores := MemoryStores()

	first, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)

	// Same order count, different orders
	require.NoError(t, WriteFixtures(cfg.DataDir, 600, 99))
	second, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Run.DataVersion, second.Run.DataVersion)

	stored, err := stores.Orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Run.DataVersion, idhash.ComputeDataVersion(stored))

	// Rerunning on unchanged data leaves the store as is
	third, err := newTestPipeline(cfg, stores).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Run, third.Run)
	again, err := stores.Orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, again)
}

func TestPipeline_SeedChangesRun(t *testing.T) {
	cfg := testConfig(t, 800)
	ctx := context.Background()

	a, err := newTestPipeline(cfg, nil).Run(ctx)
	require.NoError(t, err)

	cfg.Experiment.Seed = 43
	b, err := newTestPipeline(cfg, nil).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.Run.DataVersion, b.Run.DataVersion)
	assert.NotEqual(t, a.Run.RunID, b.Run.RunID)
}

func TestPipeline_MissingData(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.ResultsDir = t.TempDir()

	_, err := newTestPipeline(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, loader.ErrSchema))

	prom, readErr := os.ReadFile(filepath.Join(cfg.ResultsDir, MetricsFile))
	require.NoError(t, readErr)
	assert.Contains(t, string(prom), `abtest_pipeline_runs_total{status="failure"} 1`)
	assert.Contains(t, string(prom), `abtest_pipeline_stage_errors_total{stage="load"} 1`)
}

func TestPipeline_InvalidResponseModel(t *testing.T) {
	cfg := testConfig(t, 100)
	cfg.Treatment.MinAdd = 50
	cfg.Treatment.MaxAdd = 10

	_, err := newTestPipeline(cfg, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response model")
}

func TestPipeline_OutcomeStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection refused")
	outcomes := mocks.NewMockOutcomeStore(ctrl)
	outcomes.EXPECT().InsertBulk(gomock.Any(), gomock.Any()).Return(boom)

	stores := MemoryStores()
	stores.Outcomes = outcomes

	cfg := testConfig(t, 300)
	_, err := newTestPipeline(cfg, stores).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), StageSimulate+":"))
}

func TestPipeline_Cancelled(t *testing.T) {
	cfg := testConfig(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(cfg, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_StageAtATime(t *testing.T) {
	cfg := testConfig(t, 500)
	ctx := context.Background()
	p := newTestPipeline(cfg, nil)

	res, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, res.Orders, 500)

	qr, err := p.Validate(ctx, res)
	require.NoError(t, err)
	path, err := p.WriteValidation(qr)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// LoadOrders now reads the processed table
	orders, err := p.LoadOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 500)
	assert.Equal(t, res.Orders[0].OrderID, orders[0].OrderID)

	plan, err := p.Design(ctx, orders)
	require.NoError(t, err)
	path, err = p.WriteDesign(plan)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sample_size,")
}
