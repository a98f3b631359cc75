// Package pipeline runs the experiment stages in order: load, validate,
// design, simulate, analyze, decide and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"free-shipping-lab/internal/analysis"
	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/design"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/idhash"
	"free-shipping-lab/internal/loader"
	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/metrics"
	"free-shipping-lab/internal/observability"
	"free-shipping-lab/internal/quality"
	"free-shipping-lab/internal/reporting"
	"free-shipping-lab/internal/simulation"
	"free-shipping-lab/internal/storage"
)

// GeneratorVersion is recorded with every run for reproducibility.
const GeneratorVersion = "1.0.0"

// MetricsFile is the Prometheus text file written next to the report.
const MetricsFile = "metrics.prom"

// Stage names used in logs and metrics.
const (
	StageLoad     = "load"
	StageValidate = "validate"
	StageDesign   = "design"
	StageSimulate = "simulate"
	StageAnalyze  = "analyze"
	StageDecide   = "decide"
	StageReport   = "report"
)

// Output is what a full run produced.
type Output struct {
	Run      domain.RunRecord
	Report   *reporting.Report
	Decision *decision.DecisionResult
	Files    []string
}

// Pipeline orchestrates the experiment stages.
type Pipeline struct {
	cfg        *config.Config
	stores     *Stores
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      func() time.Time
	gitCommit  func() string
	console    io.Writer // nil disables console tables
	skipCharts bool
}

// New creates a pipeline. Nil stores fall back to memory; a nil logger disables logging.
func New(cfg *config.Config, stores *Stores, logger *zap.Logger) *Pipeline {
	if stores == nil {
		stores = MemoryStores()
	}
	return &Pipeline{
		cfg:       cfg,
		stores:    stores,
		metrics:   observability.NewMetrics("abtest"),
		logger:    logging.OrNop(logger),
		clock:     func() time.Time { return time.Now().UTC() },
		gitCommit: gitCommitHash,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithGitCommit overrides how the commit hash is resolved.
func (p *Pipeline) WithGitCommit(fn func() string) *Pipeline {
	p.gitCommit = fn
	return p
}

// WithConsole prints summary tables to w after a run.
func (p *Pipeline) WithConsole(w io.Writer) *Pipeline {
	p.console = w
	return p
}

// WithoutCharts skips PNG rendering.
func (p *Pipeline) WithoutCharts() *Pipeline {
	p.skipCharts = true
	return p
}

// Metrics exposes the run metrics.
func (p *Pipeline) Metrics() *observability.Metrics {
	return p.metrics
}

func (p *Pipeline) processedDir() string {
	return filepath.Join(p.cfg.ResultsDir, reporting.ProcessedDir)
}

// stage runs fn, logging and timing it. fn returns the number of rows it handled.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Info("stage started", zap.String("stage", name))
	start := time.Now()
	rows, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		p.metrics.RecordStageError(name)
		p.logger.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	p.metrics.ObserveStage(name, elapsed, rows)
	p.logger.Info("stage finished",
		zap.String("stage", name),
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed))
	return nil
}

// Load reads the raw tables, writes processed/order_totals.csv and stores
// the orders.
func (p *Pipeline) Load(ctx context.Context) (*loader.Result, error) {
	var res *loader.Result
	err := p.stage(ctx, StageLoad, func() (int, error) {
		var err error
		res, err = loader.New(p.cfg.DataDir, p.logger).Load(ctx)
		if err != nil {
			return 0, err
		}
		if _, err := loader.WriteOrdersFile(p.processedDir(), res.Orders); err != nil {
			return 0, fmt.Errorf("write order totals: %w", err)
		}
		if err := p.storeOrders(ctx, res.Orders); err != nil {
			return 0, err
		}
		return len(res.Orders), nil
	})
	return res, err
}

// storeOrders makes the order store hold exactly orders. A store with the
// same data version is left alone; a different dataset is replaced.
func (p *Pipeline) storeOrders(ctx context.Context, orders []*domain.Order) error {
	n, err := p.stores.Orders.Count(ctx)
	if err != nil {
		return fmt.Errorf("count stored orders: %w", err)
	}
	if n == 0 {
		if err := p.stores.Orders.InsertBulk(ctx, orders); err != nil {
			return fmt.Errorf("store orders: %w", err)
		}
		return nil
	}

	stored, err := p.stores.Orders.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read stored orders: %w", err)
	}
	storedVersion, loadedVersion := idhash.ComputeDataVersion(stored), idhash.ComputeDataVersion(orders)
	if storedVersion == loadedVersion {
		p.logger.Debug("order store up to date", zap.String("data_version", loadedVersion))
		return nil
	}

	p.logger.Warn("order store holds a different dataset, replacing it",
		zap.String("stored_version", storedVersion), zap.Int("stored", n),
		zap.String("loaded_version", loadedVersion), zap.Int("loaded", len(orders)))
	if err := p.stores.Orders.Replace(ctx, orders); err != nil {
		return fmt.Errorf("replace orders: %w", err)
	}
	return nil
}

// Validate runs the quality checks over a load.
func (p *Pipeline) Validate(ctx context.Context, res *loader.Result) (*quality.Report, error) {
	var qr *quality.Report
	err := p.stage(ctx, StageValidate, func() (int, error) {
		v := quality.NewValidator(p.cfg.Segments.Bounds(), p.cfg.Experiment.Alpha, p.cfg.Treatment.Threshold, p.logger)
		qr = v.Validate(res.Orders, quality.LoadStats{
			MissingValues:     res.MissingValues,
			DuplicateOrderIDs: len(res.DuplicateOrderIDs),
		})
		return len(qr.Checks), nil
	})
	return qr, err
}

// Design sizes the experiment.
func (p *Pipeline) Design(ctx context.Context, orders []*domain.Order) (*design.Plan, error) {
	var plan *design.Plan
	err := p.stage(ctx, StageDesign, func() (int, error) {
		var err error
		plan, err = design.NewDesigner(p.designParams(), p.logger).Design(orders)
		if err != nil {
			return 0, err
		}
		return plan.SampleSize, nil
	})
	return plan, err
}

// LoadOrders returns the processed order table when one exists, otherwise
// it loads the raw tables.
func (p *Pipeline) LoadOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := loader.ReadOrdersFile(p.processedDir())
	if err == nil {
		p.logger.Info("using processed orders", zap.Int("orders", len(orders)))
		return orders, nil
	}
	var se *loader.SchemaError
	if !errors.As(err, &se) {
		return nil, err
	}
	res, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	return res.Orders, nil
}

// WriteValidation writes processed/validation_report.csv.
func (p *Pipeline) WriteValidation(qr *quality.Report) (string, error) {
	return p.writeProcessed(reporting.CSVValidationReport, reporting.RenderValidationCSV(qr.Checks))
}

// WriteDesign writes processed/experiment_design.csv. Balance fields stay
// empty because no assignment exists yet.
func (p *Pipeline) WriteDesign(plan *design.Plan) (string, error) {
	return p.writeProcessed(reporting.CSVExperimentDesign, reporting.RenderDesignCSV(plan, design.Balance{PValue: math.NaN()}))
}

func (p *Pipeline) writeProcessed(name, content string) (string, error) {
	if err := os.MkdirAll(p.processedDir(), 0755); err != nil {
		return "", err
	}
	path := filepath.Join(p.processedDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Run executes every stage and writes all artifacts under the results directory.
func (p *Pipeline) Run(ctx context.Context) (out *Output, err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		p.metrics.RecordRun(status, p.clock())
		if mkErr := os.MkdirAll(p.cfg.ResultsDir, 0755); mkErr == nil {
			if werr := p.metrics.WriteFile(filepath.Join(p.cfg.ResultsDir, MetricsFile)); werr != nil {
				p.logger.Warn("metrics not written", zap.Error(werr))
			}
		}
	}()

	model, err := p.responseModel()
	if err != nil {
		return nil, err
	}

	// 1. Load
	loaded, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	orders := loaded.Orders
	dataVersion := idhash.ComputeDataVersion(orders)

	// 2. Validate (failures annotate, never halt)
	qr, err := p.Validate(ctx, loaded)
	if err != nil {
		return nil, err
	}
	p.recordQuality(qr)

	// 3. Design
	plan, err := p.Design(ctx, orders)
	if err != nil {
		return nil, err
	}

	run := domain.RunRecord{
		RunID:       p.runID(dataVersion, plan.SampleSize),
		DataVersion: dataVersion,
		Seed:        p.cfg.Experiment.Seed,
		Orders:      len(orders),
		SampleSize:  plan.SampleSize,
	}
	log := p.logger.With(zap.String("run_id", run.RunID))
	log.Info("run identified", zap.String("data_version", dataVersion), zap.Uint64("seed", run.Seed))

	// 4. Simulate
	var (
		assignment *domain.Assignment
		sim        *simulation.Result
	)
	err = p.stage(ctx, StageSimulate, func() (int, error) {
		runner := simulation.NewRunner(simulation.RunnerOptions{
			Model:        model,
			Bounds:       p.cfg.Segments.Bounds(),
			OutcomeStore: p.stores.Outcomes,
			Logger:       log,
		})
		var err error
		assignment, sim, err = runner.Run(ctx, run.RunID, orders, plan.SampleSize, run.Seed)
		if err != nil {
			return 0, err
		}
		return len(sim.Outcomes), nil
	})
	if err != nil {
		return nil, err
	}
	balance := design.CheckBalance(orders, assignment, p.cfg.Experiment.Alpha)
	p.metrics.SampleSize.Set(float64(plan.SampleSize))
	p.metrics.Responders.Set(float64(sim.Summary.Responders))

	// 5. Analyze
	var res *analysis.Analysis
	err = p.stage(ctx, StageAnalyze, func() (int, error) {
		var err error
		res, err = analysis.NewAnalyzer(p.analysisParams(), log).Analyze(run.RunID, sim.Outcomes)
		if err != nil {
			return 0, err
		}
		if err := p.storeResults(ctx, res.Results()); err != nil {
			return 0, err
		}
		return len(res.Results()), nil
	})
	if err != nil {
		return nil, err
	}
	p.recordAnalysis(res)

	// 6. Decide for the preferred strategy
	var dec *decision.DecisionResult
	err = p.stage(ctx, StageDecide, func() (int, error) {
		in, err := decision.NewBuilder(p.cfg.Experiment.Alpha).Build(res, plan, qr, res.Strategies.Preferred)
		if err != nil {
			return 0, err
		}
		dec, err = decision.NewEvaluator().Evaluate(*in)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	run.Decision = string(dec.Decision)
	run.Strategy = dec.Strategy
	run.CreatedAt = p.clock().UnixMilli()
	if err := p.stores.Runs.Upsert(ctx, &run); err != nil {
		return nil, fmt.Errorf("store run: %w", err)
	}

	// 7. Report
	out = &Output{Run: run, Decision: dec}
	err = p.stage(ctx, StageReport, func() (int, error) {
		gen := reporting.NewGenerator(p.stores.Results, metrics.NewAggregator(p.stores.Outcomes)).
			WithClock(p.clock)
		r, err := gen.Generate(ctx, reporting.Inputs{
			Run:          run,
			GitCommit:    p.gitCommit(),
			Bounds:       p.cfg.Segments.Bounds(),
			Threshold:    p.cfg.Treatment.Threshold,
			ResponseRate: p.cfg.Treatment.ResponseRate,
			Load:         loaded,
			Quality:      qr,
			Plan:         plan,
			Balance:      balance,
			Sim:          sim,
			Analysis:     res,
			Decision:     dec,
		})
		if err != nil {
			return 0, err
		}
		out.Report = r

		files, err := reporting.WriteAll(p.cfg.ResultsDir, r, reporting.WriteOptions{SkipCharts: p.skipCharts})
		out.Files = files
		if err != nil {
			return len(files), err
		}
		if p.console != nil {
			reporting.NewConsole(p.console).PrintSummary(r)
		}
		return len(files), nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("run complete",
		zap.String("decision", run.Decision),
		zap.String("strategy", run.Strategy),
		zap.Int("files", len(out.Files)))
	return out, nil
}

// storeResults inserts test results. Results of a deterministic run that
// are already stored are kept.
func (p *Pipeline) storeResults(ctx context.Context, results []*domain.TestResult) error {
	err := p.stores.Results.InsertBulk(ctx, results)
	if errors.Is(err, storage.ErrDuplicateKey) {
		p.logger.Info("test results already stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store test results: %w", err)
	}
	return nil
}

func (p *Pipeline) recordQuality(qr *quality.Report) {
	counts := map[domain.CheckStatus]int{}
	for _, c := range qr.Checks {
		counts[c.Status]++
	}
	for _, s := range []domain.CheckStatus{domain.CheckPass, domain.CheckFail, domain.CheckAcknowledged} {
		p.metrics.QualityChecks.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}

func (p *Pipeline) recordAnalysis(res *analysis.Analysis) {
	for _, r := range res.Results() {
		p.metrics.EffectPValue.WithLabelValues(r.Scope).Set(r.PValue)
	}
	for _, s := range []domain.StrategyOutcome{res.Strategies.Universal, res.Strategies.Targeted} {
		p.metrics.NetImpact.WithLabelValues(s.Name).Set(s.NetImpact.InexactFloat64())
	}
}

func (p *Pipeline) responseModel() (simulation.ThresholdTopUp, error) {
	m := simulation.ThresholdTopUp{
		Limit:  p.cfg.Treatment.Threshold,
		Rate:   p.cfg.Treatment.ResponseRate,
		MinAdd: p.cfg.Treatment.MinAdd,
		MaxAdd: p.cfg.Treatment.MaxAdd,
	}
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("response model: %w", err)
	}
	return m, nil
}

func (p *Pipeline) designParams() design.Params {
	return design.Params{
		Alpha:  p.cfg.Experiment.Alpha,
		Power:  p.cfg.Experiment.Power,
		MDEPct: p.cfg.Experiment.MDEPct,
		Bounds: p.cfg.Segments.Bounds(),
	}
}

func (p *Pipeline) analysisParams() analysis.Params {
	params := analysis.DefaultParams()
	params.Alpha = p.cfg.Experiment.Alpha
	params.Power = p.cfg.Experiment.Power
	params.Threshold = p.cfg.Treatment.Threshold
	params.ImplementationCost = decimal.NewFromFloat(p.cfg.Economics.ImplementationCost)
	params.BootstrapIterations = p.cfg.Analysis.BootstrapIterations
	params.Seed = p.cfg.Experiment.Seed
	return params
}

func (p *Pipeline) runID(dataVersion string, sampleSize int) string {
	return idhash.ComputeRunID(dataVersion, idhash.RunParams{
		Seed:               p.cfg.Experiment.Seed,
		SampleSize:         sampleSize,
		Alpha:              p.cfg.Experiment.Alpha,
		Power:              p.cfg.Experiment.Power,
		Threshold:          p.cfg.Treatment.Threshold,
		ResponseRate:       p.cfg.Treatment.ResponseRate,
		MinAdd:             p.cfg.Treatment.MinAdd,
		MaxAdd:             p.cfg.Treatment.MaxAdd,
		SmallMax:           p.cfg.Segments.SmallMax,
		MediumMax:          p.cfg.Segments.MediumMax,
		ImplementationCost: p.cfg.Economics.ImplementationCost,
		Bootstrap:          p.cfg.Analysis.BootstrapIterations,
	})
}
