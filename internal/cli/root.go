// Package cli provides the abtest command tree.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/pipeline"
)

// Version is set at build time with -ldflags "-X free-shipping-lab/internal/cli.Version=..."
var Version = "dev"

// options holds flag values shared by all commands.
type options struct {
	configFile string
	verbose    bool
	noCharts   bool

	dataDir            string
	resultsDir         string
	seed               uint64
	responseRate       float64
	threshold          float64
	minAdd             float64
	maxAdd             float64
	smallMax           float64
	mediumMax          float64
	alpha              float64
	power              float64
	mdePct             float64
	bootstrap          int
	implementationCost float64
	postgresDSN        string
	clickhouseDSN      string

	// serve only
	addr     string
	interval time.Duration
}

// NewRootCommand builds the abtest command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "abtest",
		Short: "Simulate and evaluate a free-shipping threshold A/B test",
		Long: `abtest loads historical orders, validates them, sizes an experiment,
simulates a free-shipping threshold for a treatment group and reports
whether, and for which basket sizes, the promotion pays off.

Examples:
  abtest run --data-dir data/raw --results-dir results
  abtest run --threshold 120 --response-rate 0.3 --seed 7
  abtest validate --data-dir data/raw
  abtest migrate --postgres-dsn postgres://localhost/abtest`,
		SilenceUsage: true,
	}

	bindFlags(root.PersistentFlags(), opts, config.Default())

	root.AddCommand(
		newRunCommand(opts),
		newLoadCommand(opts),
		newValidateCommand(opts),
		newDesignCommand(opts),
		newServeCommand(opts),
		newVerifyCommand(opts),
		newMigrateCommand(opts),
		newFixturesCommand(opts),
		newVersionCommand(),
	)
	return root
}

// bindFlags registers the shared flags on pf with defaults taken from def.
func bindFlags(pf *pflag.FlagSet, opts *options, def *config.Config) {
	pf.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.dataDir, "data-dir", def.DataDir, "directory with the source CSV files")
	pf.StringVar(&opts.resultsDir, "results-dir", def.ResultsDir, "directory for reports, tables and figures")
	pf.Uint64Var(&opts.seed, "seed", def.Experiment.Seed, "random seed for sampling, assignment and response")
	pf.Float64Var(&opts.responseRate, "response-rate", def.Treatment.ResponseRate, "share of eligible treatment customers who top up")
	pf.Float64Var(&opts.threshold, "threshold", def.Treatment.Threshold, "free-shipping threshold ($)")
	pf.Float64Var(&opts.minAdd, "min-add", def.Treatment.MinAdd, "minimum extra spend above the gap to the threshold ($)")
	pf.Float64Var(&opts.maxAdd, "max-add", def.Treatment.MaxAdd, "maximum extra spend above the gap to the threshold ($)")
	pf.Float64Var(&opts.smallMax, "small-max", def.Segments.SmallMax, "upper bound of the small basket segment ($)")
	pf.Float64Var(&opts.mediumMax, "medium-max", def.Segments.MediumMax, "upper bound of the medium basket segment ($)")
	pf.Float64Var(&opts.alpha, "alpha", def.Experiment.Alpha, "significance level")
	pf.Float64Var(&opts.power, "power", def.Experiment.Power, "target statistical power")
	pf.Float64Var(&opts.mdePct, "mde-pct", def.Experiment.MDEPct, "minimum detectable effect, percent of baseline mean")
	pf.IntVar(&opts.bootstrap, "bootstrap", def.Analysis.BootstrapIterations, "bootstrap iterations for CIs (0 disables)")
	pf.Float64Var(&opts.implementationCost, "implementation-cost", def.Economics.ImplementationCost, "fixed rollout cost charged to each strategy ($)")
	pf.StringVar(&opts.postgresDSN, "postgres-dsn", "", "PostgreSQL DSN for orders, outcomes and runs")
	pf.StringVar(&opts.clickhouseDSN, "clickhouse-dsn", "", "ClickHouse DSN for test results (clickhouse://...)")
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig merges the config file, environment and explicitly set flags.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("data-dir", func() { cfg.DataDir = opts.dataDir })
	set("results-dir", func() { cfg.ResultsDir = opts.resultsDir })
	set("seed", func() { cfg.Experiment.Seed = opts.seed })
	set("response-rate", func() { cfg.Treatment.ResponseRate = opts.responseRate })
	set("threshold", func() { cfg.Treatment.Threshold = opts.threshold })
	set("min-add", func() { cfg.Treatment.MinAdd = opts.minAdd })
	set("max-add", func() { cfg.Treatment.MaxAdd = opts.maxAdd })
	set("small-max", func() { cfg.Segments.SmallMax = opts.smallMax })
	set("medium-max", func() { cfg.Segments.MediumMax = opts.mediumMax })
	set("alpha", func() { cfg.Experiment.Alpha = opts.alpha })
	set("power", func() { cfg.Experiment.Power = opts.power })
	set("mde-pct", func() { cfg.Experiment.MDEPct = opts.mdePct })
	set("bootstrap", func() { cfg.Analysis.BootstrapIterations = opts.bootstrap })
	set("implementation-cost", func() { cfg.Economics.ImplementationCost = opts.implementationCost })
	set("postgres-dsn", func() { cfg.Storage.PostgresDSN = opts.postgresDSN })
	set("clickhouse-dsn", func() { cfg.Storage.ClickhouseDSN = opts.clickhouseDSN })
	set("addr", func() { cfg.Serve.Addr = opts.addr })
	set("interval", func() { cfg.Serve.Interval = opts.interval })
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config, builds the logger and opens the stores. cleanup closes
// the stores, then flushes and closes the logger.
func setup(cmd *cobra.Command, opts *options, migrate bool) (*config.Config, *zap.Logger, *pipeline.Stores, func(), error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	stores, err := pipeline.OpenStores(cmd.Context(), cfg.Storage, migrate, logger)
	if err != nil {
		closeLog()
		return nil, nil, nil, nil, err
	}
	cleanup := func() {
		stores.Close()
		closeLog()
	}
	return cfg, logger, stores, cleanup, nil
}
