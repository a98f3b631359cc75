package cli

import (
	"github.com/spf13/cobra"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/pipeline"
	"free-shipping-lab/internal/server"
)

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on a schedule and serve health, metrics and reports",
		Long: `Serve runs the pipeline at startup and then every --interval (config
serve.interval, e.g. "6h"), and exposes
  GET  /health        liveness
  GET  /metrics       Prometheus metrics of the pipeline
  GET  /status        scheduler state
  GET  /runs/latest   latest stored run record
  GET  /report        latest REPORT.md
  POST /run           start a run now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			p := pipeline.New(cfg, stores, logger)
			if opts.noCharts {
				p = p.WithoutCharts()
			}
			return server.New(p, stores.Runs, cfg.ResultsDir, cfg.Serve.Interval, logger).Serve(cmd.Context(), cfg.Serve.Addr)
		},
	}
	def := config.Default().Serve
	cmd.Flags().StringVar(&opts.addr, "addr", def.Addr, "HTTP listen address")
	cmd.Flags().DurationVar(&opts.interval, "interval", def.Interval, "time between scheduled runs (0 runs once at startup)")
	cmd.Flags().BoolVar(&opts.noCharts, "no-charts", false, "skip PNG figures")
	return cmd
}
