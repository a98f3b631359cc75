package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"free-shipping-lab/internal/pipeline"
)

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full experiment pipeline",
		Long: `Run loads and validates the data, designs and simulates the experiment,
analyzes the outcome and writes the report, tables, figures and decision
gate under the results directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			p := pipeline.New(cfg, stores, logger).WithConsole(cmd.OutOrStdout())
			if opts.noCharts {
				p = p.WithoutCharts()
			}
			out, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("run complete",
				zap.String("run_id", out.Run.RunID),
				zap.Int("files", len(out.Files)))
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun %s wrote %d files to %s\n", out.Run.RunID, len(out.Files), cfg.ResultsDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.noCharts, "no-charts", false, "skip PNG figures")
	return cmd
}
