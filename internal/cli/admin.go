package cli

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/pipeline"
)

// ErrNoStorage is returned by migrate when no database DSN is configured.
var ErrNoStorage = errors.New("no database configured: set --postgres-dsn or --clickhouse-dsn")

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
				return ErrNoStorage
			}
			logger, closeLog, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer closeLog()

			stores, err := pipeline.OpenStores(cmd.Context(), cfg.Storage, true, logger)
			if err != nil {
				return err
			}
			stores.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newFixturesCommand(opts *options) *cobra.Command {
	var orders int
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Write a synthetic dataset into the data directory",
		Long: `Fixtures writes orders, items, customers and payments tables with the
same layout as the public e-commerce dataset, so the pipeline can run
without downloading it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer closeLog()

			if err := pipeline.WriteFixtures(cfg.DataDir, orders, cfg.Experiment.Seed); err != nil {
				return err
			}
			logger.Info("fixtures written", zap.String("dir", cfg.DataDir), zap.Int("orders", orders))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d synthetic orders to %s\n", orders, cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().IntVar(&orders, "orders", 5000, "number of orders to generate")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "abtest %s (report generator %s, %s)\n",
				Version, pipeline.GeneratorVersion, runtime.Version())
		},
	}
}
