package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"free-shipping-lab/internal/pipeline"
	"free-shipping-lab/internal/reporting"
)

func newLoadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the raw tables and write processed/order_totals.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := pipeline.New(cfg, stores, logger).Load(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Loaded %d orders from %s\n", len(res.Orders), cfg.DataDir)
			fmt.Fprintf(w, "Skipped rows with missing values: %d\n", res.MissingValues)
			fmt.Fprintf(w, "Duplicate order ids: %d\n", len(res.DuplicateOrderIDs))
			return nil
		},
	}
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the data quality checks and write processed/validation_report.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			p := pipeline.New(cfg, stores, logger)
			res, err := p.Load(cmd.Context())
			if err != nil {
				return err
			}
			qr, err := p.Validate(cmd.Context(), res)
			if err != nil {
				return err
			}
			path, err := p.WriteValidation(qr)
			if err != nil {
				return err
			}

			reporting.NewConsole(cmd.OutOrStdout()).PrintQuality(qr.Checks)
			fmt.Fprintf(cmd.OutOrStdout(), "\nValidation report: %s\n", path)
			return nil
		},
	}
}

func newDesignCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "design",
		Short: "Compute the required sample size and write processed/experiment_design.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			p := pipeline.New(cfg, stores, logger)
			orders, err := p.LoadOrders(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := p.Design(cmd.Context(), orders)
			if err != nil {
				return err
			}
			path, err := p.WriteDesign(plan)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Baseline mean order total: $%.2f (sd $%.2f)\n", plan.BaselineMean, plan.BaselineStd)
			fmt.Fprintf(w, "Minimum detectable effect: $%.2f (%.1f%%)\n", plan.MDEAbsolute, plan.Params.MDEPct)
			fmt.Fprintf(w, "Required per group: %d (total %d)\n", plan.PerGroup, plan.TotalRequired)
			fmt.Fprintf(w, "Available: %d, sample size: %d\n", plan.Available, plan.SampleSize)
			for _, warn := range plan.Warnings {
				fmt.Fprintf(w, "WARNING: %s\n", warn)
			}
			fmt.Fprintf(w, "Design table: %s\n", path)
			return nil
		},
	}
}
