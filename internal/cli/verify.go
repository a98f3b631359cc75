package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"free-shipping-lab/internal/pipeline"
	"free-shipping-lab/internal/verification"
)

// ErrNotReproducible is returned when a replay diverges from the stored run.
var ErrNotReproducible = errors.New("replayed run diverges from stored run")

func newVerifyCommand(opts *options) *cobra.Command {
	var maxShown int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the configured run and compare it with the stored one",
		Long: `Verify replays the pipeline with the current configuration on in-memory
stores and compares every outcome and test result with what the
configured stores hold for the same run id. Use it against PostgreSQL and
ClickHouse to confirm a past run is reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, stores, cleanup, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer cleanup()

			tmp, err := os.MkdirTemp("", "abtest-verify-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)

			replayCfg := *cfg
			replayCfg.ResultsDir = tmp
			replayStores := pipeline.MemoryStores()
			out, err := pipeline.New(&replayCfg, replayStores, logger).WithoutCharts().Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			v := verification.NewVerifier(
				verification.Source{Outcomes: stores.Outcomes, Results: stores.Results},
				verification.Source{Outcomes: replayStores.Outcomes, Results: replayStores.Results},
			)
			rep, err := v.VerifyRun(cmd.Context(), out.Run.RunID)
			if err != nil {
				return err
			}
			printVerification(cmd, rep, maxShown)
			if !rep.Match() {
				logger.Warn("run not reproducible", zap.String("run_id", rep.RunID))
				return ErrNotReproducible
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxShown, "max-divergences", 10, "divergent orders to print")
	return cmd
}

func printVerification(cmd *cobra.Command, rep *verification.Report, maxShown int) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s\n", rep.RunID)
	fmt.Fprintf(w, "Outcomes: %d stored, %d replayed, %d matched\n",
		rep.StoredOutcomes, rep.ReplayedOutcomes, rep.MatchedOutcomes)
	if n := len(rep.MissingOutcomes); n > 0 {
		fmt.Fprintf(w, "Missing from store: %d\n", n)
	}
	if n := len(rep.ExtraOutcomes); n > 0 {
		fmt.Fprintf(w, "Only in store: %d\n", n)
	}
	for i, od := range rep.Outcomes {
		if i == maxShown {
			fmt.Fprintf(w, "... %d more divergent orders\n", len(rep.Outcomes)-maxShown)
			break
		}
		for _, d := range od.Divergences {
			fmt.Fprintf(w, "  order %s %s\n", od.OrderID, d)
		}
	}
	for _, rd := range rep.Results {
		for _, d := range rd.Divergences {
			fmt.Fprintf(w, "  result %s %s\n", rd.Scope, d)
		}
	}
	if rep.Match() {
		fmt.Fprintln(w, "Reproducible: yes")
	} else {
		fmt.Fprintln(w, "Reproducible: no")
	}
}
