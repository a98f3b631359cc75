package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/loader"
	"free-shipping-lab/internal/reporting"
	"free-shipping-lab/internal/verification"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "abtest dev")
}

func TestFixturesThenRun(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "raw")
	resultsDir := filepath.Join(t.TempDir(), "results")

	out, err := execute(t, "fixtures", "--data-dir", dataDir, "--orders", "2000", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2000 synthetic orders")
	assert.FileExists(t, filepath.Join(dataDir, loader.OrdersFile))

	out, err = execute(t, "run", "--data-dir", dataDir, "--results-dir", resultsDir, "--no-charts", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Run ")
	assert.NotContains(t, out, "\x1b[", "console output to a buffer must be unstyled")

	assert.FileExists(t, filepath.Join(resultsDir, reporting.ReportFile))
	assert.FileExists(t, filepath.Join(resultsDir, reporting.SummaryFile))
	assert.NoDirExists(t, filepath.Join(resultsDir, reporting.FiguresDir))
}

func TestStageCommands(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "raw")
	resultsDir := filepath.Join(t.TempDir(), "results")
	common := []string{"--data-dir", dataDir, "--results-dir", resultsDir}

	_, err := execute(t, append([]string{"fixtures", "--orders", "800"}, common...)...)
	require.NoError(t, err)

	out, err := execute(t, append([]string{"load"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 800 orders")

	out, err = execute(t, append([]string{"validate"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation report:")
	assert.FileExists(t, filepath.Join(resultsDir, reporting.ProcessedDir, reporting.CSVValidationReport))

	out, err = execute(t, append([]string{"design", "--mde-pct", "10"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Required per group:")
	assert.Contains(t, out, "(10.0%)")
	assert.FileExists(t, filepath.Join(resultsDir, reporting.ProcessedDir, reporting.CSVExperimentDesign))
}

func TestLoad_MissingData(t *testing.T) {
	_, err := execute(t, "load", "--data-dir", filepath.Join(t.TempDir(), "absent"), "--results-dir", t.TempDir())
	assert.Error(t, err)
}

func TestMigrate_RequiresDSN(t *testing.T) {
	_, err := execute(t, "migrate", "--results-dir", t.TempDir())
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	opts := &options{}
	cmd := &cobra.Command{Use: "stage"}
	bindFlags(cmd.Flags(), opts, config.Default())
	require.NoError(t, cmd.ParseFlags([]string{"--seed", "9", "--threshold", "80", "--verbose"}))

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), cfg.Experiment.Seed)
	assert.Equal(t, 80.0, cfg.Treatment.Threshold)
	assert.Equal(t, "debug", cfg.Logging.Level)

	def := config.Default()
	assert.Equal(t, def.DataDir, cfg.DataDir, "unset flags keep config values")
	assert.Equal(t, def.Treatment.ResponseRate, cfg.Treatment.ResponseRate)
}

func TestLoadConfig_ServeSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serve:\n  addr: 127.0.0.1:9191\n  interval: 6h\n"), 0644))

	tests := []struct {
		name     string
		args     []string
		interval time.Duration
	}{
		{"from config file", []string{"--config", path}, 6 * time.Hour},
		{"flag overrides file", []string{"--config", path, "--interval", "15m"}, 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &options{}
			cmd := newServeCommand(opts)
			bindFlags(cmd.Flags(), opts, config.Default())
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg, err := loadConfig(cmd, opts)
			require.NoError(t, err)
			assert.Equal(t, "127.0.0.1:9191", cfg.Serve.Addr)
			assert.Equal(t, tt.interval, cfg.Serve.Interval)
		})
	}
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	_, err := execute(t, "design", "--alpha", "1.5", "--data-dir", t.TempDir(), "--results-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestMain(m *testing.M) {
	// Keep a developer's ABTEST_* environment out of the tests.
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, config.EnvPrefix+"_") {
			_ = os.Unsetenv(key)
		}
	}
	os.Exit(m.Run())
}

func TestVerify_WithoutStoredRun(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "raw")
	_, err := execute(t, "fixtures", "--data-dir", dataDir, "--orders", "2000")
	require.NoError(t, err)

	// Memory stores start empty on every invocation, so nothing is stored.
	_, err = execute(t, "verify", "--data-dir", dataDir, "--results-dir", t.TempDir())
	assert.ErrorIs(t, err, verification.ErrRunNotStored)
}
