package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.05, cfg.Experiment.Alpha)
	assert.Equal(t, 0.80, cfg.Experiment.Power)
	assert.Equal(t, 5.0, cfg.Experiment.MDEPct)
	assert.Equal(t, uint64(42), cfg.Experiment.Seed)
	assert.Equal(t, 75.0, cfg.Segments.SmallMax)
	assert.Equal(t, 150.0, cfg.Segments.MediumMax)
	assert.Equal(t, 100.0, cfg.Treatment.Threshold)
	assert.Equal(t, 0.40, cfg.Treatment.ResponseRate)
	assert.Equal(t, 15.0, cfg.Treatment.MinAdd)
	assert.Equal(t, 35.0, cfg.Treatment.MaxAdd)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
	assert.Zero(t, cfg.Serve.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abtest.yaml")
	content := `
data_dir: /data/olist
treatment:
  threshold: 120
  response_rate: 0.25
segments:
  small_max: 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("ABTEST_EXPERIMENT_SEED", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/olist", cfg.DataDir)
	assert.Equal(t, 120.0, cfg.Treatment.Threshold)
	assert.Equal(t, 0.25, cfg.Treatment.ResponseRate)
	assert.Equal(t, 60.0, cfg.Segments.SmallMax)
	assert.Equal(t, 150.0, cfg.Segments.MediumMax)
	assert.Equal(t, uint64(7), cfg.Experiment.Seed)
}

func TestLoad_ServeInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serve:\n  addr: 127.0.0.1:9090\n  interval: 90s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Serve.Addr)
	assert.Equal(t, 90*time.Second, cfg.Serve.Interval)

	t.Setenv("ABTEST_SERVE_INTERVAL", "1h30m")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Serve.Interval)

	t.Setenv("ABTEST_SERVE_INTERVAL", "soon")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"alpha out of range", func(c *Config) { c.Experiment.Alpha = 1.5 }},
		{"power zero", func(c *Config) { c.Experiment.Power = 0 }},
		{"response rate above one", func(c *Config) { c.Treatment.ResponseRate = 1.2 }},
		{"segments not increasing", func(c *Config) { c.Segments.MediumMax = c.Segments.SmallMax }},
		{"add range inverted", func(c *Config) { c.Treatment.MaxAdd = c.Treatment.MinAdd - 1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad clickhouse dsn", func(c *Config) { c.Storage.ClickhouseDSN = "tcp://localhost:9000" }},
		{"negative serve interval", func(c *Config) { c.Serve.Interval = -time.Second }},
		{"empty serve addr", func(c *Config) { c.Serve.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSegmentConfig_Bounds(t *testing.T) {
	b := Default().Segments.Bounds()
	assert.NoError(t, b.Validate())
	assert.Equal(t, 75.0, b.SmallMax)
}
