package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/loader"
)

// datasetDir returns the directory holding the public e-commerce dataset,
// from ABTEST_E2E_DATA_DIR or data/raw at the module root.
func datasetDir(t *testing.T) string {
	t.Helper()
	if dir := os.Getenv("ABTEST_E2E_DATA_DIR"); dir != "" {
		return dir
	}
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "data", "raw")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func TestEndToEnd_Dataset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping dataset run in short mode")
	}
	dir := datasetDir(t)
	if _, err := os.Stat(filepath.Join(dir, loader.OrdersFile)); err != nil {
		t.Skipf("dataset not present in %q", dir)
	}

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.ResultsDir = t.TempDir()

	out, err := newTestPipeline(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 98666, out.Run.Orders)

	overall := out.Report.Overall()
	require.NotNil(t, overall)
	assert.InDelta(t, -0.50, overall.PercentChange, 2.0)
	assert.False(t, overall.Significant)

	small := out.Report.SegmentResult(domain.SegmentSmall)
	require.NotNil(t, small)
	assert.InDelta(t, 36.0, small.PercentChange, 6.0)
	assert.Less(t, small.PValue, 0.0001)
	assert.True(t, out.Report.SimpsonsParadox)
}
