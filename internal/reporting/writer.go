package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"free-shipping-lab/internal/decision"
)

// Output layout under the results directory.
const (
	ProcessedDir       = "processed"
	FiguresDir         = "figures"
	ReportFile         = "REPORT.md"
	DecisionReportFile = "DECISION_GATE_REPORT.md"
	SummaryFile        = "summary.json"
)

// WriteOptions controls what WriteAll produces.
type WriteOptions struct {
	SkipCharts bool
}

type artifact struct {
	path    string
	content string
}

// WriteAll writes every artifact of r under dir and returns the written paths.
func WriteAll(dir string, r *Report, opts WriteOptions) ([]string, error) {
	processed := filepath.Join(dir, ProcessedDir)
	figures := filepath.Join(dir, FiguresDir)
	for _, d := range []string{processed, figures} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}

	files := []artifact{
		{filepath.Join(processed, CSVExperimentDesign), RenderDesignCSV(r.Plan, r.Balance)},
		{filepath.Join(processed, CSVExperimentResults), RenderExperimentResultsCSV(r.Simulation, r.GroupMetrics)},
		{filepath.Join(processed, CSVAnalysisResults), RenderAnalysisCSV(r.Results)},
		{filepath.Join(processed, CSVSegmentResults), RenderSegmentResultsCSV(r.Results)},
		{filepath.Join(processed, CSVSegmentEconomics), RenderSegmentEconomicsCSV(r.Economics)},
		{filepath.Join(processed, CSVStrategyComparison), RenderStrategyCSV(r.Strategies)},
		{filepath.Join(dir, ReportFile), RenderMarkdown(r)},
	}
	if r.Quality != nil {
		files = append(files, artifact{filepath.Join(processed, CSVValidationReport), RenderValidationCSV(r.Quality.Checks)})
	}
	if r.Decision != nil {
		files = append(files, artifact{filepath.Join(dir, DecisionReportFile), decision.RenderMarkdown(r.Decision)})
	}

	var written []string
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", f.path, err)
		}
		written = append(written, f.path)
	}

	summary, err := RenderSummaryJSON(r)
	if err != nil {
		return written, fmt.Errorf("render summary: %w", err)
	}
	summaryPath := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(summaryPath, summary, 0o644); err != nil {
		return written, fmt.Errorf("write %s: %w", summaryPath, err)
	}
	written = append(written, summaryPath)

	if !opts.SkipCharts {
		charts, err := WriteCharts(figures, r)
		written = append(written, charts...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
