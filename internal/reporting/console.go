package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"free-shipping-lab/internal/decision"
	"free-shipping-lab/internal/domain"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorGood   = lipgloss.Color("#2CD7C7")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorBad    = lipgloss.Color("#E74C3C")
	colorBorder = lipgloss.Color("#2C4A54")
)

// Console prints report tables to a terminal. Styling is dropped when the
// output is not a TTY.
type Console struct {
	w      io.Writer
	styled bool
}

// NewConsole creates a console writer. Styling is enabled when w is a terminal.
func NewConsole(w io.Writer) *Console {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{w: w, styled: styled}
}

// PrintSummary prints the headline tables of a report.
func (c *Console) PrintSummary(r *Report) {
	fmt.Fprintln(c.w, c.title("Free shipping experiment"))
	fmt.Fprintf(c.w, "run %s  data %s  seed %d  sample %d\n\n",
		r.Run.RunID, r.Run.DataVersion, r.Run.Seed, r.Run.SampleSize)

	if r.Quality != nil {
		c.PrintQuality(r.Quality.Checks)
	}
	c.PrintResults(r.Results)
	c.PrintStrategies(r.Strategies)
	if r.Decision != nil {
		c.PrintDecision(r.Decision)
	}
	for _, w := range r.Warnings {
		fmt.Fprintln(c.w, c.style(colorWarn, "! "+w))
	}
}

// PrintQuality prints the quality check table.
func (c *Console) PrintQuality(checks []domain.QualityCheck) {
	rows := make([][]string, len(checks))
	for i, q := range checks {
		rows[i] = []string{q.Name, q.Threshold, q.Actual, string(q.Status)}
	}
	c.printTable("Data quality", []string{"Check", "Threshold", "Actual", "Status"}, rows, 3)
}

// PrintResults prints the hypothesis test table.
func (c *Console) PrintResults(results []*domain.TestResult) {
	rows := make([][]string, len(results))
	for i, t := range results {
		rows[i] = []string{
			t.Scope,
			fmt.Sprintf("%d/%d", t.ControlN, t.TreatmentN),
			fmt.Sprintf("%.2f", t.ControlMean),
			fmt.Sprintf("%.2f", t.TreatmentMean),
			fmt.Sprintf("%+.2f%%", t.PercentChange),
			formatP(t.PValue),
			yesNo(t.Significant),
		}
	}
	c.printTable("Revenue per order", []string{"Scope", "N (C/T)", "Control", "Treatment", "Change", "p", "Significant"}, rows, -1)
}

// PrintStrategies prints the rollout strategy comparison.
func (c *Console) PrintStrategies(s domain.StrategyComparison) {
	var rows [][]string
	for _, o := range []domain.StrategyOutcome{s.Universal, s.Targeted} {
		rows = append(rows, []string{
			o.Name,
			fmt.Sprintf("%d", o.CustomersAffected),
			o.NetImpact.StringFixed(2),
			formatROI(o.ROIPct),
			string(o.Recommendation),
		})
	}
	c.printTable("Rollout strategies", []string{"Strategy", "Customers", "Net", "ROI", "Recommendation"}, rows, 4)
}

// PrintDecision prints the decision gate verdict.
func (c *Console) PrintDecision(d *decision.DecisionResult) {
	color := colorBad
	switch d.Decision {
	case decision.DecisionGO:
		color = colorGood
	case decision.DecisionInsufficientData:
		color = colorWarn
	}
	verdict := fmt.Sprintf("Decision (%s): %s", d.Strategy, d.Decision)
	if c.styled {
		verdict = lipgloss.NewStyle().
			Bold(true).
			Foreground(color).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Padding(0, 1).
			Render(verdict)
	}
	fmt.Fprintln(c.w, verdict)
	for _, t := range d.Fired() {
		fmt.Fprintf(c.w, "  blocked by %s (%s)\n", t.Name, t.Observed)
	}
	fmt.Fprintln(c.w)
}

// printTable renders one table. statusCol names a column whose cells are
// colored by verdict, -1 for none.
func (c *Console) printTable(title string, headers []string, rows [][]string, statusCol int) {
	fmt.Fprintln(c.w, c.title(title))

	t := table.New().
		Headers(headers...).
		Rows(rows...)
	if c.styled {
		t = t.Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
			StyleFunc(func(row, col int) lipgloss.Style {
				s := lipgloss.NewStyle().Padding(0, 1)
				if row == table.HeaderRow {
					return s.Bold(true).Foreground(colorAccent)
				}
				if col == statusCol && row >= 0 && row < len(rows) {
					return s.Foreground(verdictColor(rows[row][col]))
				}
				return s
			})
	} else {
		t = t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return lipgloss.NewStyle().Padding(0, 1)
			})
	}
	fmt.Fprintln(c.w, t.String())
	fmt.Fprintln(c.w)
}

func (c *Console) title(s string) string {
	if !c.styled {
		return "== " + s + " =="
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(s)
}

func (c *Console) style(color lipgloss.Color, s string) string {
	if !c.styled {
		return s
	}
	return lipgloss.NewStyle().Foreground(color).Render(s)
}

func verdictColor(v string) lipgloss.Color {
	switch strings.ToUpper(v) {
	case string(domain.CheckPass), string(domain.RecommendImplement):
		return colorGood
	case string(domain.CheckAcknowledged):
		return colorWarn
	default:
		return colorBad
	}
}
