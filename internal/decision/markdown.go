package decision

import (
	"fmt"
	"io"
	"strings"
)

var verdictText = map[Decision]string{
	DecisionGO:               "Roll out. Every criterion is met and nothing blocks the change.",
	DecisionNOGO:             "Do not roll out.",
	DecisionInsufficientData: "Wait. Nothing blocks the change yet, but the sample is below the size needed to detect the target effect. Collect more orders before deciding.",
}

// RenderMarkdown renders the gate checklist of a result.
func RenderMarkdown(result *DecisionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Rollout Decision: %s\n\n", result.Decision)
	fmt.Fprintf(&sb, "Strategy **%s**, judged on the `%s` scope.\n\n", result.Strategy, result.Scope)
	sb.WriteString(verdictText[result.Decision])
	sb.WriteString("\n\n")

	if result.Decision == DecisionNOGO {
		for _, c := range result.Fired() {
			fmt.Fprintf(&sb, "- blocked by %s (%s)\n", strings.ToLower(c.Name), c.Observed)
		}
		for _, c := range result.Unmet() {
			fmt.Fprintf(&sb, "- missing %s (%s)\n", strings.ToLower(c.Name), c.Observed)
		}
		sb.WriteString("\n")
	}

	writeChecklist(&sb, "Criteria for GO", "met", "not met", result.Criteria, len(result.Criteria)-len(result.Unmet()))
	writeChecklist(&sb, "Triggers for NO-GO", "fired", "clear", result.Triggers, len(result.Fired()))
	return sb.String()
}

func writeChecklist(w io.Writer, title, yes, no string, checks []Check, count int) {
	fmt.Fprintf(w, "## %s (%d of %d %s)\n\n", title, count, len(checks), yes)
	fmt.Fprintln(w, "| Check | Condition | Observed | Status |")
	fmt.Fprintln(w, "|-------|-----------|----------|--------|")
	for _, c := range checks {
		status := no
		if c.Met {
			status = "**" + yes + "**"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", c.Name, c.Condition, c.Observed, status)
	}
	fmt.Fprintln(w)
}
