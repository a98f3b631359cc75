package pipeline

import (
	"bytes"
	"os/exec"
	"strings"
)

// gitCommitHash returns the short commit hash of the working directory, or
// "unknown" outside a git checkout.
func gitCommitHash() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "unknown"
	}
	return strings.TrimSpace(out.String())
}
