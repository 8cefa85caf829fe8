package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ward-cli/ward/internal/domain"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Summary prints the one-line run report to w.
func Summary(w io.Writer, result domain.RunResult, verdict domain.Verdict) {
	state := okStyle.Render("OK")
	if !verdict.OK {
		state = failStyle.Render("FAILED")
	}
	elapsed := dimStyle.Render(fmt.Sprintf("(%.2fs)", result.Duration().Seconds()))
	fmt.Fprintf(w, "%s %s %s\n", state, verdict.Description, elapsed)
}
