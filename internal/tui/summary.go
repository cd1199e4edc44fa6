package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/snoopflow/snoopflow/internal/report"
)

// RenderRunSummary draws the statistics of a finished run as a framed box.
func RenderRunSummary(rep *report.RunReport) string {
	row := func(key string, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, KeyStyle.Render(key), value)
	}

	balance := SuccessStyle.Render("balanced")
	if !rep.Balanced() {
		balance = WarningStyle.Render(fmt.Sprintf("off by %d", rep.Balance))
	}

	diagnostics := SuccessStyle.Render("none")
	if n := len(rep.Diagnostics); n > 0 {
		diagnostics = WarningStyle.Render(fmt.Sprintf("%d", n))
	}

	lines := []string{
		HeaderStyle.Render("snoopflow"),
		row("lines", fmt.Sprintf("%d", rep.Lines)),
		row("edges", fmt.Sprintf("%d (%s)", rep.Edges, SelfEdgeStyle.Render(fmt.Sprintf("%d self", rep.SelfEdges)))),
		row("files", fmt.Sprintf("%d", rep.Files)),
		row("max depth", fmt.Sprintf("%d", rep.MaxDepth)),
		row("stack", balance),
		row("warnings", diagnostics),
		MutedStyle.Render(fmt.Sprintf("%dms", rep.DurationMs)),
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}
