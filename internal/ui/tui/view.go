package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderPhases(&b, m)
	renderCounters(&b, m)
	if m.Report != nil {
		renderOutcome(&b, m)
	}
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("arcctl teardown: %s", m.Namespace)
	if m.DryRun {
		title += " (dry-run)"
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += okStyle.Render("Finished")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderPhases(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Phases"))
	b.WriteString("\n")

	for _, row := range m.Phases {
		mark, style := phaseMark(row, m.SpinnerFrame)
		line := fmt.Sprintf("  %s %s", mark, row.Name)
		if row.Total > 0 && row.Active {
			line += dimStyle.Render(fmt.Sprintf(" %d/%d", row.Current, row.Total))
		}
		if row.Detail != "" && row.Settled && row.Status != teardown.PhaseComplete {
			line += dimStyle.Render(" — " + row.Detail)
		}
		b.WriteString(style(line))
		b.WriteString("\n")

		if row.Active {
			if resource, ok := m.lastResource[row.Key]; ok && resource != "" {
				b.WriteString(dimStyle.Render("        " + resource))
				b.WriteString("\n")
			}
		}
	}
}

func phaseMark(row PhaseRow, frame int) (string, styleFunc) {
	switch {
	case row.Active:
		return currentSpinner(frame), sf(activeStyle)
	case !row.Settled:
		return pending, sf(dimStyle)
	}

	switch row.Status {
	case teardown.PhaseComplete:
		return checkMark, sf(okStyle)
	case teardown.PhasePartial:
		return warnMark, sf(warningStyle)
	case teardown.PhaseSkipped:
		return skipMark, sf(dimStyle)
	default:
		return crossMark, sf(failedStyle)
	}
}

func renderCounters(b *strings.Builder, m Model) {
	if m.Report == nil {
		return
	}
	c := m.Report.Counters
	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  discovered %d  stripped %d  deleted %d  orphaned %d\n",
		c.Discovered, c.Stripped, c.Deleted, c.Orphaned)
}

func renderOutcome(b *strings.Builder, m Model) {
	var banner string
	switch m.Report.Outcome {
	case teardown.OutcomeFullyClean:
		banner = okStyle.Render("fully clean")
	case teardown.OutcomePartial:
		banner = warningStyle.Render(fmt.Sprintf("partial — %d orphans", len(m.Report.Orphans)))
	default:
		banner = failedStyle.Render("emergency fallback used")
	}
	b.WriteString(sectionStyle.Render("  Outcome"))
	b.WriteString("\n  ")
	b.WriteString(banner)
	if m.Report.RootCause != "" && m.Report.Outcome != teardown.OutcomeFullyClean {
		b.WriteString(dimStyle.Render("  root cause: " + m.Report.RootCause))
	}
	b.WriteString("\n")

	for _, orphan := range m.Report.Orphans {
		b.WriteString(warningStyle.Render("    " + orphan.ID()))
		b.WriteString("\n")
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	if m.Report != nil {
		elapsed = m.Report.Elapsed.Round(time.Second)
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed %s · q to quit", elapsed)))
	b.WriteString("\n")
}

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}
