package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

// RunTeardown wraps a teardown run with the Bubble Tea display. The run
// function receives an observer wired to the program and executes in a
// background goroutine while the UI owns the terminal.
func RunTeardown(namespace string, dryRun bool, run func(teardown.Observer) (*teardown.FinalReport, error)) (*teardown.FinalReport, error) {
	m := NewTeardownModel(namespace, dryRun)
	p := tea.NewProgram(m, tea.WithAltScreen())

	var (
		report *teardown.FinalReport
		runErr error
	)
	go func() {
		report, runErr = run(NewProgramObserver(p))
		if runErr != nil {
			p.Send(ErrMsg{Err: runErr})
			return
		}
		p.Send(DoneMsg{Report: report})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return report, fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return report, fm.Err
	}
	return report, runErr
}
