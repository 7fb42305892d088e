package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

// sender is the part of *tea.Program the observer needs.
type sender interface {
	Send(tea.Msg)
}

// ProgramObserver adapts teardown events into Bubble Tea messages.
type ProgramObserver struct {
	program sender
}

var _ teardown.Observer = (*ProgramObserver)(nil)

// NewProgramObserver creates an observer that feeds the given program.
func NewProgramObserver(program sender) *ProgramObserver {
	return &ProgramObserver{program: program}
}

// Printf implements teardown.Observer. Free-form lines would corrupt the
// rendered view, so they are dropped; the structured events carry
// everything the display needs.
func (o *ProgramObserver) Printf(string, ...interface{}) {}

// Event implements teardown.Observer.
func (o *ProgramObserver) Event(event teardown.Event) {
	switch event.Type {
	case teardown.EventPhaseStarted:
		o.program.Send(PhaseMsg{Phase: event.Phase, Active: true})
	case teardown.EventPhaseCompleted:
		o.program.Send(PhaseMsg{Phase: event.Phase, Status: teardown.PhaseComplete})
	case teardown.EventPhasePartial:
		o.program.Send(PhaseMsg{Phase: event.Phase, Status: teardown.PhasePartial, Detail: event.Message})
	case teardown.EventPhaseSkipped:
		o.program.Send(PhaseMsg{Phase: event.Phase, Status: teardown.PhaseSkipped, Detail: event.Message})
	case teardown.EventPhaseFailed:
		o.program.Send(PhaseMsg{Phase: event.Phase, Status: teardown.PhaseFailed, Detail: event.Message})
	case teardown.EventResourceStripped, teardown.EventResourceDeleted, teardown.EventResourceOrphaned:
		o.program.Send(ResourceMsg{Phase: event.Phase, Resource: event.Resource})
	case teardown.EventResourceFailed:
		o.program.Send(ResourceMsg{Phase: event.Phase, Resource: event.Resource, Failed: true})
	}
}

// Progress implements teardown.Observer.
func (o *ProgramObserver) Progress(phase string, current, total int) {
	o.program.Send(ProgressMsg{Phase: phase, Current: current, Total: total})
}
