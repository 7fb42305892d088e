// Package tui provides a Bubble Tea-based terminal UI for teardown runs.
package tui

import "github.com/tsviz/arc-config-mcp-sub003/internal/teardown"

// PhaseMsg reports a phase starting or settling.
type PhaseMsg struct {
	Phase  string
	Status teardown.PhaseStatus
	Active bool
	Detail string
}

// ProgressMsg carries per-phase completion counts.
type ProgressMsg struct {
	Phase   string
	Current int
	Total   int
}

// ResourceMsg reports a single resource operation, shown as the live
// status line under the active phase.
type ResourceMsg struct {
	Phase    string
	Resource string
	Failed   bool
}

// TickMsg is sent periodically to refresh the spinner and elapsed time.
type TickMsg struct{}

// ErrMsg carries a run-aborting error.
type ErrMsg struct{ Err error }

// DoneMsg signals the run finished and carries the final report.
type DoneMsg struct{ Report *teardown.FinalReport }
