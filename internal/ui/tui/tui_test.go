package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

func TestModel_PhaseLifecycle(t *testing.T) {
	m := NewTeardownModel("arc-systems", false)

	updated, _ := m.Update(PhaseMsg{Phase: "scan", Active: true})
	m = updated.(Model)
	row := m.row("scan")
	require.NotNil(t, row)
	assert.True(t, row.Active)
	assert.False(t, row.Settled)

	updated, _ = m.Update(PhaseMsg{Phase: "scan", Status: teardown.PhaseComplete})
	m = updated.(Model)
	row = m.row("scan")
	assert.False(t, row.Active)
	assert.True(t, row.Settled)
	assert.Equal(t, teardown.PhaseComplete, row.Status)
}

func TestModel_FallbackRowAppearsOnDemand(t *testing.T) {
	m := NewTeardownModel("arc-systems", false)
	assert.Nil(t, m.row("emergency-fallback"))

	updated, _ := m.Update(PhaseMsg{Phase: "emergency-fallback", Active: true})
	m = updated.(Model)
	require.NotNil(t, m.row("emergency-fallback"))
}

func TestModel_Progress(t *testing.T) {
	m := NewTeardownModel("arc-systems", false)

	updated, _ := m.Update(ProgressMsg{Phase: "strip-finalizers", Current: 3, Total: 7})
	m = updated.(Model)

	row := m.row("strip-finalizers")
	assert.Equal(t, 3, row.Current)
	assert.Equal(t, 7, row.Total)
}

func TestModel_QuitKeys(t *testing.T) {
	m := NewTeardownModel("arc-systems", false)

	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if key == "ctrl+c" {
			_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		}
		require.NotNil(t, cmd, "key %q should quit", key)
	}
}

func TestModel_DoneCarriesReport(t *testing.T) {
	m := NewTeardownModel("arc-systems", false)
	report := &teardown.FinalReport{Outcome: teardown.OutcomePartial}

	updated, cmd := m.Update(DoneMsg{Report: report})
	m = updated.(Model)

	assert.True(t, m.Done)
	assert.Equal(t, report, m.Report)
	assert.NotNil(t, cmd)
}

func TestView_RendersChecklistAndOutcome(t *testing.T) {
	m := NewTeardownModel("arc-systems", true)

	updated, _ := m.Update(PhaseMsg{Phase: "disable-webhooks", Status: teardown.PhaseComplete})
	m = updated.(Model)
	updated, _ = m.Update(DoneMsg{Report: &teardown.FinalReport{
		Outcome:  teardown.OutcomeFullyClean,
		Counters: teardown.Counters{Discovered: 2, Deleted: 2},
	}})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "arcctl teardown: arc-systems")
	assert.Contains(t, view, "(dry-run)")
	assert.Contains(t, view, "Disable admission webhooks")
	assert.Contains(t, view, "fully clean")
	assert.Contains(t, view, "discovered 2")
}

type fakeSender struct {
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.msgs = append(f.msgs, msg)
}

func TestProgramObserver_MapsEvents(t *testing.T) {
	s := &fakeSender{}
	o := NewProgramObserver(s)

	o.Event(teardown.Event{Type: teardown.EventPhaseStarted, Phase: "scan"})
	o.Event(teardown.Event{Type: teardown.EventResourceDeleted, Phase: "force-terminate", Resource: "pods/arc/x"})
	o.Event(teardown.Event{Type: teardown.EventPhasePartial, Phase: "sweep", Message: "2 failures"})
	o.Progress("sweep", 1, 2)

	require.Len(t, s.msgs, 4)
	assert.Equal(t, PhaseMsg{Phase: "scan", Active: true}, s.msgs[0])
	assert.Equal(t, ResourceMsg{Phase: "force-terminate", Resource: "pods/arc/x"}, s.msgs[1])
	assert.Equal(t, PhaseMsg{Phase: "sweep", Status: teardown.PhasePartial, Detail: "2 failures"}, s.msgs[2])
	assert.Equal(t, ProgressMsg{Phase: "sweep", Current: 1, Total: 2}, s.msgs[3])
}
