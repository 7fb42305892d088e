package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

// PhaseRow is one line of the phase checklist.
type PhaseRow struct {
	Name    string
	Key     string
	Status  teardown.PhaseStatus
	Active  bool
	Settled bool
	Detail  string
	Current int
	Total   int
}

// Model is the Bubble Tea model for a teardown run.
type Model struct {
	Namespace string
	DryRun    bool

	Phases []PhaseRow

	// Last resource line per phase, keyed by phase.
	lastResource map[string]string

	Report *teardown.FinalReport

	StartTime    time.Time
	SpinnerFrame int

	Width  int
	Height int
	Err    error
	Done   bool
}

// NewTeardownModel creates the model with the standard phase checklist.
func NewTeardownModel(namespace string, dryRun bool) Model {
	return Model{
		Namespace:    namespace,
		DryRun:       dryRun,
		StartTime:    time.Now(),
		lastResource: make(map[string]string),
		Phases: []PhaseRow{
			{Name: "Disable admission webhooks", Key: "disable-webhooks"},
			{Name: "Scan resources", Key: "scan"},
			{Name: "Strip finalizers", Key: "strip-finalizers"},
			{Name: "Force terminate", Key: "force-terminate"},
			{Name: "Sweep survivors", Key: "sweep"},
			{Name: "Destroy namespace", Key: "destroy-namespace"},
			{Name: "Verify", Key: "verify"},
		},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case PhaseMsg:
		m.updatePhase(msg)

	case ProgressMsg:
		if row := m.row(msg.Phase); row != nil {
			row.Current = msg.Current
			row.Total = msg.Total
		}

	case ResourceMsg:
		m.lastResource[msg.Phase] = msg.Resource

	case TickMsg:
		m.SpinnerFrame++
		if m.Done {
			return m, nil
		}
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		m.Done = true
		return m, tea.Quit

	case DoneMsg:
		m.Report = msg.Report
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) row(key string) *PhaseRow {
	for i := range m.Phases {
		if m.Phases[i].Key == key {
			return &m.Phases[i]
		}
	}
	return nil
}

func (m *Model) updatePhase(msg PhaseMsg) {
	row := m.row(msg.Phase)
	if row == nil {
		// The fallback row only appears when the backstop actually runs.
		m.Phases = append(m.Phases, PhaseRow{Name: "Emergency fallback", Key: msg.Phase})
		row = &m.Phases[len(m.Phases)-1]
	}

	if msg.Active {
		row.Active = true
		return
	}
	row.Active = false
	row.Settled = true
	row.Status = msg.Status
	row.Detail = msg.Detail
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
