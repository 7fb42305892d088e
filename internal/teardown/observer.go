package teardown

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Observer receives structured events and progress updates during a run.
// Implementations must be safe for concurrent use; phases report progress
// from parallel tasks.
type Observer interface {
	// Printf logs a free-form line.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)

	// Progress reports completion for a phase.
	Progress(phase string, current, total int)
}

// Event represents a structured teardown event.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Resource  string
	Timestamp time.Time
}

// EventType represents the type of teardown event.
type EventType string

const (
	// EventPhaseStarted indicates a phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhasePartial indicates a phase finished with resource failures.
	EventPhasePartial EventType = "phase.partial"
	// EventPhaseSkipped indicates a phase was gated off.
	EventPhaseSkipped EventType = "phase.skipped"
	// EventPhaseFailed indicates a phase hit a fatal error.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceStripped indicates finalizers were removed.
	EventResourceStripped EventType = "resource.stripped"
	// EventResourceDeleted indicates a resource was deleted.
	EventResourceDeleted EventType = "resource.deleted"
	// EventResourceFailed indicates an operation on a resource failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceOrphaned indicates a resource survived every phase.
	EventResourceOrphaned EventType = "resource.orphaned"

	// EventWarning indicates a non-fatal condition worth surfacing.
	EventWarning EventType = "warning"
	// EventFallback indicates the emergency fallback was triggered.
	EventFallback EventType = "fallback.triggered"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct{}

// NewConsoleObserver creates a new console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var parts []string
	parts = append(parts, string(event.Type))
	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}
	log.Print(strings.Join(parts, " "))
}

// Progress implements Observer.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	if total == 0 {
		log.Printf("[%s] progress: %d/%d", phase, current, total)
		return
	}
	percentage := (current * 100) / total
	log.Printf("[%s] progress: %d/%d (%d%%)", phase, current, total, percentage)
}

// NopObserver discards everything. Useful in tests.
type NopObserver struct{}

// Printf implements Observer.
func (NopObserver) Printf(string, ...interface{}) {}

// Event implements Observer.
func (NopObserver) Event(Event) {}

// Progress implements Observer.
func (NopObserver) Progress(string, int, int) {}
