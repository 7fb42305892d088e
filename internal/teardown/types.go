// Package teardown implements the escalating teardown pipeline for
// actions-runner-controller installations: disable admission webhooks,
// scan, strip finalizers, force-delete, sweep survivors, destroy the
// namespace, verify, with an emergency fallback that guarantees a
// bounded-time result.
package teardown

import (
	"time"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
)

// Request is the immutable input for one teardown run.
type Request struct {
	Namespace string

	// Release is the Helm release to uninstall. Empty means discover.
	Release string

	// Aggressive skips the runner-liveness check before force-terminating.
	// The caller asserts out-of-band that no workflow jobs are running.
	Aggressive bool

	PreserveData          bool
	DryRun                bool
	ForceNamespaceRemoval bool

	// MaxInFlight caps concurrent API operations within a phase.
	MaxInFlight int

	Timeouts *config.Timeouts

	// Risk is the advisory pre-flight assessment, logged but never acted on.
	Risk *config.RiskReport
}

// Descriptor is an immutable snapshot of one discovered resource: catalog
// entry, coordinates, and the finalizers seen at scan time.
type Descriptor struct {
	Entry      catalog.Entry
	Namespace  string
	Name       string
	Finalizers []string

	// Deleting is true when the object already carries a deletion
	// timestamp, i.e. it is stuck waiting on finalizers.
	Deleting bool
}

// ID returns "resource.group/namespace/name", the identifier used in logs
// and the report.
func (d Descriptor) ID() string {
	if d.Namespace == "" {
		return d.Entry.Qualified() + "/" + d.Name
	}
	return d.Entry.Qualified() + "/" + d.Namespace + "/" + d.Name
}

// PhaseStatus classifies how a phase ended.
type PhaseStatus string

const (
	// PhaseComplete means the phase did everything it set out to do.
	PhaseComplete PhaseStatus = "complete"
	// PhasePartial means the phase finished but some resources failed.
	PhasePartial PhaseStatus = "partial"
	// PhaseSkipped means the phase did not run (gate or dry-run).
	PhaseSkipped PhaseStatus = "skipped"
	// PhaseFailed means the phase hit a fatal, non-resource-scoped error.
	PhaseFailed PhaseStatus = "failed"
)

// ResourceError records one resource-level failure inside a phase.
type ResourceError struct {
	Resource string
	Err      error

	// Forbidden marks a permission error; it disables further operations
	// against the same kind and is surfaced prominently in the report.
	Forbidden bool
}

// PhaseResult is one entry of the append-only run ledger.
type PhaseResult struct {
	Phase     string
	Status    PhaseStatus
	Duration  time.Duration
	Processed int
	Errors    []ResourceError
	Notes     []string
}

// Counters are the run-wide counts. They are written only by the phase
// coordinator, never by concurrent tasks.
type Counters struct {
	Discovered int
	Stripped   int
	Deleted    int
	Orphaned   int
}

// Outcome is the overall verdict of a run.
type Outcome string

const (
	// OutcomeFullyClean means nothing of the installation remains.
	OutcomeFullyClean Outcome = "fully-clean"
	// OutcomePartial means named orphans or preserved resources remain.
	OutcomePartial Outcome = "partial"
	// OutcomeEmergencyFallback means the guaranteed-termination backstop ran.
	OutcomeEmergencyFallback Outcome = "emergency-fallback-used"
)

// FinalReport is returned synchronously at the end of every run; it always
// distinguishes fully clean, partial with named orphans, and fallback.
type FinalReport struct {
	Outcome            Outcome
	NamespaceDestroyed bool
	NamespacePreserved bool
	Phases             []PhaseResult
	Orphans            []Descriptor
	Counters           Counters
	Elapsed            time.Duration

	// RootCause names the first fatal or prominent failure when the
	// outcome is not fully clean.
	RootCause string

	// Plan holds the simulated mutations of a dry run.
	Plan []string
}

// FailedPhases returns the names of phases that ended partial or failed.
func (r *FinalReport) FailedPhases() []string {
	var names []string
	for _, p := range r.Phases {
		if p.Status == PhasePartial || p.Status == PhaseFailed {
			names = append(names, p.Phase)
		}
	}
	return names
}
