package teardown

import (
	"context"
	"fmt"
	"time"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
	"github.com/tsviz/arc-config-mcp-sub003/internal/helm"
	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
)

// Orchestrator runs the teardown pipeline for one namespace. It is
// single-use: create one per run.
type Orchestrator struct {
	client   kube.Interface
	helm     helm.Uninstaller
	observer Observer
	req      Request

	plan      *planner
	ledger    []PhaseResult
	counters  Counters
	forbidden map[string]bool
	rootCause string
}

// New creates an orchestrator. The uninstaller may be nil when no Helm
// release handling is wanted (e.g. verify-only callers or tests).
func New(client kube.Interface, uninstaller helm.Uninstaller, observer Observer, req Request) *Orchestrator {
	if observer == nil {
		observer = NopObserver{}
	}
	if req.MaxInFlight < 1 {
		req.MaxInFlight = 8
	}
	if req.Timeouts == nil {
		req.Timeouts = config.LoadTimeouts()
	}
	return &Orchestrator{
		client:    client,
		helm:      uninstaller,
		observer:  observer,
		req:       req,
		forbidden: make(map[string]bool),
	}
}

// Run executes the pipeline and always returns a FinalReport; the error is
// non-nil only when the run could not start at all (another run holds the
// namespace). Once started, every failure mode ends in a report.
func (o *Orchestrator) Run(ctx context.Context) (*FinalReport, error) {
	release, err := guard.acquire(o.req.Namespace)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	if o.req.DryRun {
		o.plan = newPlanner(o.client)
		o.client = o.plan
	}
	o.logRiskAdvisory()

	runCtx, cancel := context.WithTimeout(ctx, o.req.Timeouts.GlobalDeadline)
	defer cancel()

	fallbackUsed := false
	namespaceDestroyed := false
	namespacePreserved := false
	var orphans []Descriptor

	o.runPhase(runCtx, "disable-webhooks", o.disableWebhooks)

	var descriptors []Descriptor
	o.runPhase(runCtx, "scan", func(ctx context.Context) (PhaseResult, error) {
		var res PhaseResult
		descriptors, res = o.scan(ctx)
		return res, nil
	})
	o.counters.Discovered = len(descriptors)

	o.runPhase(runCtx, "strip-finalizers", func(ctx context.Context) (PhaseResult, error) {
		return o.stripFinalizers(ctx, descriptors), nil
	})

	o.runPhase(runCtx, "force-terminate", func(ctx context.Context) (PhaseResult, error) {
		return o.terminate(ctx, descriptors), nil
	})

	deadlocked := false
	if o.req.DryRun {
		o.skipPhase("sweep", "dry-run: bulk plan already recorded")
	} else {
		o.runPhase(runCtx, "sweep", func(ctx context.Context) (PhaseResult, error) {
			var res PhaseResult
			res, deadlocked = o.sweep(ctx)
			return res, nil
		})
	}

	if deadlocked || runCtx.Err() != nil {
		if !o.req.DryRun {
			o.emergencyFallback(context.WithoutCancel(ctx))
			fallbackUsed = true
		}
	} else {
		o.runPhase(runCtx, "destroy-namespace", func(ctx context.Context) (PhaseResult, error) {
			var res PhaseResult
			res, namespaceDestroyed, namespacePreserved = o.destroyNamespace(ctx)
			return res, nil
		})

		if o.req.DryRun {
			o.skipPhase("verify", "dry-run: no post-teardown state to verify")
		} else {
			o.runPhase(runCtx, "verify", func(ctx context.Context) (PhaseResult, error) {
				var res PhaseResult
				orphans, res = o.verify(ctx)
				return res, nil
			})
		}

		// A deadline breach during the late phases still owes the caller
		// the guaranteed-termination backstop.
		if runCtx.Err() != nil && !o.req.DryRun {
			o.emergencyFallback(context.WithoutCancel(ctx))
			fallbackUsed = true
		}
	}

	o.counters.Orphaned = len(orphans)

	report := &FinalReport{
		Outcome:            o.outcome(fallbackUsed, namespacePreserved, orphans),
		NamespaceDestroyed: namespaceDestroyed,
		NamespacePreserved: namespacePreserved,
		Phases:             o.ledger,
		Orphans:            orphans,
		Counters:           o.counters,
		Elapsed:            time.Since(start),
		RootCause:          o.rootCause,
	}
	if o.plan != nil {
		report.Plan = o.plan.Actions()
	}

	recordRunMetric(report.Outcome, len(orphans))
	o.observer.Printf("teardown of %s finished: %s in %v", o.req.Namespace, report.Outcome, report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (o *Orchestrator) outcome(fallbackUsed, namespacePreserved bool, orphans []Descriptor) Outcome {
	if fallbackUsed {
		return OutcomeEmergencyFallback
	}
	if o.req.DryRun {
		return OutcomeFullyClean
	}
	if len(orphans) > 0 || namespacePreserved {
		return OutcomePartial
	}
	for _, p := range o.ledger {
		if p.Status == PhasePartial || p.Status == PhaseFailed {
			return OutcomePartial
		}
	}
	return OutcomeFullyClean
}

// runPhase wraps one phase with timing, ledger append, observer events and
// metrics. Phase functions never write the ledger themselves.
func (o *Orchestrator) runPhase(ctx context.Context, name string, fn func(context.Context) (PhaseResult, error)) {
	o.observer.Event(Event{Type: EventPhaseStarted, Phase: name})
	start := time.Now()

	res, err := fn(ctx)
	res.Phase = name
	res.Duration = time.Since(start)
	failMsg := ""
	if err != nil {
		res.Status = PhaseFailed
		failMsg = err.Error()
		res.Notes = append(res.Notes, failMsg)
		o.noteRootCause(fmt.Sprintf("%s: %v", name, err))
	}

	switch res.Status {
	case PhaseComplete:
		o.observer.Event(Event{Type: EventPhaseCompleted, Phase: name, Message: fmt.Sprintf("completed in %v", res.Duration.Round(time.Millisecond))})
	case PhasePartial:
		o.observer.Event(Event{Type: EventPhasePartial, Phase: name, Message: fmt.Sprintf("%d failures", len(res.Errors))})
	case PhaseSkipped:
		o.observer.Event(Event{Type: EventPhaseSkipped, Phase: name})
	case PhaseFailed:
		o.observer.Event(Event{Type: EventPhaseFailed, Phase: name, Message: failMsg})
	}

	recordPhaseMetric(name, res.Status, res.Duration.Seconds())
	o.ledger = append(o.ledger, res)
}

func (o *Orchestrator) skipPhase(name, note string) {
	o.observer.Event(Event{Type: EventPhaseSkipped, Phase: name, Message: note})
	recordPhaseMetric(name, PhaseSkipped, 0)
	o.ledger = append(o.ledger, PhaseResult{Phase: name, Status: PhaseSkipped, Notes: []string{note}})
}

// noteRootCause records the first prominent failure of the run.
func (o *Orchestrator) noteRootCause(cause string) {
	if o.rootCause == "" {
		o.rootCause = cause
	}
}

func (o *Orchestrator) logRiskAdvisory() {
	if o.req.Risk == nil {
		return
	}
	for _, r := range o.req.Risk.Resources {
		o.observer.Event(Event{
			Type:     EventWarning,
			Phase:    "pre-flight",
			Resource: fmt.Sprintf("%s/%s/%s", r.Kind, r.Namespace, r.Name),
			Message:  fmt.Sprintf("risk report: %s", r.Reason),
		})
	}
	if len(o.req.Risk.CriticalDependencies) > 0 {
		o.observer.Printf("risk report lists critical dependencies: %v", o.req.Risk.CriticalDependencies)
	}
}

// opCtx derives a per-operation context bounded by both the operation
// timeout and the remaining global budget.
func opCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// deleteTimeout resolves the delete budget for an entry from the run's
// configured timeouts. Zero (unset) falls back to the entry's default.
func (o *Orchestrator) deleteTimeout(e catalog.Entry) time.Duration {
	var d time.Duration
	switch e.GVR.Resource {
	case "pods":
		d = o.req.Timeouts.PodDelete
	case "validatingwebhookconfigurations", "mutatingwebhookconfigurations":
		d = o.req.Timeouts.Webhook
	case "namespaces":
		d = o.req.Timeouts.Namespace
	default:
		d = o.req.Timeouts.Delete
	}
	if d == 0 {
		return e.Timeout
	}
	return d
}
