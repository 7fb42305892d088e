package teardown

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
)

// Verify runs only the cluster-wide verification scan and returns the
// orphan list. Used by the verify command; never mutates anything.
func Verify(ctx context.Context, client kube.Interface, observer Observer, req Request) ([]Descriptor, error) {
	o := New(client, nil, observer, req)

	timeoutCtx, cancel := context.WithTimeout(ctx, o.req.Timeouts.GlobalDeadline)
	defer cancel()

	orphans, res := o.verify(timeoutCtx)
	if res.Status == PhasePartial {
		errs := make([]error, 0, len(res.Errors))
		for _, re := range res.Errors {
			errs = append(errs, fmt.Errorf("%s: %w", re.Resource, re.Err))
		}
		return orphans, errors.Join(errs...)
	}
	return orphans, nil
}

// verify re-scans the whole cluster for catalog resources, independent of
// the target namespace, to catch leaks into other namespaces and leftover
// cluster-scoped objects. Strictly read-only.
func (o *Orchestrator) verify(ctx context.Context) ([]Descriptor, PhaseResult) {
	res := PhaseResult{Status: PhaseComplete}

	found, errs := o.collect(ctx, catalog.All(), "")
	res.Errors = errs

	var orphans []Descriptor
	preservedCount := 0
	for _, d := range found {
		if o.req.PreserveData && d.Namespace == o.req.Namespace && preservedKind(d.Entry.GVR.Resource) {
			preservedCount++
			continue
		}
		orphans = append(orphans, d)
		o.observer.Event(Event{Type: EventResourceOrphaned, Phase: "verify", Resource: d.ID()})
	}
	res.Processed = len(found)
	if preservedCount > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d preserved data resources excluded from orphans", preservedCount))
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	if len(orphans) > 0 {
		o.noteRootCause(fmt.Sprintf("%d resources survived teardown", len(orphans)))
	}
	return orphans, res
}
