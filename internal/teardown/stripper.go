package teardown

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/util/async"
	"github.com/tsviz/arc-config-mcp-sub003/internal/util/retry"
)

// stripStrategy is one way of removing the finalizers field. Strategies
// are tried in order with early exit on success; different API servers and
// admission chains reject different patch shapes.
type stripStrategy struct {
	name  string
	apply func(ctx context.Context, o *Orchestrator, d Descriptor) error
}

var stripStrategies = []stripStrategy{
	{
		name: "merge-empty-list",
		apply: func(ctx context.Context, o *Orchestrator, d Descriptor) error {
			return o.client.PatchMerge(ctx, d.Entry.GVR, d.Namespace, d.Name, []byte(`{"metadata":{"finalizers":[]}}`))
		},
	},
	{
		name: "merge-null",
		apply: func(ctx context.Context, o *Orchestrator, d Descriptor) error {
			return o.client.PatchMerge(ctx, d.Entry.GVR, d.Namespace, d.Name, []byte(`{"metadata":{"finalizers":null}}`))
		},
	},
	{
		name: "json-remove",
		apply: func(ctx context.Context, o *Orchestrator, d Descriptor) error {
			return o.client.PatchJSON(ctx, d.Entry.GVR, d.Namespace, d.Name, []byte(`[{"op":"remove","path":"/metadata/finalizers"}]`))
		},
	},
}

// stripFinalizers removes finalizers from every discovered resource that
// carries any, concurrently across resources and kinds. A resource with no
// finalizers is a no-op success, so re-running is safe.
func (o *Orchestrator) stripFinalizers(ctx context.Context, descriptors []Descriptor) PhaseResult {
	res := PhaseResult{Status: PhaseComplete}

	var work []Descriptor
	for _, d := range descriptors {
		if len(d.Finalizers) == 0 {
			continue
		}
		if o.forbidden[d.Entry.Kind] {
			continue
		}
		if o.req.PreserveData && preservedKind(d.Entry.GVR.Resource) {
			continue
		}
		if foreign := foreignFinalizers(d.Finalizers); len(foreign) > 0 {
			note := fmt.Sprintf("%s carries finalizers from another controller: %s", d.ID(), strings.Join(foreign, ", "))
			res.Notes = append(res.Notes, note)
			o.observer.Event(Event{Type: EventWarning, Phase: "strip-finalizers", Resource: d.ID(), Message: note})
		}
		work = append(work, d)
	}
	res.Processed = len(work)
	if len(work) == 0 {
		return res
	}

	var done atomic.Int64
	errSlots := make([]error, len(work))
	var tasks []async.Task
	for i, d := range work {
		tasks = append(tasks, async.Task{
			Name: d.ID(),
			Func: func(ctx context.Context) error {
				errSlots[i] = o.stripOne(ctx, d)
				o.observer.Progress("strip-finalizers", int(done.Add(1)), len(work))
				return nil
			},
		})
	}
	async.Run(ctx, tasks, o.req.MaxInFlight)

	for i, err := range errSlots {
		if err == nil {
			o.counters.Stripped++
			recordResourceOpMetric("strip-finalizers", "stripped")
			continue
		}
		recordResourceOpMetric("strip-finalizers", "failed")
		res.Errors = append(res.Errors, ResourceError{Resource: work[i].ID(), Err: err, Forbidden: apierrors.IsForbidden(err)})
		o.noteForbidden(work[i].Entry.Kind, work[i].ID(), err)
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	return res
}

// stripOne walks the strategy list for a single resource. Not-found at any
// point is success: the resource is gone, which is the goal.
func (o *Orchestrator) stripOne(ctx context.Context, d Descriptor) error {
	var lastErr error
	for _, strategy := range stripStrategies {
		err := retry.WithBackoff(ctx, func() error {
			patchCtx, cancel := opCtx(ctx, o.req.Timeouts.Patch)
			defer cancel()
			return strategy.apply(patchCtx, o, d)
		})
		if err == nil || apierrors.IsNotFound(err) {
			o.observer.Event(Event{Type: EventResourceStripped, Phase: "strip-finalizers", Resource: d.ID()})
			return nil
		}
		lastErr = fmt.Errorf("%s: %w", strategy.name, err)
		if apierrors.IsForbidden(err) {
			return lastErr
		}
	}
	return fmt.Errorf("all strategies exhausted: %w", lastErr)
}

// foreignFinalizers returns the finalizers on a resource that no runner
// controller places. Stripping them is still attempted, but the owner may
// be alive and re-add them, so they are called out up front.
func foreignFinalizers(finalizers []string) []string {
	known := make(map[string]bool)
	for _, f := range catalog.KnownFinalizers() {
		known[f] = true
	}
	var out []string
	for _, f := range finalizers {
		if !known[f] {
			out = append(out, f)
		}
	}
	return out
}

func preservedKind(resource string) bool {
	switch resource {
	case "secrets", "configmaps", "persistentvolumeclaims":
		return true
	}
	return false
}
