package teardown

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/util/async"
	"github.com/tsviz/arc-config-mcp-sub003/internal/util/retry"
)

var zeroGrace = int64(0)

// terminate force-deletes everything still present after stripping:
// the Helm release first so chart hooks run, then zero-grace deletes in
// wave order, namespaced resources before cluster-scoped ones. Not-found
// is success throughout.
func (o *Orchestrator) terminate(ctx context.Context, descriptors []Descriptor) PhaseResult {
	res := PhaseResult{Status: PhaseComplete}

	o.uninstallRelease(&res)

	waves := make(map[int][]Descriptor)
	for _, d := range descriptors {
		if o.forbidden[d.Entry.Kind] {
			continue
		}
		if o.req.PreserveData && preservedKind(d.Entry.GVR.Resource) {
			continue
		}
		waves[d.Entry.Wave] = append(waves[d.Entry.Wave], d)
	}
	if o.req.PreserveData {
		res.Notes = append(res.Notes, "data resources preserved (secrets, configmaps, persistentvolumeclaims)")
	}

	order := make([]int, 0, len(waves))
	for wave := range waves {
		order = append(order, wave)
	}
	sort.Ints(order)

	var done atomic.Int64
	total := 0
	for _, wave := range order {
		total += len(waves[wave])
	}

	for _, wave := range order {
		work := waves[wave]
		errSlots := make([]error, len(work))

		var tasks []async.Task
		for i, d := range work {
			tasks = append(tasks, async.Task{
				Name: d.ID(),
				Func: func(ctx context.Context) error {
					errSlots[i] = o.deleteOne(ctx, d)
					o.observer.Progress("force-terminate", int(done.Add(1)), total)
					return nil
				},
			})
		}
		async.Run(ctx, tasks, o.req.MaxInFlight)

		for i, err := range errSlots {
			res.Processed++
			if err == nil {
				o.counters.Deleted++
				recordResourceOpMetric("force-terminate", "deleted")
				continue
			}
			recordResourceOpMetric("force-terminate", "failed")
			res.Errors = append(res.Errors, ResourceError{Resource: work[i].ID(), Err: err, Forbidden: apierrors.IsForbidden(err)})
			o.noteForbidden(work[i].Entry.Kind, work[i].ID(), err)
		}
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	return res
}

// deleteOne issues a zero-grace delete with the kind's configured timeout.
func (o *Orchestrator) deleteOne(ctx context.Context, d Descriptor) error {
	err := retry.WithBackoff(ctx, func() error {
		delCtx, cancel := opCtx(ctx, o.deleteTimeout(d.Entry))
		defer cancel()
		return o.client.Delete(delCtx, d.Entry.GVR, d.Namespace, d.Name, &zeroGrace)
	})
	if err != nil && !apierrors.IsNotFound(err) {
		o.observer.Event(Event{Type: EventResourceFailed, Phase: "force-terminate", Resource: d.ID(), Message: err.Error()})
		return err
	}
	o.observer.Event(Event{Type: EventResourceDeleted, Phase: "force-terminate", Resource: d.ID()})
	return nil
}

// uninstallRelease removes the controller's Helm release. Failures are
// recorded, not fatal: the raw deletes that follow cover the same ground.
func (o *Orchestrator) uninstallRelease(res *PhaseResult) {
	if o.helm == nil {
		return
	}
	if o.req.DryRun {
		if o.req.Release != "" {
			o.plan.record("would uninstall helm release %q", o.req.Release)
		} else {
			o.plan.record("would uninstall runner-controller helm releases in %s", o.req.Namespace)
		}
		return
	}

	releases := []string{o.req.Release}
	if o.req.Release == "" {
		found, err := o.helm.Releases()
		if err != nil {
			res.Errors = append(res.Errors, ResourceError{Resource: "helm", Err: fmt.Errorf("list releases: %w", err)})
			return
		}
		releases = found
	}

	for _, name := range releases {
		if err := o.helm.Uninstall(name); err != nil {
			res.Errors = append(res.Errors, ResourceError{Resource: "helm/" + name, Err: err})
			o.observer.Event(Event{Type: EventResourceFailed, Phase: "force-terminate", Resource: "helm/" + name, Message: err.Error()})
			continue
		}
		res.Notes = append(res.Notes, fmt.Sprintf("helm release %q uninstalled", name))
		o.observer.Event(Event{Type: EventResourceDeleted, Phase: "force-terminate", Resource: "helm/" + name})
	}
}
