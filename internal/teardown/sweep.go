package teardown

import (
	"context"
	"fmt"
	"sync/atomic"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/util/async"
)

// sweepMaxCycles bounds the per-resource strip+delete cycles. A resource
// that outlives them with finalizers intact is a deadlock, which hands the
// run to the emergency fallback.
const sweepMaxCycles = 3

type sweepOutcome struct {
	gone    bool
	stuck   bool
	lastErr error
}

// sweep re-scans the catalog and runs tight individual strip-then-delete
// cycles on every survivor. Controllers that recreate resources faster
// than a bulk pass deletes them usually lose against a per-resource cycle.
// Returns true when a stuck-finalizer deadlock remains after all cycles.
func (o *Orchestrator) sweep(ctx context.Context) (PhaseResult, bool) {
	res := PhaseResult{Status: PhaseComplete}

	survivors, errs := o.collect(ctx, catalog.All(), o.req.Namespace)
	res.Errors = errs

	var work []Descriptor
	for _, d := range survivors {
		if o.forbidden[d.Entry.Kind] {
			continue
		}
		if o.req.PreserveData && preservedKind(d.Entry.GVR.Resource) {
			continue
		}
		work = append(work, d)
	}
	res.Processed = len(work)
	if len(work) == 0 {
		if len(res.Errors) > 0 {
			res.Status = PhasePartial
		}
		return res, false
	}

	outcomes := make([]sweepOutcome, len(work))
	var done atomic.Int64

	var tasks []async.Task
	for i, d := range work {
		tasks = append(tasks, async.Task{
			Name: d.ID(),
			Func: func(ctx context.Context) error {
				outcomes[i] = o.sweepOne(ctx, d)
				o.observer.Progress("sweep", int(done.Add(1)), len(work))
				return nil
			},
		})
	}
	async.Run(ctx, tasks, o.req.MaxInFlight)

	deadlocked := false
	for i, out := range outcomes {
		switch {
		case out.gone:
			o.counters.Deleted++
			recordResourceOpMetric("sweep", "deleted")
		case out.stuck:
			deadlocked = true
			recordResourceOpMetric("sweep", "deadlocked")
			err := out.lastErr
			if err == nil {
				err = fmt.Errorf("finalizers persist after %d strip+delete cycles", sweepMaxCycles)
			}
			res.Errors = append(res.Errors, ResourceError{Resource: work[i].ID(), Err: err})
			o.noteRootCause(fmt.Sprintf("stuck finalizer on %s: %v", work[i].ID(), err))
		default:
			recordResourceOpMetric("sweep", "failed")
			res.Errors = append(res.Errors, ResourceError{Resource: work[i].ID(), Err: out.lastErr})
		}
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	return res, deadlocked
}

// sweepOne runs up to sweepMaxCycles of strip-then-delete against one
// resource and reports how it ended.
func (o *Orchestrator) sweepOne(ctx context.Context, d Descriptor) sweepOutcome {
	var out sweepOutcome

	for cycle := 0; cycle < sweepMaxCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			out.lastErr = err
			break
		}

		if err := o.stripOne(ctx, d); err != nil {
			out.lastErr = err
		}
		if err := o.deleteOne(ctx, d); err != nil {
			out.lastErr = err
		}

		getCtx, cancel := opCtx(ctx, o.req.Timeouts.List)
		obj, err := o.client.Get(getCtx, d.Entry.GVR, d.Namespace, d.Name)
		cancel()

		if apierrors.IsNotFound(err) {
			out.gone = true
			out.stuck = false
			return out
		}
		if err != nil {
			out.lastErr = err
			continue
		}
		out.stuck = len(obj.GetFinalizers()) > 0
	}
	return out
}
