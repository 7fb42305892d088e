package teardown

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
)

// emergencyFallback is the guaranteed-termination backstop: one
// maximum-force pass over the whole catalog with ignore-not-found
// semantics and no finalizer subtlety. It runs on a fresh context with its
// own budget so an exhausted global deadline cannot starve it, and it
// always returns.
func (o *Orchestrator) emergencyFallback(parent context.Context) {
	recordFallbackMetric()
	o.observer.Event(Event{Type: EventFallback, Message: "invoking emergency fallback"})
	o.noteRootCause("emergency fallback invoked")

	ctx, cancel := context.WithTimeout(parent, o.req.Timeouts.EmergencyBudget)
	defer cancel()

	o.runPhase(ctx, "emergency-fallback", func(ctx context.Context) (PhaseResult, error) {
		res := PhaseResult{Status: PhaseComplete}

		// Webhooks first, then namespaced kinds, then cluster-scoped so
		// RBAC and CRDs outlive the objects that depend on them.
		entries := append(catalog.Webhooks(), catalog.Namespaced()...)
		entries = append(entries, catalog.ClusterScoped()...)
		for _, entry := range entries {
			if o.req.PreserveData && preservedKind(entry.GVR.Resource) {
				continue
			}

			ns := ""
			if entry.Namespaced {
				ns = o.req.Namespace
			}

			listCtx, listCancel := opCtx(ctx, o.req.Timeouts.List)
			list, err := o.client.List(listCtx, entry.GVR, ns)
			listCancel()
			if err != nil {
				continue
			}

			for i := range list.Items {
				item := &list.Items[i]
				if !inScope(entry, item) {
					continue
				}
				res.Processed++

				delCtx, delCancel := opCtx(ctx, o.deleteTimeout(entry))
				err := o.client.Delete(delCtx, entry.GVR, item.GetNamespace(), item.GetName(), &zeroGrace)
				delCancel()
				if err == nil || apierrors.IsNotFound(err) {
					recordResourceOpMetric("emergency-fallback", "deleted")
					continue
				}
				recordResourceOpMetric("emergency-fallback", "failed")
			}
		}

		if !o.req.PreserveData || o.req.ForceNamespaceRemoval {
			delCtx, delCancel := opCtx(ctx, o.req.Timeouts.Namespace)
			err := o.client.Delete(delCtx, catalog.NamespaceEntry.GVR, "", o.req.Namespace, &zeroGrace)
			delCancel()
			if err == nil || apierrors.IsNotFound(err) {
				res.Notes = append(res.Notes, "namespace force-delete issued")
			}
		}

		res.Notes = append(res.Notes, fmt.Sprintf("best-effort pass attempted %d deletes", res.Processed))
		return res, nil
	})
}
