package teardown

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
)

// System objects every namespace carries; their presence never counts as
// user data.
func systemObject(resource, name string) bool {
	switch resource {
	case "configmaps":
		return name == "kube-root-ca.crt"
	case "serviceaccounts":
		return name == "default"
	case "secrets":
		return strings.HasPrefix(name, "default-token-")
	}
	return false
}

// destroyNamespace removes the target namespace with escalating
// strategies: clear the namespace's own finalizers, standard delete, then
// zero-grace delete. Each strategy gets its own timeout. When
// ForceNamespaceRemoval is off and non-catalog resources remain, the
// namespace is preserved instead.
func (o *Orchestrator) destroyNamespace(ctx context.Context) (PhaseResult, bool, bool) {
	res := PhaseResult{Status: PhaseComplete}
	nsEntry := catalog.NamespaceEntry

	getCtx, cancel := opCtx(ctx, o.req.Timeouts.List)
	ns, err := o.client.Get(getCtx, nsEntry.GVR, "", o.req.Namespace)
	cancel()
	if apierrors.IsNotFound(err) {
		res.Notes = append(res.Notes, "namespace already absent")
		return res, true, false
	}
	if err != nil {
		res.Status = PhasePartial
		res.Errors = append(res.Errors, ResourceError{Resource: "namespaces/" + o.req.Namespace, Err: err, Forbidden: apierrors.IsForbidden(err)})
		return res, false, false
	}

	if !o.req.ForceNamespaceRemoval {
		if o.req.PreserveData {
			res.Status = PhaseSkipped
			res.Notes = append(res.Notes, "preserved — preserveData is set")
			return res, false, true
		}
		leftovers, errs := o.leftoverResources(ctx)
		if len(errs) > 0 {
			// Contents unknown: failing open here would delete user data.
			res.Status = PhasePartial
			res.Errors = append(res.Errors, errs...)
			res.Notes = append(res.Notes, "preserved — leftover check failed, namespace contents unknown")
			return res, false, true
		}
		if len(leftovers) > 0 {
			res.Status = PhaseSkipped
			res.Notes = append(res.Notes, fmt.Sprintf("preserved — non-ARC resources present: %s", strings.Join(leftovers, ", ")))
			return res, false, true
		}
	}

	if o.req.DryRun {
		if err := o.client.Delete(ctx, nsEntry.GVR, "", o.req.Namespace, nil); err != nil {
			res.Errors = append(res.Errors, ResourceError{Resource: "namespaces/" + o.req.Namespace, Err: err})
		}
		res.Processed = 1
		return res, false, false
	}

	deleting := ns.GetDeletionTimestamp() != nil

	strategies := []struct {
		name string
		run  func(context.Context) error
		// poll reports whether the strategy can make the namespace
		// disappear on its own. Clearing finalizers only helps a
		// namespace that is already terminating.
		poll bool
	}{
		{
			name: "clear-finalizers",
			run: func(ctx context.Context) error {
				if err := o.client.PatchJSON(ctx, nsEntry.GVR, "", o.req.Namespace, []byte(`[{"op":"remove","path":"/spec/finalizers"}]`)); err != nil && !apierrors.IsNotFound(err) {
					return err
				}
				err := o.client.PatchMerge(ctx, nsEntry.GVR, "", o.req.Namespace, []byte(`{"metadata":{"finalizers":null}}`))
				if apierrors.IsNotFound(err) {
					return nil
				}
				return err
			},
			poll: deleting,
		},
		{
			name: "delete",
			run: func(ctx context.Context) error {
				err := o.client.Delete(ctx, nsEntry.GVR, "", o.req.Namespace, nil)
				if apierrors.IsNotFound(err) {
					return nil
				}
				return err
			},
			poll: true,
		},
		{
			name: "force-delete",
			run: func(ctx context.Context) error {
				err := o.client.Delete(ctx, nsEntry.GVR, "", o.req.Namespace, &zeroGrace)
				if apierrors.IsNotFound(err) {
					return nil
				}
				return err
			},
			poll: true,
		},
	}

	for _, strategy := range strategies {
		stratCtx, cancel := opCtx(ctx, o.req.Timeouts.Namespace)
		err := strategy.run(stratCtx)
		if err != nil {
			cancel()
			res.Errors = append(res.Errors, ResourceError{Resource: "namespaces/" + o.req.Namespace, Err: fmt.Errorf("%s: %w", strategy.name, err), Forbidden: apierrors.IsForbidden(err)})
			continue
		}

		gone := false
		if strategy.poll {
			gone = o.namespaceGone(stratCtx)
		}
		cancel()

		res.Processed++
		if gone {
			res.Notes = append(res.Notes, fmt.Sprintf("namespace removed via %s", strategy.name))
			o.observer.Event(Event{Type: EventResourceDeleted, Phase: "destroy-namespace", Resource: "namespaces/" + o.req.Namespace})
			return res, true, false
		}
	}

	res.Status = PhasePartial
	res.Notes = append(res.Notes, "namespace still present after all strategies")
	return res, false, false
}

// namespaceGone polls until the namespace 404s or the context expires.
func (o *Orchestrator) namespaceGone(ctx context.Context) bool {
	for {
		_, err := o.client.Get(ctx, catalog.NamespaceEntry.GVR, "", o.req.Namespace)
		if apierrors.IsNotFound(err) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(2 * time.Second):
		}
	}
}

// leftoverResources lists the namespaced core kinds and returns anything
// that is neither catalog-matched nor a per-namespace system object. A kind
// that cannot be listed is reported as an error: the caller must treat its
// contents as unknown, not as empty.
func (o *Orchestrator) leftoverResources(ctx context.Context) ([]string, []ResourceError) {
	var leftovers []string
	var errs []ResourceError
	for _, entry := range catalog.Namespaced() {
		if entry.CustomResource {
			continue
		}

		listCtx, cancel := opCtx(ctx, o.req.Timeouts.List)
		list, err := o.client.List(listCtx, entry.GVR, o.req.Namespace)
		cancel()
		if err != nil {
			errs = append(errs, ResourceError{
				Resource:  entry.Qualified(),
				Err:       fmt.Errorf("leftover check: %w", err),
				Forbidden: apierrors.IsForbidden(err),
			})
			continue
		}

		for i := range list.Items {
			item := &list.Items[i]
			if inScope(entry, item) || systemObject(entry.GVR.Resource, item.GetName()) {
				continue
			}
			leftovers = append(leftovers, entry.GVR.Resource+"/"+item.GetName())
		}
	}
	return leftovers, errs
}
