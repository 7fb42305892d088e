package teardown

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/util/async"
)

// scan builds the discovered-resource set: one bounded list call per
// catalog entry, namespace-scoped for namespaced kinds, cluster-wide
// otherwise. Only name and finalizers are captured.
func (o *Orchestrator) scan(ctx context.Context) ([]Descriptor, PhaseResult) {
	res := PhaseResult{Status: PhaseComplete}

	descriptors, errs := o.collect(ctx, catalog.All(), o.req.Namespace)
	res.Errors = errs
	res.Processed = len(descriptors)

	if !o.req.Aggressive {
		if running := countRunningPods(descriptors); running > 0 {
			note := fmt.Sprintf("%d runner pods still running; they will be force-terminated", running)
			res.Notes = append(res.Notes, note)
			o.observer.Event(Event{Type: EventWarning, Phase: "scan", Message: note})
		}
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	return descriptors, res
}

// collect lists every entry concurrently and returns matching descriptors.
// An empty namespace lists across all namespaces; cluster-scoped entries
// always list cluster-wide. Custom resource instances are in scope
// unconditionally, everything else must match the identifying labels or
// name patterns.
func (o *Orchestrator) collect(ctx context.Context, entries []catalog.Entry, namespace string) ([]Descriptor, []ResourceError) {
	slots := make([][]Descriptor, len(entries))
	var tasks []async.Task

	for i, entry := range entries {
		tasks = append(tasks, async.Task{
			Name: entry.Qualified(),
			Func: func(ctx context.Context) error {
				ns := ""
				if entry.Namespaced {
					ns = namespace
				}

				listCtx, cancel := opCtx(ctx, o.req.Timeouts.List)
				defer cancel()

				list, err := o.client.List(listCtx, entry.GVR, ns)
				if err != nil {
					// A missing CRD means its instances are gone too.
					if apierrors.IsNotFound(err) {
						return nil
					}
					return err
				}

				for j := range list.Items {
					item := &list.Items[j]
					if !inScope(entry, item) {
						continue
					}
					slots[i] = append(slots[i], Descriptor{
						Entry:      entry,
						Namespace:  item.GetNamespace(),
						Name:       item.GetName(),
						Finalizers: item.GetFinalizers(),
						Deleting:   item.GetDeletionTimestamp() != nil,
					})
				}
				return nil
			},
		})
	}

	results := async.Run(ctx, tasks, o.req.MaxInFlight)

	var errs []ResourceError
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, ResourceError{Resource: r.Name, Err: r.Err, Forbidden: apierrors.IsForbidden(r.Err)})
			o.noteForbidden(entries[i].Kind, r.Name, r.Err)
		}
	}

	var descriptors []Descriptor
	for _, slot := range slots {
		descriptors = append(descriptors, slot...)
	}
	return descriptors, errs
}

func inScope(entry catalog.Entry, obj *unstructured.Unstructured) bool {
	if entry.CustomResource {
		return true
	}
	if catalog.Matches(obj) {
		return true
	}
	return catalog.MatchesName(obj.GetName())
}

func countRunningPods(descriptors []Descriptor) int {
	n := 0
	for _, d := range descriptors {
		if d.Entry.GVR.Resource == "pods" && !d.Deleting {
			n++
		}
	}
	return n
}
