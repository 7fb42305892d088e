package teardown

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
)

// disableWebhooks deletes every admission webhook configuration belonging
// to the runner controller, cluster-wide. Webhooks can re-add finalizers
// or reject deletes, so taking them down first removes a whole class of
// races for the phases that follow. Individual failures are recorded but
// never abort the phase; an already-absent webhook is success.
func (o *Orchestrator) disableWebhooks(ctx context.Context) (PhaseResult, error) {
	res := PhaseResult{Status: PhaseComplete}

	for _, entry := range catalog.Webhooks() {
		listCtx, cancel := opCtx(ctx, o.req.Timeouts.List)
		list, err := o.client.List(listCtx, entry.GVR, "")
		cancel()
		if err != nil {
			res.Errors = append(res.Errors, ResourceError{
				Resource:  entry.Qualified(),
				Err:       fmt.Errorf("list: %w", err),
				Forbidden: apierrors.IsForbidden(err),
			})
			o.noteForbidden(entry.Kind, entry.Qualified(), err)
			continue
		}

		for i := range list.Items {
			item := &list.Items[i]
			if !catalog.Matches(item) && !catalog.MatchesName(item.GetName()) {
				continue
			}
			res.Processed++

			delCtx, cancel := opCtx(ctx, o.deleteTimeout(entry))
			err := o.client.Delete(delCtx, entry.GVR, "", item.GetName(), nil)
			cancel()

			switch {
			case err == nil || apierrors.IsNotFound(err):
				recordResourceOpMetric("disable-webhooks", "deleted")
				o.observer.Event(Event{Type: EventResourceDeleted, Phase: "disable-webhooks", Resource: item.GetName()})
			default:
				recordResourceOpMetric("disable-webhooks", "failed")
				forbidden := apierrors.IsForbidden(err)
				res.Errors = append(res.Errors, ResourceError{Resource: entry.Qualified() + "/" + item.GetName(), Err: err, Forbidden: forbidden})
				o.noteForbidden(entry.Kind, entry.Qualified()+"/"+item.GetName(), err)
				o.observer.Event(Event{Type: EventResourceFailed, Phase: "disable-webhooks", Resource: item.GetName(), Message: err.Error()})
			}
		}
	}

	if len(res.Errors) > 0 {
		res.Status = PhasePartial
	}
	return res, nil
}

// noteForbidden marks a kind as permission-denied so later phases skip it,
// and promotes the error to root cause when none is recorded yet.
func (o *Orchestrator) noteForbidden(kind, resource string, err error) {
	if !apierrors.IsForbidden(err) {
		return
	}
	o.forbidden[kind] = true
	o.noteRootCause(fmt.Sprintf("forbidden: %s: %v", resource, err))
}
