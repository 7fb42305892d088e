package teardown

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
)

// planner wraps a kube.Interface for dry runs: reads pass through, every
// mutating call is recorded as a "would ..." action and succeeds without
// touching the cluster.
type planner struct {
	kube.Interface

	mu      sync.Mutex
	actions []string
}

var _ kube.Interface = (*planner)(nil)

func newPlanner(real kube.Interface) *planner {
	return &planner{Interface: real}
}

func (p *planner) record(format string, v ...interface{}) {
	p.mu.Lock()
	p.actions = append(p.actions, fmt.Sprintf(format, v...))
	p.mu.Unlock()
}

// Actions returns the recorded plan in call order.
func (p *planner) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.actions))
	copy(out, p.actions)
	return out
}

func qualify(gvr schema.GroupVersionResource, namespace, name string) string {
	resource := gvr.Resource
	if gvr.Group != "" {
		resource += "." + gvr.Group
	}
	if namespace == "" {
		return resource + "/" + name
	}
	return resource + "/" + namespace + "/" + name
}

// PatchMerge records the patch without issuing it.
func (p *planner) PatchMerge(_ context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	p.record("would merge-patch %s with %s", qualify(gvr, namespace, name), string(body))
	return nil
}

// PatchJSON records the patch without issuing it.
func (p *planner) PatchJSON(_ context.Context, gvr schema.GroupVersionResource, namespace, name string, body []byte) error {
	p.record("would json-patch %s with %s", qualify(gvr, namespace, name), string(body))
	return nil
}

// Delete records the delete without issuing it.
func (p *planner) Delete(_ context.Context, gvr schema.GroupVersionResource, namespace, name string, gracePeriodSeconds *int64) error {
	if gracePeriodSeconds != nil && *gracePeriodSeconds == 0 {
		p.record("would force-delete %s (grace period 0)", qualify(gvr, namespace, name))
	} else {
		p.record("would delete %s", qualify(gvr, namespace, name))
	}
	return nil
}
