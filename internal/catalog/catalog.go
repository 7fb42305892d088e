// Package catalog defines the static table of resource kinds managed by the
// teardown pipeline.
//
// Every kind an actions-runner-controller installation can leave behind is
// listed here with its API coordinates, scope, per-operation timeout and
// deletion wave. The table drives one generic discover/strip/delete path
// instead of one code path per kind.
package catalog

import (
	"time"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Entry describes one resource kind the pipeline knows how to tear down.
type Entry struct {
	// Kind is the Kubernetes kind, e.g. "AutoscalingRunnerSet".
	Kind string

	// GVR are the API coordinates used for list/patch/delete calls.
	GVR schema.GroupVersionResource

	// Namespaced is false for cluster-scoped kinds (CRDs, cluster RBAC,
	// webhook configurations).
	Namespaced bool

	// CustomResource marks ARC-owned custom resource kinds. Instances of
	// these are always in scope regardless of labels.
	CustomResource bool

	// Wave is the deletion order within a phase. Lower waves are deleted
	// first: workloads before config, config before RBAC.
	Wave int

	// Timeout is the default budget for a single mutating operation
	// against this kind, used when the run's configured timeouts leave
	// the matching value unset.
	Timeout time.Duration
}

// Qualified returns "resource.group" (or just the resource for the core
// group), the conventional short identifier for log lines.
func (e Entry) Qualified() string {
	if e.GVR.Group == "" {
		return e.GVR.Resource
	}
	return e.GVR.Resource + "." + e.GVR.Group
}

// Per-operation timeout defaults. Pods get a longer delete budget because
// the kubelet is involved even for grace-0 deletes.
const (
	ListTimeout      = 5 * time.Second
	PatchTimeout     = 3 * time.Second
	DeleteTimeout    = 10 * time.Second
	PodDeleteTimeout = 30 * time.Second
	WebhookTimeout   = 10 * time.Second
	NamespaceTimeout = 30 * time.Second
)

// API groups used by the two generations of actions-runner-controller.
const (
	GroupSummerwind = "actions.summerwind.dev"
	GroupGitHub     = "actions.github.com"
)

var entries = []Entry{
	// ARC custom resources, both API generations. Wave 0: the controller
	// recreates downstream objects from these, so they go first.
	{Kind: "Runner", GVR: schema.GroupVersionResource{Group: GroupSummerwind, Version: "v1alpha1", Resource: "runners"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "RunnerReplicaSet", GVR: schema.GroupVersionResource{Group: GroupSummerwind, Version: "v1alpha1", Resource: "runnerreplicasets"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "RunnerDeployment", GVR: schema.GroupVersionResource{Group: GroupSummerwind, Version: "v1alpha1", Resource: "runnerdeployments"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "HorizontalRunnerAutoscaler", GVR: schema.GroupVersionResource{Group: GroupSummerwind, Version: "v1alpha1", Resource: "horizontalrunnerautoscalers"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "AutoscalingRunnerSet", GVR: schema.GroupVersionResource{Group: GroupGitHub, Version: "v1alpha1", Resource: "autoscalingrunnersets"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "EphemeralRunnerSet", GVR: schema.GroupVersionResource{Group: GroupGitHub, Version: "v1alpha1", Resource: "ephemeralrunnersets"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "EphemeralRunner", GVR: schema.GroupVersionResource{Group: GroupGitHub, Version: "v1alpha1", Resource: "ephemeralrunners"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},
	{Kind: "AutoscalingListener", GVR: schema.GroupVersionResource{Group: GroupGitHub, Version: "v1alpha1", Resource: "autoscalinglisteners"}, Namespaced: true, CustomResource: true, Wave: 0, Timeout: DeleteTimeout},

	// Workloads. Wave 1.
	{Kind: "Pod", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "pods"}, Namespaced: true, Wave: 1, Timeout: PodDeleteTimeout},

	// Config and supporting objects. Wave 2.
	{Kind: "Service", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "services"}, Namespaced: true, Wave: 2, Timeout: DeleteTimeout},
	{Kind: "Secret", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"}, Namespaced: true, Wave: 2, Timeout: DeleteTimeout},
	{Kind: "ConfigMap", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "configmaps"}, Namespaced: true, Wave: 2, Timeout: DeleteTimeout},
	{Kind: "PersistentVolumeClaim", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "persistentvolumeclaims"}, Namespaced: true, Wave: 2, Timeout: DeleteTimeout},

	// RBAC. Wave 3: removed last so earlier deletes keep their permissions.
	{Kind: "ServiceAccount", GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "serviceaccounts"}, Namespaced: true, Wave: 3, Timeout: DeleteTimeout},
	{Kind: "Role", GVR: schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "roles"}, Namespaced: true, Wave: 3, Timeout: DeleteTimeout},
	{Kind: "RoleBinding", GVR: schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "rolebindings"}, Namespaced: true, Wave: 3, Timeout: DeleteTimeout},

	// Cluster-scoped. Wave 4.
	{Kind: "ClusterRole", GVR: schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "clusterroles"}, Wave: 4, Timeout: DeleteTimeout},
	{Kind: "ClusterRoleBinding", GVR: schema.GroupVersionResource{Group: "rbac.authorization.k8s.io", Version: "v1", Resource: "clusterrolebindings"}, Wave: 4, Timeout: DeleteTimeout},
	{Kind: "CustomResourceDefinition", GVR: schema.GroupVersionResource{Group: "apiextensions.k8s.io", Version: "v1", Resource: "customresourcedefinitions"}, Wave: 5, Timeout: DeleteTimeout},
}

var webhookEntries = []Entry{
	{Kind: "ValidatingWebhookConfiguration", GVR: schema.GroupVersionResource{Group: "admissionregistration.k8s.io", Version: "v1", Resource: "validatingwebhookconfigurations"}, Wave: 0, Timeout: WebhookTimeout},
	{Kind: "MutatingWebhookConfiguration", GVR: schema.GroupVersionResource{Group: "admissionregistration.k8s.io", Version: "v1", Resource: "mutatingwebhookconfigurations"}, Wave: 0, Timeout: WebhookTimeout},
}

// NamespaceEntry is the owning namespace itself, handled by its own phase.
var NamespaceEntry = Entry{
	Kind:    "Namespace",
	GVR:     schema.GroupVersionResource{Group: "", Version: "v1", Resource: "namespaces"},
	Timeout: NamespaceTimeout,
}

// All returns every catalog entry except webhook configurations and the
// namespace, ordered by wave.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Namespaced returns the namespace-scoped entries, ordered by wave.
func Namespaced() []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Namespaced {
			out = append(out, e)
		}
	}
	return out
}

// ClusterScoped returns the cluster-scoped entries (excluding webhooks),
// ordered by wave.
func ClusterScoped() []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.Namespaced {
			out = append(out, e)
		}
	}
	return out
}

// Webhooks returns the admission webhook configuration entries.
func Webhooks() []Entry {
	out := make([]Entry, len(webhookEntries))
	copy(out, webhookEntries)
	return out
}

// LookupByResource returns the entry for a resource name such as
// "autoscalingrunnersets", searching webhooks and the namespace entry too.
func LookupByResource(resource string) (Entry, bool) {
	for _, e := range entries {
		if e.GVR.Resource == resource {
			return e, true
		}
	}
	for _, e := range webhookEntries {
		if e.GVR.Resource == resource {
			return e, true
		}
	}
	if NamespaceEntry.GVR.Resource == resource {
		return NamespaceEntry, true
	}
	return Entry{}, false
}
