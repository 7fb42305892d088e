package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestAllOrderedByWave(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	last := -1
	for _, e := range all {
		require.GreaterOrEqual(t, e.Wave, last, "entries must be listed in wave order")
		last = e.Wave
	}
}

func TestScopeSplit(t *testing.T) {
	for _, e := range Namespaced() {
		assert.True(t, e.Namespaced, "%s should be namespaced", e.Kind)
	}
	for _, e := range ClusterScoped() {
		assert.False(t, e.Namespaced, "%s should be cluster-scoped", e.Kind)
	}
	assert.Equal(t, len(All()), len(Namespaced())+len(ClusterScoped()))
}

func TestCustomResourcesAreWaveZero(t *testing.T) {
	for _, e := range All() {
		if e.CustomResource {
			assert.Equal(t, 0, e.Wave, "%s: custom resources must be deleted first", e.Kind)
			assert.True(t, e.Namespaced, "%s: ARC custom resources are namespaced", e.Kind)
		}
	}
}

func TestWebhooks(t *testing.T) {
	hooks := Webhooks()
	require.Len(t, hooks, 2)
	for _, e := range hooks {
		assert.False(t, e.Namespaced)
		assert.Equal(t, "admissionregistration.k8s.io", e.GVR.Group)
		assert.Equal(t, WebhookTimeout, e.Timeout)
	}
}

func TestLookupByResource(t *testing.T) {
	tests := []struct {
		resource string
		found    bool
		kind     string
	}{
		{"autoscalingrunnersets", true, "AutoscalingRunnerSet"},
		{"pods", true, "Pod"},
		{"validatingwebhookconfigurations", true, "ValidatingWebhookConfiguration"},
		{"namespaces", true, "Namespace"},
		{"deployments", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			e, ok := LookupByResource(tt.resource)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.kind, e.Kind)
			}
		})
	}
}

func TestQualified(t *testing.T) {
	pod, ok := LookupByResource("pods")
	require.True(t, ok)
	assert.Equal(t, "pods", pod.Qualified())

	ars, ok := LookupByResource("autoscalingrunnersets")
	require.True(t, ok)
	assert.Equal(t, "autoscalingrunnersets.actions.github.com", ars.Qualified())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		obj    string
		want   bool
	}{
		{"controller chart label", map[string]string{"app.kubernetes.io/name": "actions-runner-controller"}, "whatever", true},
		{"scale set label", map[string]string{"app.kubernetes.io/name": "gha-runner-scale-set"}, "whatever", true},
		{"scale-set-name key presence", map[string]string{"actions.github.com/scale-set-name": "my-set"}, "whatever", true},
		{"unrelated labels, arc name", map[string]string{"app": "web"}, "arc-runner-secret", true},
		{"crd name by group suffix", nil, "runners.actions.summerwind.dev", true},
		{"unrelated object", map[string]string{"app": "web"}, "postgres-data", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := &unstructured.Unstructured{Object: map[string]interface{}{}}
			obj.SetName(tt.obj)
			if tt.labels != nil {
				obj.SetLabels(tt.labels)
			}
			assert.Equal(t, tt.want, Matches(obj))
		})
	}
}

func TestKnownFinalizersCopied(t *testing.T) {
	a := KnownFinalizers()
	require.NotEmpty(t, a)
	a[0] = "mutated"
	assert.NotEqual(t, a[0], KnownFinalizers()[0])
}
