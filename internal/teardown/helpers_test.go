package teardown

import (
	"errors"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
)

var (
	arsGVR    = schema.GroupVersionResource{Group: "actions.github.com", Version: "v1alpha1", Resource: "autoscalingrunnersets"}
	podGVR    = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "pods"}
	secretGVR = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"}
	cmGVR     = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "configmaps"}
	vwcGVR    = schema.GroupVersionResource{Group: "admissionregistration.k8s.io", Version: "v1", Resource: "validatingwebhookconfigurations"}
	nsGVR     = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "namespaces"}
)

func makeObj(apiVersion, kind, namespace, name string, labels map[string]string, finalizers []string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": apiVersion,
		"kind":       kind,
		"metadata":   map[string]interface{}{"name": name},
	}}
	if namespace != "" {
		obj.SetNamespace(namespace)
	}
	if labels != nil {
		obj.SetLabels(labels)
	}
	if len(finalizers) > 0 {
		obj.SetFinalizers(finalizers)
	}
	return obj
}

func runnerSet(namespace, name string, finalizers ...string) *unstructured.Unstructured {
	return makeObj("actions.github.com/v1alpha1", "AutoscalingRunnerSet", namespace, name, nil, finalizers)
}

func scaleSetPod(namespace, name string) *unstructured.Unstructured {
	return makeObj("v1", "Pod", namespace, name, map[string]string{"app.kubernetes.io/name": "gha-runner-scale-set"}, nil)
}

func webhookConfig(name string) *unstructured.Unstructured {
	return makeObj("admissionregistration.k8s.io/v1", "ValidatingWebhookConfiguration", "", name, nil, nil)
}

func namespaceObj(name string) *unstructured.Unstructured {
	return makeObj("v1", "Namespace", "", name, nil, nil)
}

func fastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		List:            200 * time.Millisecond,
		Patch:           100 * time.Millisecond,
		Delete:          200 * time.Millisecond,
		PodDelete:       200 * time.Millisecond,
		Webhook:         200 * time.Millisecond,
		Namespace:       300 * time.Millisecond,
		GlobalDeadline:  5 * time.Second,
		EmergencyBudget: 1 * time.Second,
	}
}

func testRequest(namespace string) Request {
	return Request{
		Namespace:   namespace,
		Aggressive:  true,
		MaxInFlight: 4,
		Timeouts:    fastTimeouts(),
	}
}

type fakeUninstaller struct {
	mu          sync.Mutex
	releases    []string
	uninstalled []string
	err         error
}

func (f *fakeUninstaller) Releases() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases, nil
}

func (f *fakeUninstaller) Uninstall(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.uninstalled = append(f.uninstalled, name)
	return nil
}

func (f *fakeUninstaller) uninstalledReleases() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.uninstalled))
	copy(out, f.uninstalled)
	return out
}

func findPhase(report *FinalReport, name string) *PhaseResult {
	for i := range report.Phases {
		if report.Phases[i].Phase == name {
			return &report.Phases[i]
		}
	}
	return nil
}

var errBoom = errors.New("boom")
