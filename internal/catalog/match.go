package catalog

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Label keys and values that identify ARC-managed objects. Both Helm chart
// generations are covered.
var identifyingLabels = map[string][]string{
	"app.kubernetes.io/name":    {"actions-runner-controller", "gha-runner-scale-set", "gha-runner-scale-set-controller", "gha-rs-controller"},
	"app.kubernetes.io/part-of": {"actions-runner-controller", "gha-runner-scale-set", "gha-rs-controller"},
	"actions.github.com/scale-set-name": {},
}

// Name prefixes and substrings used as a fallback when objects carry no
// identifying labels (e.g. hand-applied manifests).
var namePatterns = []string{
	"actions-runner-controller",
	"gha-runner-scale-set",
	"gha-rs-",
	"arc-runner",
	"arc-controller",
	"autoscaling-runner-set",
}

// Finalizers ARC is known to place on its objects.
var knownFinalizers = []string{
	"actions.github.com/cleanup-protection",
	"autoscalingrunnerset.actions.github.com/finalizer",
	"actions.summerwind.dev/runner-pod",
	"runner.actions.summerwind.dev/finalizer",
}

// Matches reports whether an object belongs to an ARC installation, judged
// by labels first and name patterns second. Custom resource instances are
// matched unconditionally by their kind, so callers skip this check for
// entries with CustomResource set.
func Matches(obj *unstructured.Unstructured) bool {
	labels := obj.GetLabels()
	for key, values := range identifyingLabels {
		got, ok := labels[key]
		if !ok {
			continue
		}
		if len(values) == 0 {
			// Presence of the key is enough.
			return true
		}
		for _, v := range values {
			if got == v {
				return true
			}
		}
	}
	return MatchesName(obj.GetName())
}

// MatchesName reports whether a bare object name looks ARC-owned.
func MatchesName(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range namePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	// CRDs are named <plural>.<group>.
	return strings.HasSuffix(lower, "."+GroupSummerwind) || strings.HasSuffix(lower, "."+GroupGitHub)
}

// KnownFinalizers returns the finalizer strings ARC controllers use.
func KnownFinalizers() []string {
	out := make([]string, len(knownFinalizers))
	copy(out, knownFinalizers)
	return out
}
