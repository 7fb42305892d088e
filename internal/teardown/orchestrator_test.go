package teardown

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
)

func forbiddenErr(resource, name string) error {
	return apierrors.NewForbidden(schema.GroupResource{Resource: resource}, name, errors.New("rbac denies it"))
}

func badRequestErr() error {
	return apierrors.NewBadRequest("malformed patch")
}

func TestRun_CleanNamespaceIsIdempotent(t *testing.T) {
	fake := kube.NewFake()

	first, err := New(fake, nil, nil, testRequest("arc-empty")).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFullyClean, first.Outcome)
	assert.True(t, first.NamespaceDestroyed)

	second, err := New(fake, nil, nil, testRequest("arc-empty")).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeFullyClean, second.Outcome)

	// Neither run had anything to do, so no patch or delete was issued.
	assert.Zero(t, fake.Mutations())
	assert.Zero(t, second.Counters.Discovered)
}

func TestRun_WebhookRace_DisablerWins(t *testing.T) {
	const ns = "arc-systems"
	const webhookName = "actions-runner-controller-validating-webhook-configuration"
	const finalizer = "actions.github.com/cleanup-protection"

	fake := kube.NewFake()
	fake.Add(vwcGVR, webhookConfig(webhookName))
	fake.Add(arsGVR, runnerSet(ns, "my-runners", finalizer))
	fake.Add(podGVR, scaleSetPod(ns, "my-runners-listener"))
	fake.Add(nsGVR, namespaceObj(ns))

	// While the webhook configuration exists, every finalizer-removing
	// patch on runner sets gets the finalizer put straight back.
	fake.PatchHook = func(gvr schema.GroupVersionResource, _, _ string, obj *unstructured.Unstructured) {
		if gvr != arsGVR {
			return
		}
		if fake.Has(vwcGVR, "", webhookName) {
			obj.SetFinalizers([]string{finalizer})
		}
	}

	uninstaller := &fakeUninstaller{releases: []string{"arc"}}
	report, err := New(fake, uninstaller, nil, testRequest(ns)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFullyClean, report.Outcome)
	assert.True(t, report.NamespaceDestroyed)
	assert.Empty(t, report.Orphans)
	assert.Nil(t, findPhase(report, "emergency-fallback"))

	assert.False(t, fake.Has(vwcGVR, "", webhookName))
	assert.False(t, fake.Has(arsGVR, ns, "my-runners"))
	assert.False(t, fake.Has(podGVR, ns, "my-runners-listener"))
	assert.False(t, fake.Has(nsGVR, "", ns))

	assert.Equal(t, []string{"arc"}, uninstaller.uninstalledReleases())
	assert.Equal(t, 2, report.Counters.Discovered)
	assert.Equal(t, 1, report.Counters.Stripped)
}

func TestRun_WebhookForbidden_FallsBack(t *testing.T) {
	const ns = "arc-locked"
	const webhookName = "actions-runner-controller-validating-webhook-configuration"
	const finalizer = "actions.github.com/cleanup-protection"

	fake := kube.NewFake()
	fake.Add(vwcGVR, webhookConfig(webhookName))
	fake.Add(arsGVR, runnerSet(ns, "my-runners", finalizer))
	fake.Add(nsGVR, namespaceObj(ns))
	fake.FailOn("delete", "validatingwebhookconfigurations", "", forbiddenErr("validatingwebhookconfigurations", webhookName))

	fake.PatchHook = func(gvr schema.GroupVersionResource, _, _ string, obj *unstructured.Unstructured) {
		if gvr != arsGVR {
			return
		}
		if fake.Has(vwcGVR, "", webhookName) {
			obj.SetFinalizers([]string{finalizer})
		}
	}

	req := testRequest(ns)
	start := time.Now()
	report, err := New(fake, nil, nil, req).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmergencyFallback, report.Outcome)
	assert.NotNil(t, findPhase(report, "emergency-fallback"))
	assert.Contains(t, report.RootCause, "forbidden")

	// The webhook kept winning the race, so the runner set survives even
	// the fallback pass.
	assert.True(t, fake.Has(arsGVR, ns, "my-runners"))
	assert.Less(t, time.Since(start), req.Timeouts.GlobalDeadline+req.Timeouts.EmergencyBudget)
}

func TestRun_DryRunIssuesNoMutations(t *testing.T) {
	const ns = "arc-plan"

	fake := kube.NewFake()
	fake.Add(vwcGVR, webhookConfig("actions-runner-controller-validating-webhook-configuration"))
	fake.Add(arsGVR, runnerSet(ns, "my-runners", "actions.github.com/cleanup-protection"))
	fake.Add(nsGVR, namespaceObj(ns))

	uninstaller := &fakeUninstaller{releases: []string{"arc"}}
	req := testRequest(ns)
	req.DryRun = true

	report, err := New(fake, uninstaller, nil, req).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, fake.Mutations())
	assert.Empty(t, uninstaller.uninstalledReleases())
	assert.Equal(t, OutcomeFullyClean, report.Outcome)

	require.NotEmpty(t, report.Plan)
	joined := strings.Join(report.Plan, "\n")
	assert.Contains(t, joined, "would delete validatingwebhookconfigurations.admissionregistration.k8s.io/actions-runner-controller-validating-webhook-configuration")
	assert.Contains(t, joined, "would uninstall")
	assert.Contains(t, joined, "would force-delete autoscalingrunnersets.actions.github.com/arc-plan/my-runners")
	assert.Contains(t, joined, "would delete namespaces/arc-plan")

	sweepPhase := findPhase(report, "sweep")
	require.NotNil(t, sweepPhase)
	assert.Equal(t, PhaseSkipped, sweepPhase.Status)
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	const ns = "arc-partial"

	fake := kube.NewFake()
	fake.Add(arsGVR, runnerSet(ns, "set-a"))
	fake.Add(arsGVR, runnerSet(ns, "set-b"))
	fake.Add(nsGVR, namespaceObj(ns))
	fake.FailOn("delete", "autoscalingrunnersets", "set-a", badRequestErr())

	report, err := New(fake, nil, nil, testRequest(ns)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, report.Outcome)
	assert.Nil(t, findPhase(report, "emergency-fallback"))

	assert.True(t, fake.Has(arsGVR, ns, "set-a"))
	assert.False(t, fake.Has(arsGVR, ns, "set-b"))

	require.Len(t, report.Orphans, 1)
	assert.Equal(t, "set-a", report.Orphans[0].Name)
}

func TestRun_PreserveDataGate(t *testing.T) {
	const ns = "arc-preserve"

	fake := kube.NewFake()
	fake.Add(arsGVR, runnerSet(ns, "my-runners"))
	fake.Add(secretGVR, makeObj("v1", "Secret", ns, "actions-runner-controller-github-token", nil, nil))
	fake.Add(nsGVR, namespaceObj(ns))

	req := testRequest(ns)
	req.PreserveData = true

	report, err := New(fake, nil, nil, req).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, report.Outcome)
	assert.True(t, report.NamespacePreserved)
	assert.False(t, report.NamespaceDestroyed)

	destroy := findPhase(report, "destroy-namespace")
	require.NotNil(t, destroy)
	assert.Equal(t, PhaseSkipped, destroy.Status)
	require.NotEmpty(t, destroy.Notes)
	assert.Contains(t, destroy.Notes[0], "preserved")

	// Data survived, the runner set did not.
	assert.True(t, fake.Has(secretGVR, ns, "actions-runner-controller-github-token"))
	assert.False(t, fake.Has(arsGVR, ns, "my-runners"))
	assert.Empty(t, report.Orphans)
}

func TestRun_GuaranteedTermination(t *testing.T) {
	const ns = "arc-stuck"

	fake := kube.NewFake()
	fake.Add(arsGVR, runnerSet(ns, "my-runners", "actions.github.com/cleanup-protection"))
	fake.Add(nsGVR, namespaceObj(ns))
	// No patch shape works: the finalizer can never be removed.
	fake.FailOn("patch", "autoscalingrunnersets", "", badRequestErr())

	req := testRequest(ns)
	start := time.Now()
	report, err := New(fake, nil, nil, req).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeEmergencyFallback, report.Outcome)
	assert.NotNil(t, findPhase(report, "emergency-fallback"))
	assert.Contains(t, report.RootCause, "stuck finalizer")
	assert.Less(t, time.Since(start), req.Timeouts.GlobalDeadline+req.Timeouts.EmergencyBudget)
}

func TestRun_NamespaceGuardRejectsConcurrentRun(t *testing.T) {
	release, err := guard.acquire("arc-guarded")
	require.NoError(t, err)
	defer release()

	_, err = New(kube.NewFake(), nil, nil, testRequest("arc-guarded")).Run(context.Background())

	var inProgress *ErrRunInProgress
	require.ErrorAs(t, err, &inProgress)
	assert.Equal(t, "arc-guarded", inProgress.Namespace)
}

func TestVerify_FindsLeakedResources(t *testing.T) {
	fake := kube.NewFake()
	fake.Add(podGVR, scaleSetPod("some-other-namespace", "leaked-runner"))

	orphans, err := Verify(context.Background(), fake, nil, testRequest("arc-gone"))
	require.NoError(t, err)

	require.Len(t, orphans, 1)
	assert.Equal(t, "leaked-runner", orphans[0].Name)
	assert.Equal(t, "some-other-namespace", orphans[0].Namespace)
	assert.Zero(t, fake.Mutations())
}
