package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsviz/arc-config-mcp-sub003/internal/catalog"
	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

func swapVerifyFactories(t *testing.T, orphans []teardown.Descriptor, verifyErr error) {
	t.Helper()

	origClient := newKubeClient
	origVerify := verifyCluster
	t.Cleanup(func() {
		newKubeClient = origClient
		verifyCluster = origVerify
	})

	newKubeClient = func(_ string) (kube.Interface, error) { return kube.NewFake(), nil }
	verifyCluster = func(_ context.Context, _ kube.Interface, _ teardown.Observer, _ teardown.Request) ([]teardown.Descriptor, error) {
		return orphans, verifyErr
	}
}

func TestVerify_Clean(t *testing.T) {
	swapVerifyFactories(t, nil, nil)

	err := Verify(context.Background(), "arc-systems", "")
	require.NoError(t, err)
}

func TestVerify_LeftoversExitPartial(t *testing.T) {
	entry, ok := catalog.LookupByResource("autoscalingrunnersets")
	require.True(t, ok)
	swapVerifyFactories(t, []teardown.Descriptor{
		{Entry: entry, Namespace: "arc-systems", Name: "linux-amd64"},
	}, nil)

	err := Verify(context.Background(), "arc-systems", "")

	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, ExitPartial, exit.Code)
}

func TestVerify_ScanErrorPropagates(t *testing.T) {
	swapVerifyFactories(t, nil, errors.New("rbac listing failed"))

	err := Verify(context.Background(), "arc-systems", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification incomplete")
}

func TestVerify_ClientErrorFails(t *testing.T) {
	swapVerifyFactories(t, nil, nil)
	newKubeClient = func(_ string) (kube.Interface, error) { return nil, errors.New("no cluster") }

	err := Verify(context.Background(), "arc-systems", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster client")
}
