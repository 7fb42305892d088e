package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
	"github.com/tsviz/arc-config-mcp-sub003/internal/helm"
	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

// swapFactories replaces the injection points for one test and restores
// them on cleanup.
func swapFactories(t *testing.T, report *teardown.FinalReport, runErr error) *teardown.Request {
	t.Helper()

	origClient := newKubeClient
	origRun := runTeardown
	origConfirm := confirmTeardown
	origTTY := stdoutIsTerminal
	origRead := readFile
	t.Cleanup(func() {
		newKubeClient = origClient
		runTeardown = origRun
		confirmTeardown = origConfirm
		stdoutIsTerminal = origTTY
		readFile = origRead
	})

	var captured teardown.Request
	newKubeClient = func(_ string) (kube.Interface, error) { return kube.NewFake(), nil }
	runTeardown = func(_ context.Context, _ kube.Interface, _ helm.Uninstaller, _ teardown.Observer, req teardown.Request) (*teardown.FinalReport, error) {
		captured = req
		return report, runErr
	}
	confirmTeardown = func(_ string) (bool, error) { return true, nil }
	stdoutIsTerminal = func() bool { return false }
	readFile = func(_ string) ([]byte, error) { return nil, errors.New("no kubeconfig") }

	return &captured
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Namespace = "arc-systems"
	cfg.Aggressive = true
	return cfg
}

func TestTeardown_CleanOutcome(t *testing.T) {
	captured := swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeFullyClean}, nil)

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true})
	require.NoError(t, err)
	assert.Equal(t, "arc-systems", captured.Namespace)
	assert.True(t, captured.Aggressive)
}

func TestTeardown_PartialOutcomeExitCode(t *testing.T) {
	swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomePartial}, nil)

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true})

	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, ExitPartial, exit.Code)
}

func TestTeardown_FallbackOutcomeExitCode(t *testing.T) {
	swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeEmergencyFallback}, nil)

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true})

	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, ExitFallback, exit.Code)
}

func TestTeardown_ConfirmationMismatchAborts(t *testing.T) {
	swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeFullyClean}, nil)
	confirmTeardown = func(_ string) (bool, error) { return false, nil }

	err := Teardown(context.Background(), testConfig(), TeardownOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
}

func TestTeardown_DryRunSkipsConfirmation(t *testing.T) {
	swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeFullyClean}, nil)
	confirmTeardown = func(_ string) (bool, error) {
		t.Fatal("confirmation should not run for dry runs")
		return false, nil
	}

	cfg := testConfig()
	cfg.DryRun = true
	err := Teardown(context.Background(), cfg, TeardownOptions{})
	require.NoError(t, err)
}

func TestTeardown_RunErrorPropagates(t *testing.T) {
	swapFactories(t, nil, &teardown.ErrRunInProgress{Namespace: "arc-systems"})

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true})
	require.Error(t, err)

	var busy *teardown.ErrRunInProgress
	assert.ErrorAs(t, err, &busy)
}

func TestTeardown_RiskReportLoaded(t *testing.T) {
	captured := swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeFullyClean}, nil)

	origLoad := loadRiskReport
	t.Cleanup(func() { loadRiskReport = origLoad })
	loadRiskReport = func(_ string) (*config.RiskReport, error) {
		return &config.RiskReport{CriticalDependencies: []string{"ci"}}, nil
	}

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true, RiskReportPath: "risk.json"})
	require.NoError(t, err)
	require.NotNil(t, captured.Risk)
	assert.Equal(t, []string{"ci"}, captured.Risk.CriticalDependencies)
}

func TestTeardown_ClientErrorFails(t *testing.T) {
	swapFactories(t, &teardown.FinalReport{Outcome: teardown.OutcomeFullyClean}, nil)
	newKubeClient = func(_ string) (kube.Interface, error) { return nil, errors.New("no cluster") }

	err := Teardown(context.Background(), testConfig(), TeardownOptions{Yes: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster client")
}

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "exit code 2", (&ExitError{Code: ExitPartial}).Error())
	assert.Equal(t, "boom", (&ExitError{Code: 1, Message: "boom"}).Error())
}
