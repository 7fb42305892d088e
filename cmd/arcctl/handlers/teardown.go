// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
	"github.com/tsviz/arc-config-mcp-sub003/internal/helm"
	"github.com/tsviz/arc-config-mcp-sub003/internal/kube"
	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
	"github.com/tsviz/arc-config-mcp-sub003/internal/ui/tui"
)

// Exit codes for the teardown and verify commands.
const (
	ExitPartial  = 2
	ExitFallback = 3
)

// ExitError carries a process exit code out of a handler.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// TeardownOptions are the command-level knobs that do not belong in the
// teardown configuration.
type TeardownOptions struct {
	RiskReportPath string
	Yes            bool
	Plain          bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newKubeClient creates the cluster client.
	newKubeClient = func(kubeconfigPath string) (kube.Interface, error) {
		return kube.NewClient(kubeconfigPath)
	}

	// newUninstaller creates the Helm uninstaller from kubeconfig bytes.
	newUninstaller = func(kubeconfig []byte, namespace string) (helm.Uninstaller, error) {
		return helm.NewClient(kubeconfig, namespace)
	}

	// runTeardown executes the teardown pipeline.
	runTeardown = func(ctx context.Context, client kube.Interface, uninstaller helm.Uninstaller, observer teardown.Observer, req teardown.Request) (*teardown.FinalReport, error) {
		return teardown.New(client, uninstaller, observer, req).Run(ctx)
	}

	// runWithTUI wraps a run with the interactive display.
	runWithTUI = tui.RunTeardown

	// confirmTeardown asks the operator to type the namespace back.
	confirmTeardown = promptConfirm

	// loadRiskReport loads the advisory risk report (for testing injection).
	loadRiskReport = config.LoadRiskReport

	// readFile reads kubeconfig bytes (for testing injection).
	readFile = os.ReadFile

	// stdoutIsTerminal reports whether stdout is attached to a terminal.
	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// Teardown handles the teardown command.
//
// It confirms the target with the operator, builds the cluster and Helm
// clients, runs the pipeline and prints the final report. The returned
// error carries the exit code for non-clean outcomes.
func Teardown(ctx context.Context, cfg *config.Config, opts TeardownOptions) error {
	req := teardown.Request{
		Namespace:             cfg.Namespace,
		Release:               cfg.Release,
		Aggressive:            cfg.Aggressive,
		PreserveData:          cfg.PreserveData,
		DryRun:                cfg.DryRun,
		ForceNamespaceRemoval: cfg.ForceNamespaceRemoval,
		MaxInFlight:           cfg.MaxInFlight,
		Timeouts:              cfg.Timeouts,
	}

	if opts.RiskReportPath != "" {
		risk, err := loadRiskReport(opts.RiskReportPath)
		if err != nil {
			return fmt.Errorf("failed to load risk report: %w", err)
		}
		req.Risk = risk
	}

	if !opts.Yes && !cfg.DryRun {
		ok, err := confirmTeardown(cfg.Namespace)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("aborted: confirmation did not match namespace %q", cfg.Namespace)
		}
	}

	client, err := newKubeClient(cfg.Kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create cluster client: %w", err)
	}

	uninstaller := buildUninstaller(cfg)

	run := func(observer teardown.Observer) (*teardown.FinalReport, error) {
		return runTeardown(ctx, client, uninstaller, observer, req)
	}

	var report *teardown.FinalReport
	if !opts.Plain && stdoutIsTerminal() {
		report, err = runWithTUI(cfg.Namespace, cfg.DryRun, run)
	} else {
		report, err = run(teardown.NewConsoleObserver())
	}
	if err != nil {
		return err
	}

	printReport(report)
	return outcomeError(report)
}

// buildUninstaller creates the Helm client. Helm handling is best-effort:
// when no kubeconfig bytes can be resolved (e.g. in-cluster) or the client
// cannot initialize, the raw deletes cover the release's resources anyway.
func buildUninstaller(cfg *config.Config) helm.Uninstaller {
	path := cfg.Kubeconfig
	if path == "" {
		path = os.Getenv("KUBECONFIG")
	}
	if path == "" {
		path = clientcmd.RecommendedHomeFile
	}

	kubeconfig, err := readFile(path)
	if err != nil {
		log.Printf("Warning: skipping helm uninstall, no kubeconfig at %s: %v", path, err)
		return nil
	}

	uninstaller, err := newUninstaller(kubeconfig, cfg.Namespace)
	if err != nil {
		log.Printf("Warning: skipping helm uninstall: %v", err)
		return nil
	}
	return uninstaller
}

func promptConfirm(namespace string) (bool, error) {
	var typed string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("This permanently removes the runner controller and namespace %q.", namespace)).
				Description("Type the namespace to confirm.").
				Value(&typed),
		),
	).Run()
	if err != nil {
		return false, err
	}
	return typed == namespace, nil
}

// printReport writes the final report to stdout.
func printReport(report *teardown.FinalReport) {
	fmt.Printf("\nOutcome: %s (in %v)\n", report.Outcome, report.Elapsed.Round(time.Millisecond))
	if report.RootCause != "" {
		fmt.Printf("Root cause: %s\n", report.RootCause)
	}

	fmt.Println("\nPhases:")
	for _, p := range report.Phases {
		fmt.Printf("  %-20s %-9s %8v  processed %d", p.Phase, p.Status, p.Duration.Round(time.Millisecond), p.Processed)
		if len(p.Errors) > 0 {
			fmt.Printf("  errors %d", len(p.Errors))
		}
		fmt.Println()
		for _, note := range p.Notes {
			fmt.Printf("      %s\n", note)
		}
		for _, re := range p.Errors {
			fmt.Printf("      %s: %v\n", re.Resource, re.Err)
		}
	}

	c := report.Counters
	fmt.Printf("\nResources: discovered %d, stripped %d, deleted %d, orphaned %d\n",
		c.Discovered, c.Stripped, c.Deleted, c.Orphaned)

	switch {
	case report.NamespaceDestroyed:
		fmt.Println("Namespace destroyed.")
	case report.NamespacePreserved:
		fmt.Println("Namespace preserved.")
	}

	if len(report.Orphans) > 0 {
		fmt.Println("\nOrphans (manual cleanup required):")
		for _, orphan := range report.Orphans {
			fmt.Printf("  %s\n", orphan.ID())
		}
	}

	if len(report.Plan) > 0 {
		fmt.Println("\nPlan (dry run, nothing was changed):")
		for _, action := range report.Plan {
			fmt.Printf("  %s\n", action)
		}
	}
}

func outcomeError(report *teardown.FinalReport) error {
	switch report.Outcome {
	case teardown.OutcomePartial:
		return &ExitError{Code: ExitPartial}
	case teardown.OutcomeEmergencyFallback:
		return &ExitError{Code: ExitFallback}
	default:
		return nil
	}
}
