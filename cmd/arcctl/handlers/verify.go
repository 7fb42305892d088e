package handlers

import (
	"context"
	"fmt"

	"github.com/tsviz/arc-config-mcp-sub003/internal/teardown"
)

// verifyCluster runs the standalone verification scan (for testing injection).
var verifyCluster = teardown.Verify

// Verify handles the verify command.
//
// It scans the whole cluster for leftover runner-controller resources and
// prints them. Nothing is mutated. A non-empty result exits with the
// partial code so scripts can branch on it.
func Verify(ctx context.Context, namespace, kubeconfigPath string) error {
	client, err := newKubeClient(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to create cluster client: %w", err)
	}

	req := teardown.Request{Namespace: namespace}
	orphans, err := verifyCluster(ctx, client, teardown.NewConsoleObserver(), req)
	if err != nil {
		return fmt.Errorf("verification incomplete: %w", err)
	}

	if len(orphans) == 0 {
		fmt.Printf("No runner-controller resources found; %s is clean.\n", namespace)
		return nil
	}

	fmt.Printf("Found %d leftover resources:\n", len(orphans))
	for _, orphan := range orphans {
		fmt.Printf("  %s\n", orphan.ID())
	}
	return &ExitError{Code: ExitPartial}
}
