package commands

import (
	"github.com/spf13/cobra"

	"github.com/tsviz/arc-config-mcp-sub003/cmd/arcctl/handlers"
)

// Verify returns the verify command.
//
// The verify command scans the cluster for leftover runner-controller
// resources without mutating anything. It is the standalone version of the
// teardown pipeline's final phase.
func Verify() *cobra.Command {
	var (
		namespace  string
		kubeconfig string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Scan cluster-wide for leftover runner-controller resources",
		Long: `Verify lists every runner-controller resource still present in the
cluster: custom resources, workloads, RBAC, webhook configurations and
CRDs. It issues only reads.

Exit codes: 0 when the cluster is clean, 2 when leftovers are found.

Example:
  arcctl verify -n arc-systems`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Verify(cmd.Context(), namespace, kubeconfig)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace the runner controller lived in")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: in-cluster, then $KUBECONFIG)")
	_ = cmd.MarkFlagRequired("namespace")

	return cmd
}
