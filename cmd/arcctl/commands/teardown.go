package commands

import (
	"github.com/spf13/cobra"

	"github.com/tsviz/arc-config-mcp-sub003/cmd/arcctl/handlers"
	"github.com/tsviz/arc-config-mcp-sub003/internal/config"
)

// teardownFlags holds the raw flag values for the teardown command.
type teardownFlags struct {
	configPath            string
	namespace             string
	kubeconfig            string
	release               string
	aggressive            bool
	preserveData          bool
	dryRun                bool
	forceNamespaceRemoval bool
	maxInFlight           int
	riskReport            string
	yes                   bool
	plain                 bool
}

// Teardown returns the teardown command.
//
// The teardown command removes a runner-controller installation from the
// target namespace: webhooks, custom resources, workloads, RBAC, CRDs and
// finally the namespace itself. It escalates through finalizer stripping
// and forced deletion and always finishes with a report of what remains.
func Teardown() *cobra.Command {
	var flags teardownFlags

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove a runner-controller installation and its namespace",
		Long: `Teardown removes every trace of a GitHub Actions runner-controller
installation from the cluster.

The pipeline runs in escalating phases:
  - disable the controller's admission webhooks
  - scan runner resources across the catalog
  - strip finalizers so nothing can block deletion
  - uninstall the Helm release and force-delete survivors
  - sweep anything that reappears
  - destroy the namespace
  - verify cluster-wide that nothing is left

The run is bounded: if the pipeline deadlocks or overruns its deadline,
an emergency fallback issues best-effort deletes and the command still
returns a report.

Exit codes: 0 fully clean, 2 partial (named orphans remain),
3 emergency fallback used.

Example:
  arcctl teardown -n arc-systems

WARNING: This operation is irreversible unless --dry-run is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := teardownConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return handlers.Teardown(cmd.Context(), cfg, handlers.TeardownOptions{
				RiskReportPath: flags.riskReport,
				Yes:            flags.yes,
				Plain:          flags.plain,
			})
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Path to teardown configuration file")
	cmd.Flags().StringVarP(&flags.namespace, "namespace", "n", "", "Namespace the runner controller lives in")
	cmd.Flags().StringVar(&flags.kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: in-cluster, then $KUBECONFIG)")
	cmd.Flags().StringVar(&flags.release, "release", "", "Helm release to uninstall (default: discover runner releases)")
	cmd.Flags().BoolVar(&flags.aggressive, "aggressive", true, "Skip the runner-liveness check before force-terminating")
	cmd.Flags().BoolVar(&flags.preserveData, "preserve-data", false, "Keep secrets, configmaps and persistent volume claims")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Record the plan without issuing any mutating call")
	cmd.Flags().BoolVar(&flags.forceNamespaceRemoval, "force-namespace-removal", false, "Destroy the namespace even when non-runner resources remain")
	cmd.Flags().IntVar(&flags.maxInFlight, "max-in-flight", 0, "Cap on concurrent API operations per phase (default 8)")
	cmd.Flags().StringVar(&flags.riskReport, "risk-report", "", "Path to a pre-flight risk report (advisory only)")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip the interactive confirmation")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Plain line output instead of the interactive display")

	return cmd
}

// teardownConfig merges the optional config file with explicitly set flags.
// Flags win over the file; the file wins over defaults.
func teardownConfig(cmd *cobra.Command, flags *teardownFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.LoadFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("namespace") {
		cfg.Namespace = flags.namespace
	}
	if cmd.Flags().Changed("kubeconfig") {
		cfg.Kubeconfig = flags.kubeconfig
	}
	if cmd.Flags().Changed("release") {
		cfg.Release = flags.release
	}
	if cmd.Flags().Changed("aggressive") || flags.configPath == "" {
		cfg.Aggressive = flags.aggressive
	}
	if cmd.Flags().Changed("preserve-data") {
		cfg.PreserveData = flags.preserveData
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if cmd.Flags().Changed("force-namespace-removal") {
		cfg.ForceNamespaceRemoval = flags.forceNamespaceRemoval
	}
	if cmd.Flags().Changed("max-in-flight") {
		cfg.MaxInFlight = flags.maxInFlight
	}
	cfg.MaxInFlight = config.MaxInFlightFromEnv(cfg.MaxInFlight)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
