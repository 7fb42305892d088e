package helm

import (
	"errors"
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// Charts that install the runner controller or its scale sets. Releases of
// any of these are uninstalled during teardown when no explicit release
// name is given.
var runnerCharts = map[string]struct{}{
	"actions-runner-controller":       {},
	"gha-runner-scale-set-controller": {},
	"gha-runner-scale-set":            {},
}

// Uninstaller removes Helm releases from a namespace.
type Uninstaller interface {
	// Releases lists runner-controller release names in the namespace.
	Releases() ([]string, error)
	// Uninstall removes a release. A missing release is not an error.
	Uninstall(releaseName string) error
}

// Client provides Helm operations using in-memory kubeconfig.
type Client struct {
	namespace    string
	actionConfig *action.Configuration
}

var _ Uninstaller = (*Client)(nil)

// NewClient creates a Helm client from kubeconfig bytes, scoped to one
// namespace.
func NewClient(kubeconfig []byte, namespace string) (*Client, error) {
	actionConfig := new(action.Configuration)
	restGetter := NewInMemoryRESTClientGetter(kubeconfig, namespace)

	// Initialize with a no-op logger (suppress debug output)
	if err := actionConfig.Init(restGetter, namespace, "secret", func(format string, v ...interface{}) {}); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}

	return &Client{
		namespace:    namespace,
		actionConfig: actionConfig,
	}, nil
}

// Releases returns the names of deployed releases in the namespace whose
// chart is one of the runner-controller charts.
func (c *Client) Releases() ([]string, error) {
	listClient := action.NewList(c.actionConfig)
	listClient.All = true
	listClient.StateMask = action.ListAll

	rels, err := listClient.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to list helm releases: %w", err)
	}

	var names []string
	for _, rel := range rels {
		if isRunnerRelease(rel) {
			names = append(names, rel.Name)
		}
	}
	return names, nil
}

func isRunnerRelease(rel *release.Release) bool {
	if rel == nil || rel.Chart == nil || rel.Chart.Metadata == nil {
		return false
	}
	_, ok := runnerCharts[rel.Chart.Metadata.Name]
	return ok
}

// Uninstall removes a Helm release without waiting for resources to be
// gone; the phases that follow handle anything the release leaves behind.
// A release that does not exist counts as already uninstalled.
func (c *Client) Uninstall(releaseName string) error {
	uninstallClient := action.NewUninstall(c.actionConfig)
	uninstallClient.Wait = false
	uninstallClient.DisableHooks = false
	uninstallClient.Timeout = 2 * time.Minute

	_, err := uninstallClient.Run(releaseName)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return nil
	}
	return err
}
