package config

import (
	"fmt"
)

// Namespaces the teardown refuses to touch regardless of flags. Runner
// deployments never belong in these, and a typo here would be catastrophic.
var protectedNamespaces = map[string]struct{}{
	"kube-system":     {},
	"kube-public":     {},
	"kube-node-lease": {},
	"default":         {},
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if _, protected := protectedNamespaces[c.Namespace]; protected {
		return fmt.Errorf("namespace %q is protected and cannot be torn down", c.Namespace)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("maxInFlight must be at least 1, got %d", c.MaxInFlight)
	}
	return nil
}

// IsProtectedNamespace reports whether teardown refuses the namespace.
func IsProtectedNamespace(namespace string) bool {
	_, ok := protectedNamespaces[namespace]
	return ok
}
