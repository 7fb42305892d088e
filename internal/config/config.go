// Package config holds teardown configuration: target namespace, behavior
// flags, and the timeout/concurrency knobs, loadable from a YAML file with
// environment variable overrides.
package config

// Config is the full teardown configuration.
type Config struct {
	// Kubeconfig is the path to the kubeconfig file. Empty means in-cluster.
	Kubeconfig string `mapstructure:"kubeconfig"`

	// Namespace is the namespace the runner controller lives in.
	Namespace string `mapstructure:"namespace"`

	// Release is the Helm release to uninstall. Empty means discover
	// runner-controller releases in the namespace.
	Release string `mapstructure:"release"`

	// Aggressive skips the runner-liveness checks during scanning. The
	// caller is responsible for ensuring no workflow jobs are running.
	Aggressive bool `mapstructure:"aggressive"`

	// PreserveData keeps secrets, configmaps and PVCs.
	PreserveData bool `mapstructure:"preserveData"`

	// DryRun records the plan without issuing any mutating call.
	DryRun bool `mapstructure:"dryRun"`

	// ForceNamespaceRemoval destroys the namespace even when resources
	// outside the runner catalog remain in it.
	ForceNamespaceRemoval bool `mapstructure:"forceNamespaceRemoval"`

	// MaxInFlight caps concurrent API operations within a phase.
	MaxInFlight int `mapstructure:"maxInFlight"`

	Timeouts *Timeouts `mapstructure:"-"`
}

// Default returns a config with defaults applied; the namespace must still
// be set by the caller.
func Default() *Config {
	return &Config{
		MaxInFlight: defaultMaxInFlight,
		Timeouts:    LoadTimeouts(),
	}
}
