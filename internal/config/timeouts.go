package config

import (
	"os"
	"strconv"
	"time"
)

const defaultMaxInFlight = 8

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	List      time.Duration // Timeout for each list operation
	Patch     time.Duration // Timeout for each finalizer patch attempt
	Delete    time.Duration // Timeout for each delete operation
	PodDelete time.Duration // Timeout for pod deletes (longer: kubelet round-trip)
	Webhook   time.Duration // Timeout for webhook configuration deletes
	Namespace time.Duration // Timeout for each namespace removal strategy

	// GlobalDeadline bounds the whole teardown run. When it expires the
	// run short-circuits into the emergency fallback.
	GlobalDeadline time.Duration

	// EmergencyBudget bounds the fallback itself, on a fresh context.
	EmergencyBudget time.Duration
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - ARC_TIMEOUT_LIST (default: 5s)
//   - ARC_TIMEOUT_PATCH (default: 3s)
//   - ARC_TIMEOUT_DELETE (default: 10s)
//   - ARC_TIMEOUT_POD_DELETE (default: 30s)
//   - ARC_TIMEOUT_WEBHOOK (default: 10s)
//   - ARC_TIMEOUT_NAMESPACE (default: 30s)
//   - ARC_GLOBAL_DEADLINE (default: 10m)
//   - ARC_EMERGENCY_BUDGET (default: 60s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		List:            parseDuration("ARC_TIMEOUT_LIST", 5*time.Second),
		Patch:           parseDuration("ARC_TIMEOUT_PATCH", 3*time.Second),
		Delete:          parseDuration("ARC_TIMEOUT_DELETE", 10*time.Second),
		PodDelete:       parseDuration("ARC_TIMEOUT_POD_DELETE", 30*time.Second),
		Webhook:         parseDuration("ARC_TIMEOUT_WEBHOOK", 10*time.Second),
		Namespace:       parseDuration("ARC_TIMEOUT_NAMESPACE", 30*time.Second),
		GlobalDeadline:  parseDuration("ARC_GLOBAL_DEADLINE", 10*time.Minute),
		EmergencyBudget: parseDuration("ARC_EMERGENCY_BUDGET", 60*time.Second),
	}
}

// MaxInFlightFromEnv returns the ARC_MAX_INFLIGHT override, or the given
// current value when unset or invalid.
func MaxInFlightFromEnv(current int) int {
	n := parseInt("ARC_MAX_INFLIGHT", current)
	if n < 1 {
		return current
	}
	return n
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
