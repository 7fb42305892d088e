package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// RiskReport is the advisory assessment produced by the external policy
// engine before a teardown. It is logged and attached to the final report
// but never changes what the teardown does.
type RiskReport struct {
	Resources            []RiskResource `json:"resources"`
	CriticalDependencies []string       `json:"criticalDependencies"`
}

// RiskResource flags one resource the policy engine considers risky to
// remove.
type RiskResource struct {
	Kind      string `json:"kind"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// LoadRiskReport reads a risk report JSON file.
func LoadRiskReport(path string) (*RiskReport, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read risk report: %w", err)
	}

	var report RiskReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse risk report: %w", err)
	}

	return &report, nil
}
