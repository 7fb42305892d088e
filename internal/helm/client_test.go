package helm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/release"
)

func TestIsRunnerRelease(t *testing.T) {
	rel := func(chartName string) *release.Release {
		return &release.Release{
			Name:  "some-release",
			Chart: &chart.Chart{Metadata: &chart.Metadata{Name: chartName}},
		}
	}

	tests := []struct {
		name string
		rel  *release.Release
		want bool
	}{
		{"controller chart", rel("actions-runner-controller"), true},
		{"scale set controller chart", rel("gha-runner-scale-set-controller"), true},
		{"scale set chart", rel("gha-runner-scale-set"), true},
		{"unrelated chart", rel("nginx-ingress"), false},
		{"nil release", nil, false},
		{"no chart metadata", &release.Release{Name: "x", Chart: &chart.Chart{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRunnerRelease(tt.rel))
		})
	}
}
