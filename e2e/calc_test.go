//go:build e2e

package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/thesyncim/calctest/pkg/calc"
)

// TestCalculator runs the built-in scenarios against -url.
func TestCalculator(t *testing.T) {
	if *calcURL == "" {
		t.Skip("-url not set")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*calcURL)
	if err != nil {
		t.Skipf("calculator not reachable at %s: %v", *calcURL, err)
	}
	resp.Body.Close()

	suite, err := calc.NewSuite(engines(t), calc.Scenarios(),
		calc.WithDriverConfig(driverConfig()),
		calc.WithRunnerOptions(calc.WithURL(*calcURL)),
		calc.WithArtifactsDir(t.TempDir()),
		calc.WithCaseTimeout(2*time.Minute),
	)
	if err != nil {
		t.Fatalf("failed to create suite: %v", err)
	}

	runSuite(t, suite)
}
