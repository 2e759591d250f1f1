//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"testing"
	"time"

	internalcli "github.com/adyen/shopharness/internal/cli"
)

// TestSuite runs every scenario in a real browser
// Feature: Storefront regression suite
//
//	Scenario: All scenarios pass against the demo storefront
//	  Given the demo storefront is running
//	  When I run every scenario with the configured driver
//	  Then every scenario passes
func TestSuite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := *harness
	cfg.ArtifactDir = t.TempDir()

	var out bytes.Buffer
	summary, err := internalcli.RunSuite(ctx, internalcli.RunDependencies{
		Config:   &cfg,
		Launcher: launcher,
		Out:      &out,
	})
	t.Log("\n" + out.String())
	if err != nil {
		t.Fatalf("Suite failed: %v", err)
	}
	if summary.Passed != 8 {
		t.Errorf("Expected 8 passed scenarios, got %s", summary)
	}
}
