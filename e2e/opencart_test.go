//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	internalcli "github.com/adyen/shopharness/internal/cli"
)

// TestLiveStorefront runs the customer scenarios against a real OpenCart
// install named by SHOP_LIVE_URL, e.g. https://demo.opencart.com/
func TestLiveStorefront(t *testing.T) {
	live := os.Getenv("SHOP_LIVE_URL")
	if live == "" {
		t.Skip("SHOP_LIVE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg := *harness
	cfg.BaseURL = live
	cfg.ArtifactDir = t.TempDir()

	var out bytes.Buffer
	_, err := internalcli.RunSuite(ctx, internalcli.RunDependencies{
		Config:   &cfg,
		Launcher: launcher,
		Out:      &out,
		Patterns: []string{"cart", "wishlist", "review"},
	})
	t.Log("\n" + out.String())
	if err != nil {
		t.Fatalf("Live run failed: %v", err)
	}
}
