// Package shoptest starts the demo storefront for tests.
package shoptest

import (
	"net/http/httptest"
	"testing"

	"github.com/adyen/shopharness/internal/handlers"
	"github.com/adyen/shopharness/internal/repository"
	"github.com/adyen/shopharness/internal/services"
)

// Admin credentials of the test shop.
const (
	AdminUsername = "demo"
	AdminPassword = "demo"
)

// NewServer starts a storefront over a freshly seeded in-memory catalog.
// The server is closed when the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()

	store := repository.NewMemoryStore()
	if err := repository.SeedDemo(store); err != nil {
		t.Fatalf("Failed to seed demo catalog: %v", err)
	}
	shop, err := handlers.NewShop(
		services.NewCatalogService(store, repository.FeaturedProductIDs),
		services.NewAccountService(store),
		services.NewAdminAuth(AdminUsername, AdminPassword),
		nil,
	)
	if err != nil {
		t.Fatalf("Failed to build shop: %v", err)
	}

	srv := httptest.NewServer(shop)
	t.Cleanup(srv.Close)
	return srv
}
