//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/adyen/shopharness/internal/pages"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
)

// newSite starts a browser session and returns the page objects over it.
func newSite(t *testing.T) (*pages.Site, *report.Memory) {
	t.Helper()
	opts, err := harness.BrowserOptions()
	if err != nil {
		t.Fatal(err)
	}
	s, err := session.Start(context.Background(), session.Config{Driver: harness.Driver, Options: opts}, launcher, nil)
	if err != nil {
		t.Fatalf("Failed to start browser: %v", err)
	}
	t.Cleanup(func() { _ = s.Quit() })

	routes, err := pages.NewRoutes(shopURL)
	if err != nil {
		t.Fatal(err)
	}
	mem := &report.Memory{}
	p, err := pages.NewPage(s, harness.Wait(), routes, mem)
	if err != nil {
		t.Fatal(err)
	}
	return pages.NewSite(p), mem
}

// TestProductGallery tests the thumbnail gallery
// Feature: Product Display
//
//	Scenario: Browse the first featured product's gallery
//	  Given I am on the homepage
//	  When I open the first featured product
//	  Then I can switch through every thumbnail
func TestProductGallery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	site, _ := newSite(t)

	// Given I am on the homepage
	if err := site.Main.Open(ctx); err != nil {
		t.Fatalf("Failed to open homepage: %v", err)
	}

	// When I open the first featured product
	if err := site.Main.ClickFirstProduct(ctx); err != nil {
		t.Fatalf("Failed to open product: %v", err)
	}

	// Then I can switch through every thumbnail
	n, err := site.Product.CheckThumbnails(ctx)
	if err != nil {
		t.Fatalf("Failed to check thumbnails: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 thumbnails, got %d", n)
	}
}

// TestDeleteProductAcceptsDialog tests the confirm dialog on delete
// Feature: Admin catalog
//
//	Scenario: Delete a product
//	  Given I am logged in to the admin
//	  When I delete "iPod Classic" and accept the confirmation
//	  Then the storefront no longer lists it
func TestDeleteProductAcceptsDialog(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	site, _ := newSite(t)

	// Given I am logged in to the admin
	if err := site.AdminLogin.Open(ctx); err != nil {
		t.Fatalf("Failed to open admin: %v", err)
	}
	if err := site.AdminLogin.Login(ctx, "demo", "demo"); err != nil {
		t.Fatalf("Failed to log in: %v", err)
	}

	// When I delete "iPod Classic" and accept the confirmation
	if err := site.AdminProduct.Open(ctx); err != nil {
		t.Fatalf("Failed to open products: %v", err)
	}
	deleted, err := site.AdminProduct.DeleteProductByName(ctx, "iPod Classic")
	if err != nil {
		t.Fatalf("Failed to delete product: %v", err)
	}
	if !deleted {
		t.Fatal("iPod Classic not found in the product list")
	}

	// Then the storefront no longer lists it
	if err := site.Main.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if err := site.Main.SearchProduct(ctx, "iPod Classic"); err != nil {
		t.Fatal(err)
	}
	n, err := site.Main.ProductLinkCount(ctx, "iPod Classic")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Expected no links to iPod Classic, got %d", n)
	}
}
