//go:build integration
// +build integration

package repository

import (
	"testing"

	"github.com/adyen/shopharness/internal/models"
	"github.com/adyen/shopharness/internal/repository/testutil"
)

func TestCatalogRepository_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	runStoreContract(t, NewCatalogRepositoryWithDB(testDB.DB))
}

func TestCatalogRepository_SequenceAfterSeed_Integration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCatalogRepositoryWithDB(testDB.DB)
	if err := SeedDemo(repo); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	p, err := repo.GetProduct(43)
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if len(p.Images) != 5 {
		t.Errorf("Expected 5 images, got %v", p.Images)
	}

	cats, _ := repo.ListCategories()
	var maxID int64
	for _, c := range cats {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	// A generated ID must not collide with a seeded one.
	devices := &models.Category{Name: "Devices"}
	if err := repo.CreateCategory(devices); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if devices.ID <= maxID {
		t.Errorf("Generated ID %d collides with seeded range (max %d)", devices.ID, maxID)
	}
}
