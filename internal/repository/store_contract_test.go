package repository

import (
	"errors"
	"testing"

	"github.com/adyen/shopharness/internal/models"
)

// store is what both backends provide to the catalog and account services.
type store interface {
	Seedable
	ListProducts(filter models.ProductFilter) ([]*models.Product, error)
	GetProduct(id int64) (*models.Product, error)
	DeleteProducts(ids []int64) (int64, error)
	CreateReview(r *models.Review) error
	CountReviews(productID int64) (int, error)
	CreateCustomer(c *models.Customer) error
	GetCustomerByEmail(email string) (*models.Customer, error)
}

func productNames(ps []*models.Product) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// runStoreContract exercises the behaviour the services rely on.
func runStoreContract(t *testing.T, s store) {
	t.Helper()

	if err := SeedDemo(s); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	// Seeding twice is a no-op.
	if err := SeedDemo(s); err != nil {
		t.Fatalf("second SeedDemo() error = %v", err)
	}
	cats, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != len(DemoCategories()) {
		t.Fatalf("Expected %d categories, got %d", len(DemoCategories()), len(cats))
	}

	t.Run("category listing", func(t *testing.T) {
		cameras, err := s.ListProducts(models.ProductFilter{CategoryID: 33})
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		got := productNames(cameras)
		if len(got) != 2 || got[0] != "Canon EOS 5D" || got[1] != "Nikon D300" {
			t.Errorf("Unexpected cameras %v", got)
		}

		pcs, err := s.ListProducts(models.ProductFilter{CategoryID: 26})
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		if len(pcs) != 0 {
			t.Errorf("Expected PC category to be empty, got %v", productNames(pcs))
		}
	})

	t.Run("search", func(t *testing.T) {
		found, err := s.ListProducts(models.ProductFilter{Search: "macbook"})
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		if len(found) != 3 {
			t.Errorf("Expected 3 MacBooks, got %v", productNames(found))
		}
	})

	t.Run("create, filter and delete", func(t *testing.T) {
		devices := &models.Category{Name: "Devices"}
		if err := s.CreateCategory(devices); err != nil {
			t.Fatalf("CreateCategory() error = %v", err)
		}
		if devices.ID == 0 {
			t.Fatal("CreateCategory() should assign an ID")
		}

		var ids []int64
		for _, name := range []string{"Mouse A", "Mouse B"} {
			p, err := models.NewProduct(name, "", "Model-"+name, "", 0, []int64{devices.ID})
			if err != nil {
				t.Fatalf("NewProduct() error = %v", err)
			}
			if err := s.CreateProduct(p); err != nil {
				t.Fatalf("CreateProduct() error = %v", err)
			}
			ids = append(ids, p.ID)
		}

		prefixed, err := s.ListProducts(models.ProductFilter{NamePrefix: "Mouse A"})
		if err != nil {
			t.Fatalf("ListProducts() error = %v", err)
		}
		if got := productNames(prefixed); len(got) != 1 || got[0] != "Mouse A" {
			t.Errorf("Unexpected filter result %v", got)
		}

		n, err := s.DeleteProducts(ids[:1])
		if err != nil || n != 1 {
			t.Fatalf("DeleteProducts() = %d, %v", n, err)
		}
		if _, err := s.GetProduct(ids[0]); !errors.Is(err, models.ErrProductNotFound) {
			t.Errorf("Expected ErrProductNotFound after delete, got %v", err)
		}
		left, _ := s.ListProducts(models.ProductFilter{CategoryID: devices.ID})
		if got := productNames(left); len(got) != 1 || got[0] != "Mouse B" {
			t.Errorf("Unexpected remaining devices %v", got)
		}
	})

	t.Run("unknown category link", func(t *testing.T) {
		p, _ := models.NewProduct("Orphan", "", "M-0", "", 0, []int64{999999})
		if err := s.CreateProduct(p); !errors.Is(err, models.ErrCategoryNotFound) {
			t.Errorf("Expected ErrCategoryNotFound, got %v", err)
		}
	})

	t.Run("reviews wait for approval", func(t *testing.T) {
		r, err := models.NewReview(43, "Иван", "Отличный товар, рекомендую!", 5)
		if err != nil {
			t.Fatalf("NewReview() error = %v", err)
		}
		if err := s.CreateReview(r); err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
		n, err := s.CountReviews(43)
		if err != nil || n != 0 {
			t.Errorf("CountReviews() = %d, %v; want 0 approved", n, err)
		}
		r.ProductID = 999999
		if err := s.CreateReview(r); !errors.Is(err, models.ErrProductNotFound) {
			t.Errorf("Expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("customers", func(t *testing.T) {
		c := &models.Customer{
			ID: "6f1c1f8e-8f0e-4d3a-9d55-0d6c1b3f2a10", FirstName: "Иван", LastName: "Иванов",
			Email: "ivanov@example.com", Telephone: "1234567890", PasswordHash: "x",
		}
		if err := s.CreateCustomer(c); err != nil {
			t.Fatalf("CreateCustomer() error = %v", err)
		}
		dup := *c
		dup.ID = "0b8f0f5e-2f63-4c1e-8c1e-6a3f3c9d9b21"
		dup.Email = "IVANOV@example.com"
		if err := s.CreateCustomer(&dup); !errors.Is(err, models.ErrEmailTaken) {
			t.Errorf("Expected ErrEmailTaken, got %v", err)
		}

		got, err := s.GetCustomerByEmail(" Ivanov@Example.com ")
		if err != nil {
			t.Fatalf("GetCustomerByEmail() error = %v", err)
		}
		if got.ID != c.ID {
			t.Errorf("GetCustomerByEmail() ID = %s, want %s", got.ID, c.ID)
		}
		if _, err := s.GetCustomerByEmail("nobody@example.com"); !errors.Is(err, models.ErrCustomerNotFound) {
			t.Errorf("Expected ErrCustomerNotFound, got %v", err)
		}
	})
}
