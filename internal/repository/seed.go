package repository

import (
	"fmt"

	"github.com/adyen/shopharness/internal/models"
)

// Seedable is a store the demo catalog can be loaded into.
type Seedable interface {
	ListCategories() ([]*models.Category, error)
	CreateCategory(c *models.Category) error
	CreateProduct(p *models.Product) error
}

// FeaturedProductIDs are shown on the home page, in order.
var FeaturedProductIDs = []int64{43, 40, 42, 30}

// DemoCategories mirrors the public OpenCart demo tree, with the desktop
// branch named "Computers".
func DemoCategories() []*models.Category {
	return []*models.Category{
		{ID: 20, Name: "Computers", Top: true, SortOrder: 1, Description: "Desktop computers."},
		{ID: 26, ParentID: 20, Name: "PC"},
		{ID: 27, ParentID: 20, Name: "Mac"},
		{ID: 18, Name: "Laptops & Notebooks", Top: true, SortOrder: 2},
		{ID: 46, ParentID: 18, Name: "Macs"},
		{ID: 45, ParentID: 18, Name: "Windows"},
		{ID: 25, Name: "Components", Top: true, SortOrder: 3},
		{ID: 29, ParentID: 25, Name: "Mice and Trackballs"},
		{ID: 28, ParentID: 25, Name: "Monitors"},
		{ID: 57, Name: "Tablets", Top: true, SortOrder: 4},
		{ID: 17, Name: "Software", Top: true, SortOrder: 5},
		{ID: 24, Name: "Phones & PDAs", Top: true, SortOrder: 6},
		{ID: 33, Name: "Cameras", Top: true, SortOrder: 7},
		{ID: 34, Name: "MP3 Players", Top: true, SortOrder: 8},
	}
}

// DemoProducts mirrors the public OpenCart demo products.
func DemoProducts() []*models.Product {
	return []*models.Product{
		demoProduct(43, "MacBook", 60200, 5, 18, 46),
		demoProduct(40, "iPhone", 12320, 6, 24),
		demoProduct(42, `Apple Cinema 30"`, 12200, 5, 25, 28),
		demoProduct(30, "Canon EOS 5D", 12200, 3, 33),
		demoProduct(31, "Nikon D300", 9800, 5, 33),
		demoProduct(49, "Samsung Galaxy Tab 10.1", 24200, 7, 57),
		demoProduct(28, "HTC Touch HD", 12200, 4, 24),
		demoProduct(29, "Palm Treo Pro", 33200, 3, 24),
		demoProduct(41, "iMac", 12200, 3, 20, 27),
		demoProduct(44, "MacBook Air", 120200, 4, 18, 46),
		demoProduct(45, "MacBook Pro", 200200, 4, 18, 46),
		demoProduct(46, "Sony VAIO", 120200, 2, 18, 45),
		demoProduct(47, "HP LP3065", 12200, 1, 18, 28),
		demoProduct(33, "Samsung SyncMaster 941BW", 24200, 2, 25, 28),
		demoProduct(32, "iPod Touch", 12200, 2, 34),
		demoProduct(34, "iPod Shuffle", 12200, 2, 34),
		demoProduct(36, "iPod Nano", 12200, 3, 34),
		demoProduct(48, "iPod Classic", 12200, 4, 34),
	}
}

func demoProduct(id int64, name string, price int64, images int, categories ...int64) *models.Product {
	p := &models.Product{
		ID:          id,
		Name:        name,
		MetaTitle:   name,
		Model:       fmt.Sprintf("Product %d", id-27),
		Description: name + " from the demo catalog.",
		Price:       price,
		CategoryIDs: categories,
	}
	for i := 1; i <= images; i++ {
		p.Images = append(p.Images, fmt.Sprintf("/image/catalog/demo/%d-%d.jpg", id, i))
	}
	return p
}

// SeedDemo loads the demo catalog into an empty store. A store that already
// has categories is left untouched.
func SeedDemo(s Seedable) error {
	existing, err := s.ListCategories()
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, c := range DemoCategories() {
		if err := s.CreateCategory(c); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.Name, err)
		}
	}
	for _, p := range DemoProducts() {
		if err := s.CreateProduct(p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}

	if syncer, ok := s.(interface{ SyncSequences() error }); ok {
		return syncer.SyncSequences()
	}
	return nil
}
