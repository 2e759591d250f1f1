package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adyen/shopharness/internal/models"
)

// CatalogRepository defines the interface for catalog persistence
type CatalogRepository interface {
	ListCategories() ([]*models.Category, error)
	CreateCategory(c *models.Category) error
	ListProducts(filter models.ProductFilter) ([]*models.Product, error)
	GetProduct(id int64) (*models.Product, error)
	CreateProduct(p *models.Product) error
	DeleteProducts(ids []int64) (int64, error)
	CreateReview(r *models.Review) error
	CountReviews(productID int64) (int, error)
}

// MenuEntry is a category with the number of products under it.
type MenuEntry struct {
	Category *models.Category
	Count    int
	Children []MenuEntry
}

// Label renders the entry the way OpenCart does for subcategories.
func (e MenuEntry) Label() string {
	return fmt.Sprintf("%s (%d)", e.Category.Name, e.Count)
}

// CategoryPage is everything the category route renders.
type CategoryPage struct {
	Category *models.Category
	Children []MenuEntry
	Products []*models.Product
}

// ProductInput is the admin product form.
type ProductInput struct {
	Name        string
	MetaTitle   string
	Model       string
	Description string
	Price       int64
	CategoryIDs []int64
	// CategoryName is resolved when CategoryIDs is empty.
	CategoryName string
}

// CatalogService handles catalog browsing and administration
type CatalogService interface {
	Menu() ([]MenuEntry, error)
	Category(id int64) (*CategoryPage, error)
	Featured() ([]*models.Product, error)
	Search(query string) ([]*models.Product, error)
	Product(id int64) (*models.Product, int, error)
	WriteReview(productID int64, author, text string, rating int) error
	Categories() ([]*models.Category, error)
	CreateCategory(name, description string) (*models.Category, error)
	FindCategory(name string) (*models.Category, error)
	Products(filter models.ProductFilter) ([]*models.Product, error)
	CreateProduct(in ProductInput) (*models.Product, error)
	DeleteProducts(ids []int64) (int64, error)
}

// CatalogServiceImpl implements CatalogService
type CatalogServiceImpl struct {
	repo     CatalogRepository
	featured []int64
}

// NewCatalogService creates a new catalog service showing featured on the home page
func NewCatalogService(repo CatalogRepository, featured []int64) CatalogService {
	return &CatalogServiceImpl{
		repo:     repo,
		featured: featured,
	}
}

// Menu returns the top categories with their children
func (s *CatalogServiceImpl) Menu() ([]MenuEntry, error) {
	cats, err := s.repo.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	products, err := s.repo.ListProducts(models.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var menu []MenuEntry
	for _, c := range cats {
		if c.ParentID == 0 && c.Top {
			menu = append(menu, s.entry(c, cats, products))
		}
	}
	return menu, nil
}

// entry counts products linked to c or any of its descendants.
func (s *CatalogServiceImpl) entry(c *models.Category, cats []*models.Category, products []*models.Product) MenuEntry {
	e := MenuEntry{Category: c}
	tree := map[int64]bool{c.ID: true}
	for _, child := range cats {
		if child.ParentID == c.ID {
			sub := s.entry(child, cats, products)
			e.Children = append(e.Children, sub)
		}
	}
	collectTree(c.ID, cats, tree)
	for _, p := range products {
		for _, id := range p.CategoryIDs {
			if tree[id] {
				e.Count++
				break
			}
		}
	}
	return e
}

func collectTree(root int64, cats []*models.Category, into map[int64]bool) {
	for _, c := range cats {
		if c.ParentID == root && !into[c.ID] {
			into[c.ID] = true
			collectTree(c.ID, cats, into)
		}
	}
}

// Category returns a category, its children and its own products
func (s *CatalogServiceImpl) Category(id int64) (*CategoryPage, error) {
	cats, err := s.repo.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	var current *models.Category
	for _, c := range cats {
		if c.ID == id {
			current = c
			break
		}
	}
	if current == nil {
		return nil, models.ErrCategoryNotFound
	}

	all, err := s.repo.ListProducts(models.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	page := &CategoryPage{Category: current, Children: s.entry(current, cats, all).Children}
	for _, p := range all {
		if p.InCategory(id) {
			page.Products = append(page.Products, p)
		}
	}
	return page, nil
}

// Featured returns the home page products that still exist
func (s *CatalogServiceImpl) Featured() ([]*models.Product, error) {
	var out []*models.Product
	for _, id := range s.featured {
		p, err := s.repo.GetProduct(id)
		if errors.Is(err, models.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load featured product %d: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Search matches product names; an empty query matches nothing
func (s *CatalogServiceImpl) Search(query string) ([]*models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	products, err := s.repo.ListProducts(models.ProductFilter{Search: query})
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Product returns a product and its approved review count
func (s *CatalogServiceImpl) Product(id int64) (*models.Product, int, error) {
	p, err := s.repo.GetProduct(id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get product: %w", err)
	}
	n, err := s.repo.CountReviews(id)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return p, n, nil
}

// WriteReview validates and stores a review for moderation
func (s *CatalogServiceImpl) WriteReview(productID int64, author, text string, rating int) error {
	r, err := models.NewReview(productID, author, text, rating)
	if err != nil {
		return err
	}
	if err := s.repo.CreateReview(r); err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// Categories returns every category
func (s *CatalogServiceImpl) Categories() ([]*models.Category, error) {
	cats, err := s.repo.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return cats, nil
}

// CreateCategory validates and stores a top-level category
func (s *CatalogServiceImpl) CreateCategory(name, description string) (*models.Category, error) {
	c, err := models.NewCategory(name, description, 0)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// FindCategory returns the first category named name, ignoring case
func (s *CatalogServiceImpl) FindCategory(name string) (*models.Category, error) {
	cats, err := s.repo.ListCategories()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	name = strings.TrimSpace(name)
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, models.ErrCategoryNotFound
}

// Products lists products for the admin catalog
func (s *CatalogServiceImpl) Products(filter models.ProductFilter) ([]*models.Product, error) {
	products, err := s.repo.ListProducts(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CreateProduct validates and stores a product
func (s *CatalogServiceImpl) CreateProduct(in ProductInput) (*models.Product, error) {
	ids := in.CategoryIDs
	if len(ids) == 0 && strings.TrimSpace(in.CategoryName) != "" {
		c, err := s.FindCategory(in.CategoryName)
		if err != nil {
			return nil, err
		}
		ids = []int64{c.ID}
	}

	p, err := models.NewProduct(in.Name, in.MetaTitle, in.Model, in.Description, in.Price, ids)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// DeleteProducts removes products by ID
func (s *CatalogServiceImpl) DeleteProducts(ids []int64) (int64, error) {
	n, err := s.repo.DeleteProducts(ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return n, nil
}
