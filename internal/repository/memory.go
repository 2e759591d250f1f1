package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adyen/shopharness/internal/models"
)

// MemoryStore keeps the catalog and customers in process memory. It is the
// default storefront backend and the one the offline suite runs against.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[int64]*models.Category
	products   map[int64]*models.Product
	reviews    []*models.Review
	customers  map[string]*models.Customer
	nextID     int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int64]*models.Category),
		products:   make(map[int64]*models.Product),
		customers:  make(map[string]*models.Customer),
		nextID:     1000,
	}
}

// allocate keeps explicit IDs and hands out fresh ones above every ID seen.
func (s *MemoryStore) allocate(id int64) int64 {
	if id == 0 {
		s.nextID++
		return s.nextID
	}
	if id > s.nextID {
		s.nextID = id
	}
	return id
}

// ListCategories returns every category ordered by sort order, then name.
func (s *MemoryStore) ListCategories() ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// CreateCategory stores c and sets its ID when zero.
func (s *MemoryStore) CreateCategory(c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.allocate(c.ID)
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

// ListProducts returns the products matching filter ordered by name.
func (s *MemoryStore) ListProducts(filter models.ProductFilter) ([]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Product
	for _, p := range s.products {
		if filter.Match(p) {
			out = append(out, copyProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !strings.EqualFold(out[i].Name, out[j].Name) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetProduct returns models.ErrProductNotFound for unknown IDs.
func (s *MemoryStore) GetProduct(id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return copyProduct(p), nil
}

// CreateProduct stores p and sets its ID when zero.
func (s *MemoryStore) CreateProduct(p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cid := range p.CategoryIDs {
		if _, ok := s.categories[cid]; !ok {
			return models.ErrCategoryNotFound
		}
	}
	p.ID = s.allocate(p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.products[p.ID] = copyProduct(p)
	return nil
}

// DeleteProducts removes the products and their reviews, returning how many
// products existed.
func (s *MemoryStore) DeleteProducts(ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	gone := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.products[id]; ok {
			delete(s.products, id)
			gone[id] = true
			n++
		}
	}
	kept := s.reviews[:0]
	for _, r := range s.reviews {
		if !gone[r.ProductID] {
			kept = append(kept, r)
		}
	}
	s.reviews = kept
	return n, nil
}

// CreateReview stores r.
func (s *MemoryStore) CreateReview(r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[r.ProductID]; !ok {
		return models.ErrProductNotFound
	}
	r.ID = s.allocate(0)
	cp := *r
	s.reviews = append(s.reviews, &cp)
	return nil
}

// CountReviews returns the number of approved reviews of a product.
func (s *MemoryStore) CountReviews(productID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.reviews {
		if r.ProductID == productID && r.Approved {
			n++
		}
	}
	return n, nil
}

// CreateCustomer returns models.ErrEmailTaken when the address is registered.
func (s *MemoryStore) CreateCustomer(c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(c.Email)
	if _, ok := s.customers[key]; ok {
		return models.ErrEmailTaken
	}
	cp := *c
	s.customers[key] = &cp
	return nil
}

// GetCustomerByEmail returns models.ErrCustomerNotFound for unknown addresses.
func (s *MemoryStore) GetCustomerByEmail(email string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, models.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func copyProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	cp.CategoryIDs = append([]int64(nil), p.CategoryIDs...)
	return &cp
}
