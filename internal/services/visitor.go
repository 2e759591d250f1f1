package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/adyen/shopharness/internal/models"
)

// Alert kinds
const (
	AlertSuccess = "success"
	AlertDanger  = "danger"
)

// Alert is a one-shot message shown on the next rendered page.
type Alert struct {
	Kind string
	Text string
}

// CartLine is a product in the cart.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// Visitor is the per-cookie browsing state. Carts and wish lists are not
// persisted, whatever catalog backend is configured.
type Visitor struct {
	ID           string
	Currency     string
	Cart         []CartLine
	Wishlist     []int64
	CustomerID   string
	CustomerName string
	// Admin holds the logged-in back-office user.
	Admin          string
	ModalDismissed bool
	Flash          []Alert
}

// AddToCart adds quantity of a product, merging with an existing line.
func (v *Visitor) AddToCart(productID int64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range v.Cart {
		if v.Cart[i].ProductID == productID {
			v.Cart[i].Quantity += quantity
			return
		}
	}
	v.Cart = append(v.Cart, CartLine{ProductID: productID, Quantity: quantity})
}

// AddToWishlist adds a product once.
func (v *Visitor) AddToWishlist(productID int64) {
	for _, id := range v.Wishlist {
		if id == productID {
			return
		}
	}
	v.Wishlist = append(v.Wishlist, productID)
}

// Notify queues an alert for the next page.
func (v *Visitor) Notify(kind, text string) {
	v.Flash = append(v.Flash, Alert{Kind: kind, Text: text})
}

func (v *Visitor) clone() Visitor {
	cp := *v
	cp.Cart = append([]CartLine(nil), v.Cart...)
	cp.Wishlist = append([]int64(nil), v.Wishlist...)
	cp.Flash = append([]Alert(nil), v.Flash...)
	return cp
}

// VisitorStore keeps visitor state in memory, keyed by session cookie.
type VisitorStore struct {
	mu       sync.Mutex
	visitors map[string]*Visitor
}

// NewVisitorStore creates an empty store
func NewVisitorStore() *VisitorStore {
	return &VisitorStore{visitors: make(map[string]*Visitor)}
}

// Start creates a visitor and returns its ID.
func (s *VisitorStore) Start() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.visitors[id] = &Visitor{ID: id, Currency: models.DefaultCurrency}
	return id
}

// Get returns a copy of the visitor state.
func (s *VisitorStore) Get(id string) (Visitor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return Visitor{}, false
	}
	return v.clone(), true
}

// Update applies fn to the visitor, creating it when unknown, and returns
// the resulting state.
func (s *VisitorStore) Update(id string, fn func(v *Visitor)) Visitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		v = &Visitor{ID: id, Currency: models.DefaultCurrency}
		s.visitors[id] = v
	}
	fn(v)
	return v.clone()
}

// TakeFlash returns and clears the queued alerts.
func (s *VisitorStore) TakeFlash(id string) []Alert {
	var out []Alert
	s.Update(id, func(v *Visitor) {
		out, v.Flash = v.Flash, nil
	})
	return out
}
