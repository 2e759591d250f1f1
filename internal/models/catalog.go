package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Category is a node of the storefront category tree.
type Category struct {
	ID          int64
	ParentID    int64
	Name        string
	Description string
	SortOrder   int
	// Top categories are listed in the storefront menu bar.
	Top bool
}

// Product is a catalog item.
type Product struct {
	ID          int64
	Name        string
	MetaTitle   string
	Model       string
	Description string
	// Price is in minor units of the default currency.
	Price       int64
	Images      []string
	CategoryIDs []int64
	CreatedAt   time.Time
}

// Review is a customer review waiting for (or past) moderation.
type Review struct {
	ID        int64
	ProductID int64
	Author    string
	Text      string
	Rating    int
	Approved  bool
	CreatedAt time.Time
}

// Domain errors
var (
	ErrInvalidCategoryName = errors.New("category name must be between 1 and 255 characters")
	ErrInvalidProductName  = errors.New("product name must be between 1 and 255 characters")
	ErrInvalidMetaTitle    = errors.New("meta tag title must be between 1 and 255 characters")
	ErrInvalidModel        = errors.New("product model must be between 1 and 64 characters")
	ErrInvalidPrice        = errors.New("price cannot be negative")
	ErrInvalidReviewAuthor = errors.New("review name must be between 3 and 25 characters")
	ErrInvalidReviewText   = errors.New("review text must be between 25 and 1000 characters")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrProductNotFound     = errors.New("product not found")
)

// ProductFilter narrows a product listing. Zero fields match everything.
type ProductFilter struct {
	CategoryID int64
	// NamePrefix matches the start of the name, case-insensitively, as the
	// admin product filter does.
	NamePrefix string
	// Search matches anywhere in the name, case-insensitively.
	Search string
}

// Match reports whether p passes the filter.
func (f ProductFilter) Match(p *Product) bool {
	name := strings.ToLower(p.Name)
	if f.CategoryID != 0 && !p.InCategory(f.CategoryID) {
		return false
	}
	if f.NamePrefix != "" && !strings.HasPrefix(name, strings.ToLower(f.NamePrefix)) {
		return false
	}
	if f.Search != "" && !strings.Contains(name, strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	return true
}

// NewCategory creates a category with validation.
func NewCategory(name, description string, parentID int64) (*Category, error) {
	name = strings.TrimSpace(name)
	if !between(name, 1, 255) {
		return nil, ErrInvalidCategoryName
	}
	return &Category{
		ParentID:    parentID,
		Name:        name,
		Description: description,
	}, nil
}

// NewProduct creates a product with validation. An empty meta title
// defaults to the name.
func NewProduct(name, metaTitle, model, description string, price int64, categoryIDs []int64) (*Product, error) {
	name = strings.TrimSpace(name)
	if metaTitle = strings.TrimSpace(metaTitle); metaTitle == "" {
		metaTitle = name
	}
	model = strings.TrimSpace(model)

	if !between(name, 1, 255) {
		return nil, ErrInvalidProductName
	}
	if !between(metaTitle, 1, 255) {
		return nil, ErrInvalidMetaTitle
	}
	if !between(model, 1, 64) {
		return nil, ErrInvalidModel
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}

	return &Product{
		Name:        name,
		MetaTitle:   metaTitle,
		Model:       model,
		Description: description,
		Price:       price,
		CategoryIDs: categoryIDs,
		CreatedAt:   time.Now(),
	}, nil
}

// InCategory reports whether the product is linked to the category.
func (p *Product) InCategory(id int64) bool {
	for _, c := range p.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

// NewReview creates an unapproved review with validation.
func NewReview(productID int64, author, text string, rating int) (*Review, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)

	if !between(author, 3, 25) {
		return nil, ErrInvalidReviewAuthor
	}
	if !between(text, 25, 1000) {
		return nil, ErrInvalidReviewText
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	return &Review{
		ProductID: productID,
		Author:    author,
		Text:      text,
		Rating:    rating,
		CreatedAt: time.Now(),
	}, nil
}

// between counts characters, not bytes, so Cyrillic names validate the same
// way as Latin ones.
func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}
