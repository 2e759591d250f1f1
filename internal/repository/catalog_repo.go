package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/adyen/shopharness/internal/database"
	"github.com/adyen/shopharness/internal/models"
)

// CatalogRepository handles database operations for the catalog and customers
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository on the shared connection
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		db: database.DB,
	}
}

// NewCatalogRepositoryWithDB creates a new catalog repository with a specific database connection
func NewCatalogRepositoryWithDB(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{
		db: db,
	}
}

// ListCategories returns every category ordered by sort order, then name
func (r *CatalogRepository) ListCategories() ([]*models.Category, error) {
	rows, err := r.db.Query(`
		SELECT id, parent_id, name, description, sort_order, top
		FROM categories
		ORDER BY sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Description, &c.SortOrder, &c.Top); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts c, keeping an explicit ID or assigning a new one
func (r *CatalogRepository) CreateCategory(c *models.Category) error {
	var err error
	if c.ID != 0 {
		_, err = r.db.Exec(`
			INSERT INTO categories (id, parent_id, name, description, sort_order, top)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.ID, c.ParentID, c.Name, c.Description, c.SortOrder, c.Top)
	} else {
		err = r.db.QueryRow(`
			INSERT INTO categories (parent_id, name, description, sort_order, top)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, c.ParentID, c.Name, c.Description, c.SortOrder, c.Top).Scan(&c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

const productColumns = `
	p.id, p.name, p.meta_title, p.model, p.description, p.price, p.images, p.created_at,
	ARRAY(SELECT pc.category_id FROM product_to_category pc WHERE pc.product_id = p.id ORDER BY pc.category_id)
`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.MetaTitle, &p.Model, &p.Description, &p.Price,
		pq.Array(&p.Images), &p.CreatedAt, pq.Array(&p.CategoryIDs))
	return p, err
}

// ListProducts returns the products matching filter ordered by name
func (r *CatalogRepository) ListProducts(filter models.ProductFilter) ([]*models.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_to_category pc WHERE pc.product_id = p.id AND pc.category_id = $%d)", len(args)))
	}
	if filter.NamePrefix != "" {
		args = append(args, escapeLike(strings.ToLower(filter.NamePrefix))+"%")
		where = append(where, fmt.Sprintf("lower(p.name) LIKE $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
		where = append(where, fmt.Sprintf("lower(p.name) LIKE $%d", len(args)))
	}

	query := "SELECT " + productColumns + " FROM products p"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY lower(p.name), p.id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct retrieves a product by ID
func (r *CatalogRepository) GetProduct(id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow("SELECT "+productColumns+" FROM products p WHERE p.id = $1", id))
	if err == sql.ErrNoRows {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts p and its category links in one transaction
func (r *CatalogRepository) CreateProduct(p *models.Product) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	images := pq.Array(p.Images)
	if p.Images == nil {
		images = pq.Array([]string{})
	}
	if p.ID != 0 {
		_, err = tx.Exec(`
			INSERT INTO products (id, name, meta_title, model, description, price, images, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.Name, p.MetaTitle, p.Model, p.Description, p.Price, images, p.CreatedAt)
	} else {
		err = tx.QueryRow(`
			INSERT INTO products (name, meta_title, model, description, price, images, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, p.Name, p.MetaTitle, p.Model, p.Description, p.Price, images, p.CreatedAt).Scan(&p.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	for _, cid := range p.CategoryIDs {
		if _, err := tx.Exec(
			"INSERT INTO product_to_category (product_id, category_id) VALUES ($1, $2)", p.ID, cid,
		); err != nil {
			if isForeignKeyViolation(err) {
				return models.ErrCategoryNotFound
			}
			return fmt.Errorf("failed to link product to category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}
	return nil
}

// DeleteProducts removes products by ID; links and reviews cascade
func (r *CatalogRepository) DeleteProducts(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.Exec("DELETE FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CreateReview inserts r
func (r *CatalogRepository) CreateReview(rv *models.Review) error {
	err := r.db.QueryRow(`
		INSERT INTO reviews (product_id, author, text, rating, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rv.ProductID, rv.Author, rv.Text, rv.Rating, rv.Approved, rv.CreatedAt).Scan(&rv.ID)
	if isForeignKeyViolation(err) {
		return models.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// CountReviews returns the number of approved reviews of a product
func (r *CatalogRepository) CountReviews(productID int64) (int, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND approved", productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

// CreateCustomer inserts c, mapping a duplicate e-mail to models.ErrEmailTaken
func (r *CatalogRepository) CreateCustomer(c *models.Customer) error {
	_, err := r.db.Exec(`
		INSERT INTO customers (id, first_name, last_name, email, telephone, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.FirstName, c.LastName, strings.ToLower(c.Email), c.Telephone, c.PasswordHash, c.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomerByEmail retrieves a customer by e-mail address
func (r *CatalogRepository) GetCustomerByEmail(email string) (*models.Customer, error) {
	c := &models.Customer{}
	err := r.db.QueryRow(`
		SELECT id, first_name, last_name, email, telephone, password_hash, created_at
		FROM customers
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Telephone, &c.PasswordHash, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// SyncSequences moves the ID sequences past explicitly inserted rows
func (r *CatalogRepository) SyncSequences() error {
	for _, table := range []string{"categories", "products"} {
		_, err := r.db.Exec(fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), GREATEST((SELECT MAX(id) FROM %[1]s), 1))", table))
		if err != nil {
			return fmt.Errorf("failed to sync %s sequence: %w", table, err)
		}
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
