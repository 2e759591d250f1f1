package handlers

import (
	"errors"
	"html/template"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/models"
	"github.com/adyen/shopharness/internal/services"
)

// AdminHandler serves the back office under /admin
type AdminHandler struct {
	renderer
	catalog services.CatalogService
	auth    services.AdminAuth
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(tmpl *template.Template, catalog services.CatalogService, auth services.AdminAuth, visitors *services.VisitorStore, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		renderer: renderer{template: tmpl, visitors: visitors, logger: logger},
		catalog:  catalog,
		auth:     auth,
	}
}

// ServeHTTP dispatches on the route query parameter. Everything but the
// login page requires a logged-in admin.
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := h.visitor(w, r)
	rt := r.URL.Query().Get("route")

	if rt == "" || rt == "common/login" {
		h.login(w, r, id)
		return
	}
	if v, _ := h.visitors.Get(id); v.Admin == "" {
		http.Redirect(w, r, adminRoute("common/login"), http.StatusFound)
		return
	}

	switch rt {
	case "common/dashboard":
		h.render(w, r, id, "admin-dashboard", "Dashboard", struct{ ShowModal bool }{h.showModal(id)})
	case "common/dashboard.dismiss":
		h.post(w, r, id, h.dismissModal)
	case "common/logout":
		h.visitors.Update(id, func(v *services.Visitor) { v.Admin = "" })
		http.Redirect(w, r, adminRoute("common/login"), http.StatusFound)
	case "catalog/category":
		h.categories(w, r, id)
	case "catalog/category.form":
		h.render(w, r, id, "admin-category-form", "Categories", nil)
	case "catalog/category.save":
		h.post(w, r, id, h.saveCategory)
	case "catalog/product":
		h.products(w, r, id)
	case "catalog/product.form":
		h.productForm(w, r, id)
	case "catalog/product.save":
		h.post(w, r, id, h.saveProduct)
	case "catalog/product.delete":
		h.post(w, r, id, h.deleteProducts)
	default:
		http.NotFound(w, r)
	}
}

func (h *AdminHandler) post(w http.ResponseWriter, r *http.Request, id string, fn func(http.ResponseWriter, *http.Request, string)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	fn(w, r, id)
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, id, name, title string, body any) {
	h.execute(w, http.StatusOK, name, h.page(r, id, title, body))
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if v, _ := h.visitors.Get(id); v.Admin != "" {
			http.Redirect(w, r, adminRoute("common/dashboard"), http.StatusFound)
			return
		}
		h.render(w, r, id, "admin-login", "Administration", nil)
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	if !h.auth.Check(username, r.PostFormValue("password")) {
		h.logger.Warn("admin login rejected", zap.String("username", username))
		h.notify(id, services.AlertDanger, "No match for Username and/or Password.")
		h.render(w, r, id, "admin-login", "Administration", nil)
		return
	}
	h.visitors.Update(id, func(v *services.Visitor) {
		v.Admin = username
		v.ModalDismissed = false
	})
	http.Redirect(w, r, adminRoute("common/dashboard"), http.StatusFound)
}

func (h *AdminHandler) showModal(id string) bool {
	v, _ := h.visitors.Get(id)
	return !v.ModalDismissed
}

func (h *AdminHandler) dismissModal(w http.ResponseWriter, r *http.Request, id string) {
	h.visitors.Update(id, func(v *services.Visitor) { v.ModalDismissed = true })
	http.Redirect(w, r, adminRoute("common/dashboard"), http.StatusFound)
}

// categoryRow is a category with its full path, as the admin lists show it.
type categoryRow struct {
	ID        int64
	Path      string
	SortOrder int
}

func (h *AdminHandler) categoryRows() ([]categoryRow, error) {
	cats, err := h.catalog.Categories()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	rows := make([]categoryRow, 0, len(cats))
	for _, c := range cats {
		names := []string{c.Name}
		seen := map[int64]bool{c.ID: true}
		for p := byID[c.ParentID]; p != nil && !seen[p.ID]; p = byID[p.ParentID] {
			seen[p.ID] = true
			names = append([]string{p.Name}, names...)
		}
		rows = append(rows, categoryRow{ID: c.ID, Path: strings.Join(names, " > "), SortOrder: c.SortOrder})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows, nil
}

func (h *AdminHandler) categories(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := h.categoryRows()
	if err != nil {
		h.fail(w, "failed to load categories", err)
		return
	}
	h.render(w, r, id, "admin-category-list", "Categories", struct{ Categories []categoryRow }{rows})
}

func (h *AdminHandler) saveCategory(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.catalog.CreateCategory(
		r.PostFormValue("category_description[1][name]"),
		r.PostFormValue("category_description[1][description]"),
	)
	if errors.Is(err, models.ErrInvalidCategoryName) {
		h.notify(id, services.AlertDanger, "Warning: Please check the form carefully for errors! Category Name must be between 1 and 255 characters!")
		http.Redirect(w, r, adminRoute("catalog/category.form"), http.StatusFound)
		return
	}
	if err != nil {
		h.fail(w, "failed to save category", err)
		return
	}
	h.logger.Info("category created", zap.Int64("category_id", c.ID), zap.String("name", c.Name))
	h.notify(id, services.AlertSuccess, "Success: You have modified categories!")
	http.Redirect(w, r, adminRoute("catalog/category"), http.StatusFound)
}

func (h *AdminHandler) products(w http.ResponseWriter, r *http.Request, id string) {
	filter := r.URL.Query().Get("filter_name")
	products, err := h.catalog.Products(models.ProductFilter{NamePrefix: filter})
	if err != nil {
		h.fail(w, "failed to list products", err)
		return
	}
	h.render(w, r, id, "admin-product-list", "Products", struct {
		Filter   string
		Products []*models.Product
	}{filter, products})
}

func (h *AdminHandler) productForm(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := h.categoryRows()
	if err != nil {
		h.fail(w, "failed to load categories", err)
		return
	}
	h.render(w, r, id, "admin-product-form", "Products", struct{ Categories []categoryRow }{rows})
}

// parsePrice reads a decimal price into minor units.
func parsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.ErrInvalidPrice
	}
	return int64(math.Round(f * 100)), nil
}

// parseIDs reads the non-empty integer values of a repeated form field.
func parseIDs(values []string) []int64 {
	var ids []int64
	for _, v := range values {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

var productErrors = []error{
	models.ErrInvalidProductName,
	models.ErrInvalidMetaTitle,
	models.ErrInvalidModel,
	models.ErrInvalidPrice,
	models.ErrCategoryNotFound,
}

func (h *AdminHandler) saveProduct(w http.ResponseWriter, r *http.Request, id string) {
	price, err := parsePrice(r.PostFormValue("price"))
	if err == nil {
		var p *models.Product
		p, err = h.catalog.CreateProduct(services.ProductInput{
			Name:         r.PostFormValue("product_description[1][name]"),
			MetaTitle:    r.PostFormValue("product_description[1][meta_title]"),
			Description:  r.PostFormValue("product_description[1][description]"),
			Model:        r.PostFormValue("model"),
			Price:        price,
			CategoryIDs:  parseIDs(r.PostForm["product_category[]"]),
			CategoryName: r.PostFormValue("category"),
		})
		if err == nil {
			h.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
			h.notify(id, services.AlertSuccess, "Success: You have modified products!")
			http.Redirect(w, r, adminRoute("catalog/product"), http.StatusFound)
			return
		}
	}

	for _, target := range productErrors {
		if errors.Is(err, target) {
			h.notify(id, services.AlertDanger, "Warning: Please check the form carefully for errors! "+err.Error())
			http.Redirect(w, r, adminRoute("catalog/product.form"), http.StatusFound)
			return
		}
	}
	h.fail(w, "failed to save product", err)
}

func (h *AdminHandler) deleteProducts(w http.ResponseWriter, r *http.Request, id string) {
	ids := parseIDs(r.PostForm["selected[]"])
	if len(ids) > 0 {
		n, err := h.catalog.DeleteProducts(ids)
		if err != nil {
			h.fail(w, "failed to delete products", err)
			return
		}
		h.logger.Info("products deleted", zap.Int64s("product_ids", ids), zap.Int64("deleted", n))
		h.notify(id, services.AlertSuccess, "Success: You have modified products!")
	}
	http.Redirect(w, r, adminRoute("catalog/product"), http.StatusFound)
}
