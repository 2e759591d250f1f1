package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/models"
	"github.com/adyen/shopharness/internal/services"
)

// StorefrontHandler serves the customer-facing shop under /index.php
type StorefrontHandler struct {
	renderer
	catalog  services.CatalogService
	accounts services.AccountService
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(tmpl *template.Template, catalog services.CatalogService, accounts services.AccountService, visitors *services.VisitorStore, logger *zap.Logger) *StorefrontHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorefrontHandler{
		renderer: renderer{template: tmpl, visitors: visitors, logger: logger},
		catalog:  catalog,
		accounts: accounts,
	}
}

// ServeHTTP dispatches on the route query parameter
func (h *StorefrontHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := h.visitor(w, r)

	switch r.URL.Query().Get("route") {
	case "", "common/home":
		h.home(w, r, id)
	case "common/currency.save":
		h.post(w, r, id, h.changeCurrency)
	case "product/category":
		h.category(w, r, id)
	case "product/search":
		h.search(w, r, id)
	case "product/product":
		h.product(w, r, id)
	case "product/review.write":
		h.post(w, r, id, h.writeReview)
	case "checkout/cart":
		h.cart(w, r, id)
	case "checkout/cart.add":
		h.post(w, r, id, h.addToCart)
	case "account/wishlist":
		h.wishlist(w, r, id)
	case "account/wishlist.add":
		h.post(w, r, id, h.addToWishlist)
	case "account/register":
		h.register(w, r, id)
	case "account/success":
		h.render(w, r, id, http.StatusOK, "register-success", "Your Account Has Been Created!", nil)
	case "account/login":
		h.login(w, r, id)
	case "account/account":
		h.account(w, r, id)
	case "account/logout":
		h.logout(w, r, id)
	default:
		h.notFound(w, r, id, "Page Not Found!")
	}
}

// NotFound renders the shop's 404 page for unknown paths
func (h *StorefrontHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r, h.visitor(w, r), "Page Not Found!")
}

func (h *StorefrontHandler) post(w http.ResponseWriter, r *http.Request, id string, fn func(http.ResponseWriter, *http.Request, string)) {
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

func (h *StorefrontHandler) render(w http.ResponseWriter, r *http.Request, id string, status int, name, title string, body any) {
	menu, err := h.catalog.Menu()
	if err != nil {
		h.fail(w, "failed to load menu", err)
		return
	}
	data := h.page(r, id, title, body)
	data.Menu = menu
	data.Search = r.URL.Query().Get("search")
	h.execute(w, status, name, data)
}

func (h *StorefrontHandler) notFound(w http.ResponseWriter, r *http.Request, id, title string) {
	h.render(w, r, id, http.StatusNotFound, "not-found", title, nil)
}

func (h *StorefrontHandler) home(w http.ResponseWriter, r *http.Request, id string) {
	products, err := h.catalog.Featured()
	if err != nil {
		h.fail(w, "failed to load featured products", err)
		return
	}
	h.render(w, r, id, http.StatusOK, "home", "Your Store", struct{ Products []*models.Product }{products})
}

func (h *StorefrontHandler) changeCurrency(w http.ResponseWriter, r *http.Request, id string) {
	for _, c := range models.Currencies {
		if _, ok := r.PostForm[c.Code]; ok {
			code := c.Code
			h.visitors.Update(id, func(v *services.Visitor) { v.Currency = code })
			break
		}
	}
	http.Redirect(w, r, safeRedirect(r.PostFormValue("redirect"), "/"), http.StatusFound)
}

// categoryID reads the last segment of an OpenCart path such as "20_27".
func categoryID(path string) (int64, bool) {
	if i := strings.LastIndex(path, "_"); i >= 0 {
		path = path[i+1:]
	}
	id, err := strconv.ParseInt(path, 10, 64)
	return id, err == nil
}

func (h *StorefrontHandler) category(w http.ResponseWriter, r *http.Request, id string) {
	cid, ok := categoryID(r.URL.Query().Get("path"))
	if !ok {
		h.notFound(w, r, id, "Category not found!")
		return
	}
	page, err := h.catalog.Category(cid)
	if errors.Is(err, models.ErrCategoryNotFound) {
		h.notFound(w, r, id, "Category not found!")
		return
	}
	if err != nil {
		h.fail(w, "failed to load category", err)
		return
	}
	h.render(w, r, id, http.StatusOK, "category", page.Category.Name, page)
}

func (h *StorefrontHandler) search(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query().Get("search")
	products, err := h.catalog.Search(q)
	if err != nil {
		h.fail(w, "failed to search products", err)
		return
	}
	h.render(w, r, id, http.StatusOK, "search", "Search - "+q, struct{ Products []*models.Product }{products})
}

// productID reads the product_id query parameter.
func productID(r *http.Request) (int64, bool) {
	pid, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	return pid, err == nil
}

func (h *StorefrontHandler) product(w http.ResponseWriter, r *http.Request, id string) {
	pid, ok := productID(r)
	if !ok {
		h.notFound(w, r, id, "Product not found!")
		return
	}
	p, reviews, err := h.catalog.Product(pid)
	if errors.Is(err, models.ErrProductNotFound) {
		h.notFound(w, r, id, "Product not found!")
		return
	}
	if err != nil {
		h.fail(w, "failed to load product", err)
		return
	}
	h.render(w, r, id, http.StatusOK, "product", p.MetaTitle, struct {
		Product *models.Product
		Reviews int
		Ratings []int
	}{p, reviews, []int{1, 2, 3, 4, 5}})
}

var reviewErrors = map[error]string{
	models.ErrInvalidReviewAuthor: "Warning: Review Name must be between 3 and 25 characters!",
	models.ErrInvalidReviewText:   "Warning: Review Text must be between 25 and 1000 characters!",
	models.ErrInvalidRating:       "Warning: Please select a review rating!",
}

func (h *StorefrontHandler) writeReview(w http.ResponseWriter, r *http.Request, id string) {
	pid, ok := productID(r)
	if !ok {
		h.notFound(w, r, id, "Product not found!")
		return
	}
	rating, _ := strconv.Atoi(r.PostFormValue("rating"))

	err := h.catalog.WriteReview(pid, r.PostFormValue("name"), r.PostFormValue("text"), rating)
	switch {
	case err == nil:
		h.notify(id, services.AlertSuccess, "Thank you for your review. It has been submitted to the webmaster for approval.")
	case errors.Is(err, models.ErrProductNotFound):
		h.notFound(w, r, id, "Product not found!")
		return
	default:
		msg, known := "", false
		for target, text := range reviewErrors {
			if errors.Is(err, target) {
				msg, known = text, true
				break
			}
		}
		if !known {
			h.fail(w, "failed to write review", err)
			return
		}
		h.notify(id, services.AlertDanger, msg)
	}
	http.Redirect(w, r, productURL(pid), http.StatusFound)
}

// addedProduct loads the posted product, redirecting with an alert when it
// no longer exists.
func (h *StorefrontHandler) addedProduct(w http.ResponseWriter, r *http.Request, id string) (*models.Product, bool) {
	missing := func() (*models.Product, bool) {
		h.notify(id, services.AlertDanger, "Warning: Product not found!")
		http.Redirect(w, r, safeRedirect(r.PostFormValue("redirect"), "/"), http.StatusFound)
		return nil, false
	}

	pid, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	if err != nil {
		return missing()
	}
	p, _, err := h.catalog.Product(pid)
	if errors.Is(err, models.ErrProductNotFound) {
		return missing()
	}
	if err != nil {
		h.fail(w, "failed to load product", err)
		return nil, false
	}
	return p, true
}

func (h *StorefrontHandler) addToCart(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.addedProduct(w, r, id)
	if !ok {
		return
	}
	qty, _ := strconv.Atoi(r.PostFormValue("quantity"))
	h.visitors.Update(id, func(v *services.Visitor) {
		v.AddToCart(p.ID, qty)
		v.Notify(services.AlertSuccess, "Success: You have added "+p.Name+" to your shopping cart!")
	})
	h.logger.Debug("added to cart", zap.String("visitor", id), zap.Int64("product_id", p.ID))
	http.Redirect(w, r, safeRedirect(r.PostFormValue("redirect"), route("checkout/cart")), http.StatusFound)
}

func (h *StorefrontHandler) addToWishlist(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := h.addedProduct(w, r, id)
	if !ok {
		return
	}
	h.visitors.Update(id, func(v *services.Visitor) {
		v.AddToWishlist(p.ID)
		v.Notify(services.AlertSuccess, "Success: You have added "+p.Name+" to your wish list!")
	})
	http.Redirect(w, r, safeRedirect(r.PostFormValue("redirect"), route("account/wishlist")), http.StatusFound)
}

type cartLine struct {
	Product  *models.Product
	Quantity int
	Total    int64
}

func (h *StorefrontHandler) cart(w http.ResponseWriter, r *http.Request, id string) {
	v, _ := h.visitors.Get(id)
	var body struct {
		Lines []cartLine
		Total int64
	}
	for _, line := range v.Cart {
		p, _, err := h.catalog.Product(line.ProductID)
		if errors.Is(err, models.ErrProductNotFound) {
			continue
		}
		if err != nil {
			h.fail(w, "failed to load cart product", err)
			return
		}
		total := p.Price * int64(line.Quantity)
		body.Lines = append(body.Lines, cartLine{Product: p, Quantity: line.Quantity, Total: total})
		body.Total += total
	}
	h.render(w, r, id, http.StatusOK, "cart", "Shopping Cart", body)
}

func (h *StorefrontHandler) wishlist(w http.ResponseWriter, r *http.Request, id string) {
	v, _ := h.visitors.Get(id)
	var products []*models.Product
	for _, pid := range v.Wishlist {
		p, _, err := h.catalog.Product(pid)
		if errors.Is(err, models.ErrProductNotFound) {
			continue
		}
		if err != nil {
			h.fail(w, "failed to load wish list product", err)
			return
		}
		products = append(products, p)
	}
	h.render(w, r, id, http.StatusOK, "wishlist", "My Wish List", struct{ Products []*models.Product }{products})
}
