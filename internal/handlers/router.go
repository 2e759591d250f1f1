package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/services"
)

// placeholderImage stands in for every catalog image.
const placeholderImage = `<svg xmlns="http://www.w3.org/2000/svg" width="228" height="228"><rect width="100%" height="100%" fill="#eee"/></svg>`

// NewShop parses the templates and builds the storefront and back office
// over one visitor store
func NewShop(catalog services.CatalogService, accounts services.AccountService, auth services.AdminAuth, logger *zap.Logger) (http.Handler, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	visitors := services.NewVisitorStore()
	return NewRouter(
		NewStorefrontHandler(tmpl, catalog, accounts, visitors, logger),
		NewAdminHandler(tmpl, catalog, auth, visitors, logger),
		logger,
	), nil
}

// NewRouter wires the storefront and the back office onto one chi router
func NewRouter(storefront *StorefrontHandler, admin *AdminHandler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Handle("/", storefront)
	r.Handle("/index.php", storefront)
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusMovedPermanently)
	})
	r.Handle("/admin/", admin)
	r.Handle("/admin/index.php", admin)
	r.Get("/image/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write([]byte(placeholderImage))
	})
	r.NotFound(storefront.NotFound)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("uri", r.URL.RequestURI()),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
