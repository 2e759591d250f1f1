package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/models"
	"github.com/adyen/shopharness/internal/services"
)

// sessionCookie is the cookie OpenCart keys its sessions on.
const sessionCookie = "OCSESSID"

// pageData is passed to every page template.
type pageData struct {
	Title      string
	Visitor    services.Visitor
	Admin      string
	Currency   models.Currency
	Currencies []models.Currency
	Menu       []services.MenuEntry
	Alerts     []services.Alert
	Search     string
	Redirect   string
	Body       any
}

// Price formats an amount in the visitor's currency.
func (d *pageData) Price(minor int64) string {
	return d.Currency.Format(minor)
}

// renderer holds what storefront and admin handlers share.
type renderer struct {
	template *template.Template
	visitors *services.VisitorStore
	logger   *zap.Logger
}

// visitor returns the visitor ID for the request, starting a new visitor
// when the cookie is missing or unknown.
func (h *renderer) visitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, ok := h.visitors.Get(c.Value); ok {
			return c.Value
		}
	}
	id := h.visitors.Start()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// page builds the common template data and consumes pending alerts.
func (h *renderer) page(r *http.Request, id, title string, body any) *pageData {
	alerts := h.visitors.TakeFlash(id)
	v, _ := h.visitors.Get(id)
	cur, ok := models.LookupCurrency(v.Currency)
	if !ok {
		cur, _ = models.LookupCurrency(models.DefaultCurrency)
	}
	return &pageData{
		Title:      title,
		Visitor:    v,
		Admin:      v.Admin,
		Currency:   cur,
		Currencies: models.Currencies,
		Alerts:     alerts,
		Redirect:   r.URL.RequestURI(),
		Body:       body,
	}
}

// execute renders into a buffer so a failing template never leaves a
// half-written page behind.
func (h *renderer) execute(w http.ResponseWriter, status int, name string, data *pageData) {
	var buf bytes.Buffer
	if err := h.template.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *renderer) notify(id, kind, text string) {
	h.visitors.Update(id, func(v *services.Visitor) {
		v.Notify(kind, text)
	})
}

func (h *renderer) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// safeRedirect keeps redirects on this host.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
