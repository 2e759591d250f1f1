package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/adyen/shopharness/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// productCard is the data of the product-card partial.
type productCard struct {
	Page    *pageData
	Product *models.Product
}

var templateFuncs = template.FuncMap{
	"categoryURL": categoryURL,
	"productURL":  productURL,
	"reviewURL":   reviewURL,
	"firstImage": func(p *models.Product) string {
		if len(p.Images) == 0 {
			return "/image/placeholder.png"
		}
		return p.Images[0]
	},
	"card": func(page *pageData, p *models.Product) productCard {
		return productCard{Page: page, Product: p}
	},
}

// ParseTemplates parses the embedded storefront and admin templates
func ParseTemplates() (*template.Template, error) {
	tmpl, err := template.New("shop").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

func route(r string, params ...string) string {
	var b strings.Builder
	b.WriteString("/index.php?route=")
	b.WriteString(r)
	for i := 0; i+1 < len(params); i += 2 {
		b.WriteString("&" + params[i] + "=" + params[i+1])
	}
	return b.String()
}

func adminRoute(r string, params ...string) string {
	return "/admin" + route(r, params...)
}

func categoryURL(id int64) string {
	return route("product/category", "path", fmt.Sprint(id))
}

func productURL(id int64) string {
	return route("product/product", "product_id", fmt.Sprint(id))
}

func reviewURL(id int64) string {
	return route("product/review.write", "product_id", fmt.Sprint(id))
}
