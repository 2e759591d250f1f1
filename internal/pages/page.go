// Package pages models the storefront and back office screens as page
// objects. Each operation locates its elements through a wait condition
// against the current page and never keeps a handle across a navigation.
package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
	"github.com/adyen/shopharness/internal/wait"
)

// ErrBlankName is returned when an item is looked up by an empty name.
var ErrBlankName = errors.New("item name is blank")

// Routes resolves shop paths against the base URL.
type Routes struct {
	base *url.URL
}

// NewRoutes parses the shop base URL. A missing trailing slash is added so
// that relative routes resolve under it.
func NewRoutes(baseURL string) (Routes, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return Routes{}, fmt.Errorf("failed to parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Routes{}, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return Routes{base: u}, nil
}

func (r Routes) resolve(ref string) string {
	rel, err := url.Parse(ref)
	if err != nil {
		return r.base.String()
	}
	return r.base.ResolveReference(rel).String()
}

// Home is the storefront landing page.
func (r Routes) Home() string { return r.base.String() }

// Route is a storefront page addressed by its route parameter.
func (r Routes) Route(route string) string {
	return r.resolve("index.php?route=" + route)
}

// Admin is the back office login page.
func (r Routes) Admin() string { return r.resolve("admin/") }

// Page is the state every page object shares.
type Page struct {
	Session *session.Session
	Wait    wait.Policy
	Routes  Routes
	Sink    report.Sink
	logger  *zap.Logger
}

// NewPage binds a session to a wait spec, the shop routes and a report sink.
func NewPage(s *session.Session, spec wait.Spec, routes Routes, sink report.Sink) (*Page, error) {
	if s == nil {
		return nil, errors.New("page needs a session")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = report.Discard
	}
	return &Page{
		Session: s,
		Wait:    wait.NewPolicy(s, spec),
		Routes:  routes,
		Sink:    sink,
		logger:  s.Logger(),
	}, nil
}

// step marks the start of a named page operation.
func (p *Page) step(format string, args ...any) {
	name := fmt.Sprintf(format, args...)
	p.Sink.RecordStep(name)
	p.logger.Debug("page step", zap.String("step", name))
}

func (p *Page) logf(level report.Level, format string, args ...any) {
	p.Sink.Log(level, fmt.Sprintf(format, args...))
}

func (p *Page) open(ctx context.Context, target string) error {
	if err := p.Session.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

// typeInto waits for loc to be visible, clears it and types text.
func (p *Page) typeInto(ctx context.Context, loc locator.Locator, text string) error {
	el, err := p.Wait.Visible(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return err
	}
	return el.Type(ctx, text)
}

// click waits for loc to be clickable and clicks it.
func (p *Page) click(ctx context.Context, loc locator.Locator) error {
	el, err := p.Wait.Clickable(ctx, loc)
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

var (
	alertAny     = locator.ByCSS("#alert .alert-success, #alert .alert-danger")
	alertSuccess = locator.ByCSS(".alert-success")
)

// awaitAlert waits for the success or warning alert a form post ends with.
func (p *Page) awaitAlert(ctx context.Context) (ok bool, text string, err error) {
	alerts, err := p.Wait.Any(ctx, alertAny)
	if err != nil {
		return false, "", err
	}
	if text, err = alerts[0].Text(ctx); err != nil {
		return false, "", err
	}
	success, err := p.Session.FindAll(ctx, alertSuccess)
	if err != nil {
		return false, "", err
	}
	return len(success) > 0, text, nil
}

// FindItemMatchingName scans the cards matched by cards for the first one
// whose label text contains name, case-insensitively. Cards without a label
// are skipped. A card list that never appears is a miss, not an error; only
// environment failures and cancellation are returned as errors. A miss is
// logged exactly once. A blank name would match every card and is rejected.
func FindItemMatchingName(ctx context.Context, p *Page, cards, label locator.Locator, name string) (*session.Element, bool, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, false, ErrBlankName
	}

	items, err := p.Wait.All(ctx, cards)
	if err != nil {
		if !wait.IsTimeout(err) {
			return nil, false, err
		}
		items = nil
	}

	for _, item := range items {
		labels, err := item.FindAll(ctx, label)
		if err != nil {
			return nil, false, err
		}
		if len(labels) == 0 {
			continue
		}
		text, err := labels[0].Text(ctx)
		if err != nil {
			return nil, false, err
		}
		if strings.Contains(strings.ToLower(text), want) {
			return item, true, nil
		}
	}

	p.logf(report.WarnLevel, "%q not found among %d items (%s)", name, len(items), cards)
	return nil, false, nil
}

// actOnItem finds the card for name and clicks its action control.
func actOnItem(ctx context.Context, p *Page, cards, label, action locator.Locator, name string) (bool, error) {
	item, found, err := FindItemMatchingName(ctx, p, cards, label, name)
	if err != nil || !found {
		return false, err
	}
	ctl, err := item.Find(ctx, action)
	if err != nil {
		return false, err
	}
	if err := ctl.Click(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Site holds one of each page object over a shared Page.
type Site struct {
	Main          *MainPage
	Product       *ProductPage
	Register      *RegisterPage
	Login         *LoginPage
	Cart          *CartPage
	Wishlist      *WishlistPage
	AdminLogin    *AdminLoginPage
	AdminCategory *AdminCategoryPage
	AdminProduct  *AdminProductPage
}

// NewSite builds every page object over p.
func NewSite(p *Page) *Site {
	return &Site{
		Main:          &MainPage{p},
		Product:       &ProductPage{p},
		Register:      &RegisterPage{p},
		Login:         &LoginPage{p},
		Cart:          &CartPage{p},
		Wishlist:      &WishlistPage{p},
		AdminLogin:    &AdminLoginPage{p},
		AdminCategory: &AdminCategoryPage{p},
		AdminProduct:  &AdminProductPage{p},
	}
}
