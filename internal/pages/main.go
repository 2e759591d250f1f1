package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/wait"
)

// EmptyCategoryText is shown on a category page without products.
const EmptyCategoryText = "There are no products to list in this category."

var (
	firstProductLink = locator.ByCSS(".product-layout .caption a")
	currencyToggle   = locator.ByCSS("button.btn-link.dropdown-toggle")
	currencyCode     = locator.ByCSS("#form-currency .currency-code")
	searchInput      = locator.ByName("search")
	searchButton     = locator.ByCSS("button.btn.btn-default.btn-lg")
	searchHeading    = locator.ByCSS("#content h1")
	contentText      = locator.ByCSS("#content p")
	productCards     = locator.ByCSS(".product-layout")
	productTitle     = locator.ByCSS("h4 a")
	cartButton       = locator.ByCSS("button[onclick*='cart.add']")
	wishlistButton   = locator.ByCSS("button[data-original-title='Add to Wish List']")
)

// MainPage is the storefront: home, category and search result listings.
type MainPage struct {
	*Page
}

// Open loads the home page.
func (m *MainPage) Open(ctx context.Context) error {
	m.step("Open main page")
	return m.open(ctx, m.Routes.Home())
}

// ClickFirstProduct opens the first product card of the current listing.
func (m *MainPage) ClickFirstProduct(ctx context.Context) error {
	m.step("Click first product")
	if err := m.click(ctx, firstProductLink); err != nil {
		return fmt.Errorf("failed to open first product: %w", err)
	}
	return nil
}

// OpenFirstSearchResult waits for a search result listing and opens its
// first product.
func (m *MainPage) OpenFirstSearchResult(ctx context.Context) error {
	if _, err := m.Wait.Text(ctx, searchHeading, "Search"); err != nil {
		return fmt.Errorf("failed to wait for search results: %w", err)
	}
	return m.ClickFirstProduct(ctx)
}

// ChangeCurrency switches the display currency by its code (EUR, GBP, USD)
// and waits until the header shows it.
func (m *MainPage) ChangeCurrency(ctx context.Context, code string) error {
	m.step("Change currency to %s", code)
	code = strings.ToUpper(strings.TrimSpace(code))
	option, err := locator.New(locator.Name, code)
	if err != nil {
		return err
	}
	if err := m.click(ctx, currencyToggle); err != nil {
		return fmt.Errorf("failed to open currency menu: %w", err)
	}
	if err := m.click(ctx, option); err != nil {
		return fmt.Errorf("failed to pick currency %s: %w", code, err)
	}
	if _, err := m.Wait.Text(ctx, currencyCode, code); err != nil {
		return fmt.Errorf("failed to confirm currency %s: %w", code, err)
	}
	m.logf(report.InfoLevel, "currency changed to %s", code)
	return nil
}

// GoToCategory follows the top menu link for category and, when given, the
// subcategory link on the page it leads to. Links match by their full text,
// so a subcategory is usually written with its count, like "PC (0)".
func (m *MainPage) GoToCategory(ctx context.Context, category string, subcategory ...string) error {
	m.step("Go to category %s", strings.Join(append([]string{category}, subcategory...), " > "))
	for _, name := range append([]string{category}, subcategory...) {
		loc, err := locator.New(locator.LinkText, name)
		if err != nil {
			return err
		}
		if err := m.click(ctx, loc); err != nil {
			return fmt.Errorf("failed to open category %q: %w", name, err)
		}
		m.logf(report.InfoLevel, "opened category %s", name)
	}
	return nil
}

// SearchProduct submits the header search form and waits for the results.
func (m *MainPage) SearchProduct(ctx context.Context, query string) error {
	m.step("Search product %s", query)
	if err := m.typeInto(ctx, searchInput, query); err != nil {
		return fmt.Errorf("failed to type search: %w", err)
	}
	btn, err := m.Session.Find(ctx, searchButton)
	if err != nil {
		return err
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}
	if _, err := m.Wait.Text(ctx, searchHeading, "Search"); err != nil {
		return fmt.Errorf("failed to wait for search results: %w", err)
	}
	return nil
}

// AddProductToWishlistByName clicks the wish list button of the first card
// whose title contains name. It reports false when no card matches.
func (m *MainPage) AddProductToWishlistByName(ctx context.Context, name string) (bool, error) {
	m.step("Add %s to wish list", name)
	return m.addByName(ctx, name, wishlistButton, "wish list")
}

// AddProductToCartByName clicks the add to cart button of the first card
// whose title contains name. It reports false when no card matches.
func (m *MainPage) AddProductToCartByName(ctx context.Context, name string) (bool, error) {
	m.step("Add %s to cart", name)
	return m.addByName(ctx, name, cartButton, "cart")
}

func (m *MainPage) addByName(ctx context.Context, name string, action locator.Locator, target string) (bool, error) {
	added, err := actOnItem(ctx, m.Page, productCards, productTitle, action, name)
	if err != nil || !added {
		return false, err
	}
	ok, text, err := m.awaitAlert(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to confirm %s was added to the %s: %w", name, target, err)
	}
	if !ok {
		m.logf(report.WarnLevel, "%s rejected %s: %s", target, name, text)
		return false, nil
	}
	m.logf(report.InfoLevel, "%s added to the %s", name, target)
	return true, nil
}

// IsEmptyCategoryShown reports whether the page shows the empty category
// message. A page without any message counts as false.
func (m *MainPage) IsEmptyCategoryShown(ctx context.Context) (bool, error) {
	el, err := m.Wait.Visible(ctx, contentText)
	if wait.IsTimeout(err) {
		m.logf(report.ErrorLevel, "empty category message not found")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(text, EmptyCategoryText), nil
}

// ProductLinkCount counts links whose text is exactly name on the current
// page, without waiting.
func (m *MainPage) ProductLinkCount(ctx context.Context, name string) (int, error) {
	loc, err := locator.New(locator.LinkText, name)
	if err != nil {
		return 0, err
	}
	links, err := m.Session.FindAll(ctx, loc)
	if err != nil {
		return 0, err
	}
	return len(links), nil
}

// IsProductListed waits up to within for a link whose text is exactly name.
func (m *MainPage) IsProductListed(ctx context.Context, name string, within wait.Spec) (bool, error) {
	loc, err := locator.New(locator.LinkText, name)
	if err != nil {
		return false, err
	}
	_, err = wait.Until(ctx, m.Session, within, wait.AnyElementsPresent(loc))
	if wait.IsTimeout(err) {
		return false, nil
	}
	return err == nil, err
}
