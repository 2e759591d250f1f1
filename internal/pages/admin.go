package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/session"
)

var (
	// ErrLoginRejected is returned when the back office refuses the
	// credentials.
	ErrLoginRejected = errors.New("admin login rejected")
	// ErrNotSaved is returned when a back office form comes back with a
	// warning instead of a success alert.
	ErrNotSaved = errors.New("form not saved")
	// ErrNoCategoryOption is returned when the category autocomplete offers
	// nothing to pick.
	ErrNoCategoryOption = errors.New("no category suggestions")
)

var (
	adminUsername    = locator.ByID("input-username")
	adminPassword    = locator.ByID("input-password")
	adminSubmit      = locator.ByCSS("button[type='submit']")
	loginOutcome     = locator.ByCSS(".btn-close, #alert .alert-danger")
	modalClose       = locator.ByCSS(".btn-close")
	modal            = locator.ByCSS(".modal")
	catalogMenu      = locator.ByID("menu-catalog")
	addNewButton     = locator.ByCSS("a[data-bs-original-title='Add New']")
	saveButton       = locator.ByCSS("button[data-bs-original-title='Save']")
	deleteButton     = locator.ByCSS("button[data-bs-original-title='Delete']")
	nameInput        = locator.ByID("input-name1")
	metaTitleInput   = locator.ByID("input-meta-title1")
	descriptionInput = locator.ByCSS("div.note-editable")
	dataTab          = locator.ByLinkText("Data")
	linksTab         = locator.ByLinkText("Links")
	modelInput       = locator.ByID("input-model")
	categoryInput    = locator.ByID("input-category")
	categoryOptions  = locator.ByCSS(".dropdown-menu li a")
	filterName       = locator.ByID("input-name")
	filterButton     = locator.ByID("button-filter")
	productRows      = locator.ByCSS("#form-product tbody tr")
	productRowName   = locator.ByCSS("td.text-start")
	productCheckbox  = locator.ByCSS("input[type='checkbox'][name='selected[]']")
)

// AdminLoginPage is the back office login form.
type AdminLoginPage struct {
	*Page
}

// Open loads the back office login form.
func (a *AdminLoginPage) Open(ctx context.Context) error {
	a.step("Open admin login page")
	return a.open(ctx, a.Routes.Admin())
}

// Login signs in, closes the security notice shown on the dashboard and
// waits for it to go away.
func (a *AdminLoginPage) Login(ctx context.Context, username, password string) error {
	a.step("Log in to admin as %s", username)
	if err := a.typeInto(ctx, adminUsername, username); err != nil {
		return fmt.Errorf("failed to type username: %w", err)
	}
	if err := a.typeInto(ctx, adminPassword, password); err != nil {
		return fmt.Errorf("failed to type password: %w", err)
	}
	submit, err := a.Session.Find(ctx, adminSubmit)
	if err != nil {
		return err
	}
	if err := submit.Click(ctx); err != nil {
		return fmt.Errorf("failed to submit admin login: %w", err)
	}

	if _, err := a.Wait.Any(ctx, loginOutcome); err != nil {
		return fmt.Errorf("failed to wait for dashboard: %w", err)
	}
	closers, err := a.Session.FindAll(ctx, modalClose)
	if err != nil {
		return err
	}
	if len(closers) == 0 {
		a.logf(report.ErrorLevel, "admin login rejected for %s", username)
		return fmt.Errorf("%w: %s", ErrLoginRejected, username)
	}
	a.logf(report.InfoLevel, "logged in to admin as %s", username)

	if err := a.click(ctx, modalClose); err != nil {
		return fmt.Errorf("failed to close security notice: %w", err)
	}
	if err := a.Wait.Invisible(ctx, modal); err != nil {
		return fmt.Errorf("failed to wait for security notice to close: %w", err)
	}
	a.logf(report.InfoLevel, "security notice closed")
	return nil
}

// openCatalogSection expands the catalog menu and follows section. Outside
// the back office it goes through the admin entry page first, which leads a
// signed-in admin to the dashboard.
func openCatalogSection(ctx context.Context, p *Page, section string) error {
	menus, err := p.Session.FindAll(ctx, catalogMenu)
	if err != nil {
		return err
	}
	if len(menus) == 0 {
		if err := p.open(ctx, p.Routes.Admin()); err != nil {
			return err
		}
	}
	if err := p.click(ctx, catalogMenu); err != nil {
		return fmt.Errorf("failed to open catalog menu: %w", err)
	}
	if err := p.click(ctx, locator.ByLinkText(section)); err != nil {
		return fmt.Errorf("failed to open %s: %w", section, err)
	}
	p.logf(report.InfoLevel, "opened %s", section)
	return nil
}

// save clicks the header save button and checks the alert it leads to.
func save(ctx context.Context, p *Page, what string) error {
	btn, err := p.Session.Find(ctx, saveButton)
	if err != nil {
		return err
	}
	if err := btn.Click(ctx); err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	ok, msg, err := p.awaitAlert(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm %s was saved: %w", what, err)
	}
	if !ok {
		p.logf(report.ErrorLevel, "%s not saved: %s", what, msg)
		return fmt.Errorf("%w: %s: %s", ErrNotSaved, what, msg)
	}
	return nil
}

// AdminCategoryPage is the category list and form.
type AdminCategoryPage struct {
	*Page
}

// Open navigates to the category list through the catalog menu.
func (c *AdminCategoryPage) Open(ctx context.Context) error {
	c.step("Open admin categories")
	return openCatalogSection(ctx, c.Page, "Categories")
}

// CreateCategory adds a category from the category list.
func (c *AdminCategoryPage) CreateCategory(ctx context.Context, name, description string) error {
	c.step("Create category %s", name)
	if err := c.click(ctx, addNewButton); err != nil {
		return fmt.Errorf("failed to open category form: %w", err)
	}
	if err := c.typeInto(ctx, nameInput, name); err != nil {
		return fmt.Errorf("failed to type category name: %w", err)
	}
	desc, err := c.Session.Find(ctx, descriptionInput)
	if err != nil {
		return err
	}
	if err := desc.Type(ctx, description); err != nil {
		return fmt.Errorf("failed to type category description: %w", err)
	}
	if err := save(ctx, c.Page, "category "+name); err != nil {
		return err
	}
	c.logf(report.InfoLevel, "category %q created", name)
	return nil
}

// AdminProductPage is the product list and form.
type AdminProductPage struct {
	*Page
}

// Open navigates to the product list through the catalog menu.
func (a *AdminProductPage) Open(ctx context.Context) error {
	a.step("Open admin products")
	return openCatalogSection(ctx, a.Page, "Products")
}

// AddProduct creates a product in category from the product list. The
// model is derived from the name.
func (a *AdminProductPage) AddProduct(ctx context.Context, name, category, description string) error {
	a.step("Add product %s to %s", name, category)
	if err := a.click(ctx, addNewButton); err != nil {
		return fmt.Errorf("failed to open product form: %w", err)
	}
	if err := a.typeInto(ctx, nameInput, name); err != nil {
		return fmt.Errorf("failed to type product name: %w", err)
	}
	if err := a.typeInto(ctx, metaTitleInput, name); err != nil {
		return fmt.Errorf("failed to type meta title: %w", err)
	}
	desc, err := a.Session.Find(ctx, descriptionInput)
	if err != nil {
		return err
	}
	if err := desc.Type(ctx, description); err != nil {
		return fmt.Errorf("failed to type product description: %w", err)
	}

	if err := a.click(ctx, dataTab); err != nil {
		return fmt.Errorf("failed to open data tab: %w", err)
	}
	if err := a.typeInto(ctx, modelInput, "Model-"+name); err != nil {
		return fmt.Errorf("failed to type model: %w", err)
	}

	if err := a.click(ctx, linksTab); err != nil {
		return fmt.Errorf("failed to open links tab: %w", err)
	}
	if err := a.typeInto(ctx, categoryInput, category); err != nil {
		return fmt.Errorf("failed to type category: %w", err)
	}
	if err := a.pickCategory(ctx, category); err != nil {
		return err
	}

	if err := save(ctx, a.Page, "product "+name); err != nil {
		return err
	}
	a.logf(report.InfoLevel, "product %q added to %q", name, category)
	return nil
}

// pickCategory clicks the autocomplete entry whose text equals category,
// ignoring case, or the first entry when none does.
func (a *AdminProductPage) pickCategory(ctx context.Context, category string) error {
	options, err := a.Wait.Any(ctx, categoryOptions)
	if err != nil {
		return fmt.Errorf("%w for %q: %v", ErrNoCategoryOption, category, err)
	}
	pick, first, err := matchOption(ctx, options, category)
	if err != nil {
		return err
	}
	if pick == nil {
		pick = options[0]
		a.logf(report.WarnLevel, "no category suggestion equals %q, using first suggestion %q", category, first)
	}
	if err := pick.Click(ctx); err != nil {
		return fmt.Errorf("failed to pick category %q: %w", category, err)
	}
	return nil
}

// matchOption returns the option whose text equals want, ignoring case, and
// the text of the first option.
func matchOption(ctx context.Context, options []*session.Element, want string) (*session.Element, string, error) {
	want = strings.TrimSpace(want)
	var first string
	for i, o := range options {
		text, err := o.Text(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read category suggestion: %w", err)
		}
		text = strings.TrimSpace(text)
		if i == 0 {
			first = text
		}
		if strings.EqualFold(text, want) {
			return o, first, nil
		}
	}
	return nil, first, nil
}

// DeleteProductByName filters the list by name, selects the first matching
// row and deletes it, accepting the confirmation dialog. It reports false
// when no row matches.
func (a *AdminProductPage) DeleteProductByName(ctx context.Context, name string) (bool, error) {
	a.step("Delete product %s", name)
	if err := a.typeInto(ctx, filterName, name); err != nil {
		return false, fmt.Errorf("failed to type filter: %w", err)
	}
	filter, err := a.Session.Find(ctx, filterButton)
	if err != nil {
		return false, err
	}
	if err := filter.Click(ctx); err != nil {
		return false, fmt.Errorf("failed to filter products: %w", err)
	}

	selected, err := actOnItem(ctx, a.Page, productRows, productRowName, productCheckbox, name)
	if err != nil || !selected {
		return false, err
	}
	a.logf(report.InfoLevel, "selected %q for deletion", name)

	err = a.Session.AcceptDialog(ctx, func(ctx context.Context) error {
		btn, err := a.Session.Find(ctx, deleteButton)
		if err != nil {
			return err
		}
		return btn.Click(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete %q: %w", name, err)
	}
	ok, msg, err := a.awaitAlert(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to confirm %q was deleted: %w", name, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: delete %s: %s", ErrNotSaved, name, msg)
	}
	a.logf(report.InfoLevel, "product %q deleted", name)
	return true, nil
}
