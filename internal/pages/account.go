package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
)

// Customer is the data typed into the registration form.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Telephone string
	Password  string
}

const (
	accountCreatedText = "Your Account Has Been Created!"
	myAccountText      = "My Account"
)

var (
	registerAgree  = locator.ByName("agree")
	registerSubmit = locator.ByCSS("input.btn.btn-primary")
	loginEmail     = locator.ByID("input-email")
	loginPassword  = locator.ByID("input-password")
	loginSubmit    = locator.ByCSS("input[value='Login']")
	pageHeading    = locator.ByCSS("#content h1")
	sectionHeading = locator.ByCSS("#content h2")
)

// RegisterPage is the customer registration form.
type RegisterPage struct {
	*Page
}

// Open loads the registration form.
func (rp *RegisterPage) Open(ctx context.Context) error {
	rp.step("Open registration page")
	return rp.open(ctx, rp.Routes.Route("account/register"))
}

// Register fills in and submits the form, agreeing to the privacy policy.
func (rp *RegisterPage) Register(ctx context.Context, c Customer) error {
	rp.step("Register %s", c.Email)
	fields := []struct {
		id, text string
	}{
		{"input-firstname", c.FirstName},
		{"input-lastname", c.LastName},
		{"input-email", c.Email},
		{"input-telephone", c.Telephone},
		{"input-password", c.Password},
		{"input-confirm", c.Password},
	}
	for _, f := range fields {
		if err := rp.typeInto(ctx, locator.ByID(f.id), f.text); err != nil {
			return fmt.Errorf("failed to fill %s: %w", f.id, err)
		}
	}
	for _, loc := range []locator.Locator{registerAgree, registerSubmit} {
		el, err := rp.Session.Find(ctx, loc)
		if err != nil {
			return err
		}
		if err := el.Click(ctx); err != nil {
			return fmt.Errorf("failed to click %s: %w", loc, err)
		}
	}
	rp.logf(report.InfoLevel, "registration submitted for %s", c.Email)
	return nil
}

// IsAccountCreated reports whether the page confirms a new account.
func (rp *RegisterPage) IsAccountCreated(ctx context.Context) (bool, error) {
	h, err := rp.Wait.Visible(ctx, pageHeading)
	if err != nil {
		return false, err
	}
	text, err := h.Text(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(text, accountCreatedText), nil
}

// LoginPage is the returning customer login form.
type LoginPage struct {
	*Page
}

// Open loads the login form.
func (lp *LoginPage) Open(ctx context.Context) error {
	lp.step("Open login page")
	return lp.open(ctx, lp.Routes.Route("account/login"))
}

// Login submits the returning customer form.
func (lp *LoginPage) Login(ctx context.Context, email, password string) error {
	lp.step("Log in as %s", email)
	if err := lp.typeInto(ctx, loginEmail, email); err != nil {
		return fmt.Errorf("failed to type email: %w", err)
	}
	if err := lp.typeInto(ctx, loginPassword, password); err != nil {
		return fmt.Errorf("failed to type password: %w", err)
	}
	if err := lp.click(ctx, loginSubmit); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	return nil
}

// Logout ends the customer session.
func (lp *LoginPage) Logout(ctx context.Context) error {
	lp.step("Log out")
	return lp.open(ctx, lp.Routes.Route("account/logout"))
}

// IsLoggedIn reports whether the current page is the customer account page.
func (lp *LoginPage) IsLoggedIn(ctx context.Context) (bool, error) {
	headings, err := lp.Wait.Any(ctx, sectionHeading)
	if err != nil {
		return false, err
	}
	for _, h := range headings {
		text, err := h.Text(ctx)
		if err != nil {
			return false, err
		}
		if text == myAccountText {
			return true, nil
		}
	}
	lp.logf(report.WarnLevel, "account page not shown after login")
	return false, nil
}
