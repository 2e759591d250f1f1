package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/models"
	"github.com/adyen/shopharness/internal/services"
)

// registerForm is what the register template re-renders after a failed post.
type registerForm struct {
	Form   services.Registration
	Errors map[string]string
}

// fieldErrors maps validation errors to the register form field they belong to.
var fieldErrors = []struct {
	err   error
	field string
	text  string
}{
	{models.ErrInvalidFirstName, "firstname", "First Name must be between 1 and 32 characters!"},
	{models.ErrInvalidLastName, "lastname", "Last Name must be between 1 and 32 characters!"},
	{models.ErrInvalidEmail, "email", "E-Mail Address does not appear to be valid!"},
	{models.ErrInvalidTelephone, "telephone", "Telephone must be between 3 and 32 characters!"},
	{models.ErrInvalidPassword, "password", "Password must be between 4 and 20 characters!"},
	{services.ErrPasswordMismatch, "confirm", "Password confirmation does not match password!"},
}

func (h *StorefrontHandler) register(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, id, http.StatusOK, "register", "Register Account", registerForm{})
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

	in := services.Registration{
		FirstName: r.PostFormValue("firstname"),
		LastName:  r.PostFormValue("lastname"),
		Email:     r.PostFormValue("email"),
		Telephone: r.PostFormValue("telephone"),
		Password:  r.PostFormValue("password"),
		Confirm:   r.PostFormValue("confirm"),
		Agree:     r.PostFormValue("agree") != "",
	}
	c, err := h.accounts.Register(in)
	if err == nil {
		h.signIn(id, c)
		h.logger.Info("customer registered", zap.String("customer_id", c.ID))
		http.Redirect(w, r, route("account/success"), http.StatusFound)
		return
	}

	form := registerForm{Form: in, Errors: map[string]string{}}
	form.Form.Password, form.Form.Confirm = "", ""
	switch {
	case errors.Is(err, models.ErrEmailTaken):
		h.notify(id, services.AlertDanger, "Warning: E-Mail Address is already registered!")
	case errors.Is(err, services.ErrPolicyNotAgreed):
		h.notify(id, services.AlertDanger, "Warning: You must agree to the Privacy Policy!")
	default:
		for _, fe := range fieldErrors {
			if errors.Is(err, fe.err) {
				form.Errors[fe.field] = fe.text
			}
		}
		if len(form.Errors) == 0 {
			h.fail(w, "failed to register customer", err)
			return
		}
	}
	h.render(w, r, id, http.StatusOK, "register", "Register Account", form)
}

func (h *StorefrontHandler) signIn(id string, c *models.Customer) {
	h.visitors.Update(id, func(v *services.Visitor) {
		v.CustomerID = c.ID
		v.CustomerName = c.FirstName
	})
}

func (h *StorefrontHandler) login(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		if v, _ := h.visitors.Get(id); v.CustomerID != "" {
			http.Redirect(w, r, route("account/account"), http.StatusFound)
			return
		}
		h.render(w, r, id, http.StatusOK, "login", "Account Login", struct{ Email string }{})
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

	email := r.PostFormValue("email")
	c, err := h.accounts.Login(email, r.PostFormValue("password"))
	if errors.Is(err, models.ErrWrongPassword) {
		h.notify(id, services.AlertDanger, "Warning: No match for E-Mail Address and/or Password.")
		h.render(w, r, id, http.StatusOK, "login", "Account Login", struct{ Email string }{email})
		return
	}
	if err != nil {
		h.fail(w, "failed to log in customer", err)
		return
	}
	h.signIn(id, c)
	http.Redirect(w, r, route("account/account"), http.StatusFound)
}

func (h *StorefrontHandler) account(w http.ResponseWriter, r *http.Request, id string) {
	if v, _ := h.visitors.Get(id); v.CustomerID == "" {
		http.Redirect(w, r, route("account/login"), http.StatusFound)
		return
	}
	h.render(w, r, id, http.StatusOK, "account", "My Account", nil)
}

func (h *StorefrontHandler) logout(w http.ResponseWriter, r *http.Request, id string) {
	h.visitors.Update(id, func(v *services.Visitor) {
		v.CustomerID, v.CustomerName = "", ""
	})
	h.render(w, r, id, http.StatusOK, "logout", "Account Logout", nil)
}
