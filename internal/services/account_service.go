package services

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/adyen/shopharness/internal/models"
)

// Registration errors
var (
	ErrPasswordMismatch = errors.New("password confirmation does not match password")
	ErrPolicyNotAgreed  = errors.New("you must agree to the privacy policy")
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	CreateCustomer(c *models.Customer) error
	GetCustomerByEmail(email string) (*models.Customer, error)
}

// Registration is the account/register form.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Telephone string
	Password  string
	Confirm   string
	Agree     bool
}

// AccountService handles customer registration and login
type AccountService interface {
	Register(in Registration) (*models.Customer, error)
	Login(email, password string) (*models.Customer, error)
}

// AccountServiceImpl implements AccountService
type AccountServiceImpl struct {
	repo CustomerRepository
}

// NewAccountService creates a new account service
func NewAccountService(repo CustomerRepository) AccountService {
	return &AccountServiceImpl{repo: repo}
}

// Register validates the form and creates the customer
func (s *AccountServiceImpl) Register(in Registration) (*models.Customer, error) {
	c, err := models.NewCustomer(in.FirstName, in.LastName, in.Email, in.Telephone, in.Password)
	if err != nil {
		return nil, err
	}
	if in.Confirm != in.Password {
		return nil, ErrPasswordMismatch
	}
	if !in.Agree {
		return nil, ErrPolicyNotAgreed
	}
	if err := s.repo.CreateCustomer(c); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

// Login checks credentials. Unknown addresses and wrong passwords both
// return models.ErrWrongPassword.
func (s *AccountServiceImpl) Login(email, password string) (*models.Customer, error) {
	c, err := s.repo.GetCustomerByEmail(email)
	if errors.Is(err, models.ErrCustomerNotFound) {
		return nil, models.ErrWrongPassword
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if err := c.CheckPassword(password); err != nil {
		return nil, err
	}
	return c, nil
}

// AdminAuth checks the single configured back-office account.
type AdminAuth struct {
	username string
	password string
}

// NewAdminAuth creates an admin authenticator
func NewAdminAuth(username, password string) AdminAuth {
	return AdminAuth{username: username, password: password}
}

// Check reports whether the credentials match.
func (a AdminAuth) Check(username, password string) bool {
	if a.username == "" {
		return false
	}
	u := subtle.ConstantTimeCompare([]byte(username), []byte(a.username))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(a.password))
	return u&p == 1
}
