package models

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Customer is a registered storefront account.
type Customer struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Telephone    string
	PasswordHash string
	CreatedAt    time.Time
}

// Customer errors
var (
	ErrInvalidFirstName = errors.New("first name must be between 1 and 32 characters")
	ErrInvalidLastName  = errors.New("last name must be between 1 and 32 characters")
	ErrInvalidEmail     = errors.New("e-mail address does not appear to be valid")
	ErrInvalidTelephone = errors.New("telephone must be between 3 and 32 characters")
	ErrInvalidPassword  = errors.New("password must be between 4 and 20 characters")
	ErrWrongPassword    = errors.New("no match for e-mail address and/or password")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailTaken       = errors.New("e-mail address is already registered")
)

// NewCustomer creates a customer with validation and a bcrypt password hash.
// The e-mail address is stored lower-cased.
func NewCustomer(firstName, lastName, email, telephone, password string) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	telephone = strings.TrimSpace(telephone)

	if !between(firstName, 1, 32) {
		return nil, ErrInvalidFirstName
	}
	if !between(lastName, 1, 32) {
		return nil, ErrInvalidLastName
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if !between(telephone, 3, 32) {
		return nil, ErrInvalidTelephone
	}
	if !between(password, 4, 20) {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &Customer{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Telephone:    telephone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}, nil
}

// CheckPassword returns ErrWrongPassword unless password matches.
func (c *Customer) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
