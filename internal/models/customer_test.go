package models

import (
	"testing"
)

func TestNewCustomer(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		email     string
		telephone string
		password  string
		wantErr   error
	}{
		{"valid customer", "Иван", "Иванов", "Ivanov@Example.com", "1234567890", "Password123", nil},
		{"missing first name", "", "Иванов", "ivanov@example.com", "1234567890", "Password123", ErrInvalidFirstName},
		{"missing last name", "Иван", "", "ivanov@example.com", "1234567890", "Password123", ErrInvalidLastName},
		{"bad email", "Иван", "Иванов", "ivanov.example.com", "1234567890", "Password123", ErrInvalidEmail},
		{"display name email", "Иван", "Иванов", "Ivan <ivanov@example.com>", "1234567890", "Password123", ErrInvalidEmail},
		{"short telephone", "Иван", "Иванов", "ivanov@example.com", "12", "Password123", ErrInvalidTelephone},
		{"short password", "Иван", "Иванов", "ivanov@example.com", "1234567890", "abc", ErrInvalidPassword},
		{"long password", "Иван", "Иванов", "ivanov@example.com", "1234567890", "abcdefghijklmnopqrstu", ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCustomer(tt.first, tt.last, tt.email, tt.telephone, tt.password)
			if err != tt.wantErr {
				t.Fatalf("NewCustomer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if c.ID == "" {
				t.Error("Customer ID should not be empty")
			}
			if c.Email != "ivanov@example.com" {
				t.Errorf("Expected lower-cased email, got %q", c.Email)
			}
			if c.PasswordHash == tt.password {
				t.Error("Password must not be stored in clear text")
			}
			if c.FullName() != "Иван Иванов" {
				t.Errorf("FullName() = %q", c.FullName())
			}
		})
	}
}

func TestCustomer_CheckPassword(t *testing.T) {
	c, err := NewCustomer("Ivan", "Ivanov", "ivanov@example.com", "1234567890", "Password123")
	if err != nil {
		t.Fatalf("NewCustomer() unexpected error = %v", err)
	}

	if err := c.CheckPassword("Password123"); err != nil {
		t.Errorf("CheckPassword() with the right password = %v", err)
	}
	if err := c.CheckPassword("password123"); err != ErrWrongPassword {
		t.Errorf("CheckPassword() with a wrong password = %v, want ErrWrongPassword", err)
	}
}
