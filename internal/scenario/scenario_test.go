package scenario

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Outcome
	}{
		{"nil", nil, Passed},
		{"assertion", fmt.Errorf("%w: not in cart", ErrAssertion), Failed},
		{"wrapped assertion", fmt.Errorf("step %q: %w", "check", fmt.Errorf("%w: x", ErrAssertion)), Failed},
		{"environment", errors.New("connection refused"), Error},
		{"deadline", context.DeadlineExceeded, Error},
		{"panic", fmt.Errorf("%w: boom", ErrPanic), Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	all := []Scenario{
		{Name: "Add camera to cart", Feature: "Cart"},
		{Name: "Add tablet to cart", Feature: "Cart"},
		{Name: "Write review", Feature: "Reviews"},
	}

	tests := []struct {
		name     string
		patterns []string
		expected []string
	}{
		{"no patterns", nil, []string{"Add camera to cart", "Add tablet to cart", "Write review"}},
		{"blank pattern", []string{" "}, []string{"Add camera to cart", "Add tablet to cart", "Write review"}},
		{"by feature", []string{"cart"}, []string{"Add camera to cart", "Add tablet to cart"}},
		{"by name", []string{"CAMERA"}, []string{"Add camera to cart"}},
		{"several", []string{"review", "tablet"}, []string{"Add tablet to cart", "Write review"}},
		{"none", []string{"admin"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(all, tt.patterns...)
			var names []string
			for _, sc := range got {
				names = append(names, sc.Name)
			}
			if fmt.Sprint(names) != fmt.Sprint(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, names)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := Summarize([]Result{{Outcome: Passed}, {Outcome: Failed}, {Outcome: Error}, {Outcome: Passed}})

	if s.OK() {
		t.Error("expected summary with failures not to be OK")
	}
	if got := s.String(); got != "2 passed, 1 failed, 1 errors" {
		t.Errorf("unexpected summary %q", got)
	}
	if !(Summary{Passed: 3}).OK() {
		t.Error("expected all-passed summary to be OK")
	}
}
