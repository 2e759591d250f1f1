package session

import (
	"errors"
	"fmt"

	"github.com/adyen/shopharness/internal/locator"
)

// ErrNotFound reports that a locator matched nothing on the current page.
var ErrNotFound = errors.New("element not found")

// NotFoundError names the locator that matched nothing.
type NotFoundError struct {
	Locator locator.Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Locator)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StaleElementError reports use of a handle whose node is gone, either
// because the session navigated since the handle was found or because the
// page re-rendered underneath it. Callers must locate the element again.
type StaleElementError struct {
	Locator locator.Locator
	Err     error
}

func (e *StaleElementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stale element %s: %v", e.Locator, e.Err)
	}
	return fmt.Sprintf("stale element %s: page changed since it was located", e.Locator)
}

func (e *StaleElementError) Unwrap() error {
	return e.Err
}

// LaunchError reports that the browser could not be started. It is fatal for
// the whole run.
type LaunchError struct {
	Driver string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s driver: %v", e.Driver, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err only means "not there yet".
func IsTransient(err error) bool {
	var stale *StaleElementError
	return errors.Is(err, ErrNotFound) || errors.As(err, &stale)
}
