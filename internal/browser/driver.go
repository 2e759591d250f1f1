// Package browser defines the capability set the harness consumes from a
// browser automation engine. Engines live in the sub-packages; any type that
// satisfies Driver can back a session.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/adyen/shopharness/internal/locator"
)

var (
	// ErrStaleElement reports that a node detached from the document after it was found.
	ErrStaleElement = errors.New("stale element reference")
	// ErrUnsupported reports an operation the engine cannot perform.
	ErrUnsupported = errors.New("operation not supported by driver")
	// ErrNoDialog reports that no dialog opened after the trigger ran.
	ErrNoDialog = errors.New("no dialog opened")
	// ErrClosed reports use of a driver after Quit.
	ErrClosed = errors.New("driver closed")
)

// Driver is one live browser instance.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// FindAll returns every element matching loc. No match is an empty slice, not an error.
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)
	Back(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	PageSource(ctx context.Context) ([]byte, error)
	// AcceptDialog runs trigger and accepts the confirm/alert dialog it opens.
	AcceptDialog(ctx context.Context, trigger func(context.Context) error) error
	Quit() error
}

// Element is a node found by a Driver.
type Element interface {
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)
	Click(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
}

// WindowSize is the browser viewport. Maximized asks the engine for the
// largest window it supports and ignores Width/Height.
type WindowSize struct {
	Width     int
	Height    int
	Maximized bool
}

// Options configure a launch.
type Options struct {
	// Browser is the engine-specific product name: chromium, firefox, chrome.
	Browser           string
	DriverBinaryPath  string
	BrowserBinaryPath string
	Headless          bool
	Window            WindowSize
	// ImplicitTimeout bounds page loads and engine-side element lookups.
	ImplicitTimeout time.Duration
	// RemoteURL connects to an already running browser or WebDriver server.
	RemoteURL string
	Stealth   bool
}

// Launcher starts a browser and returns its Driver.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Driver, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, opts Options) (Driver, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, opts Options) (Driver, error) {
	return f(ctx, opts)
}
