// Package session owns the lifecycle of one browser instance and the
// handles found on its current page.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
)

// Config configures a session.
type Config struct {
	// Driver names the engine, for logs and errors.
	Driver  string
	Options browser.Options
}

// Session is a live browser. It is not safe for concurrent use: run one
// session per worker and issue operations sequentially.
type Session struct {
	id      string
	cfg     Config
	driver  browser.Driver
	logger  *zap.Logger
	started time.Time

	// generation increments on every navigation; handles from an older
	// generation are stale.
	generation uint64

	quitOnce sync.Once
	quitErr  error
	closed   bool
}

// Start launches the browser. The returned session must be released with
// Quit on every exit path.
func Start(ctx context.Context, cfg Config, launcher browser.Launcher, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if launcher == nil {
		return nil, &LaunchError{Driver: cfg.Driver, Err: errors.New("no launcher configured")}
	}

	id := uuid.NewString()
	log := logger.With(zap.String("session", id), zap.String("driver", cfg.Driver))

	drv, err := launcher.Launch(ctx, cfg.Options)
	if err != nil {
		return nil, &LaunchError{Driver: cfg.Driver, Err: err}
	}
	log.Info("browser started",
		zap.String("browser", cfg.Options.Browser),
		zap.Bool("headless", cfg.Options.Headless))

	return &Session{
		id:      id,
		cfg:     cfg,
		driver:  drv,
		logger:  log,
		started: time.Now(),
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// Navigate loads url. Every handle found before the call becomes stale.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.generation++
	s.logger.Debug("navigate", zap.String("url", url))
	if err := s.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Back goes one entry back in history. Every handle becomes stale.
func (s *Session) Back(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.generation++
	if err := s.driver.Back(ctx); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return nil
}

// CurrentURL returns the address of the loaded page.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := s.usable(); err != nil {
		return "", err
	}
	return s.driver.CurrentURL(ctx)
}

// Find returns the first element matching loc, or a *NotFoundError.
func (s *Session) Find(ctx context.Context, loc locator.Locator) (*Element, error) {
	els, err := s.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, &NotFoundError{Locator: loc}
	}
	return els[0], nil
}

// FindAll returns every element matching loc. No match is not an error.
func (s *Session) FindAll(ctx context.Context, loc locator.Locator) ([]*Element, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if loc.IsZero() {
		return nil, fmt.Errorf("%w: zero locator", locator.ErrInvalidLocator)
	}
	found, err := s.driver.FindAll(ctx, loc)
	if err != nil {
		return nil, s.classify(loc, err)
	}
	return s.wrap(loc, found), nil
}

func (s *Session) wrap(loc locator.Locator, found []browser.Element) []*Element {
	els := make([]*Element, len(found))
	for i, f := range found {
		els[i] = &Element{sess: s, el: f, gen: s.generation, loc: loc}
	}
	return els
}

// AcceptDialog runs trigger and accepts the dialog it opens, as needed for
// confirm() prompts guarding destructive actions.
func (s *Session) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := s.driver.AcceptDialog(ctx, trigger); err != nil {
		return fmt.Errorf("failed to accept dialog: %w", err)
	}
	return nil
}

// CaptureScreenshot returns the rendered viewport as PNG bytes.
func (s *Session) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.driver.Screenshot(ctx)
}

// PageSource returns the serialized DOM of the current page.
func (s *Session) PageSource(ctx context.Context) ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.driver.PageSource(ctx)
}

// CaptureEvidence takes a screenshot named name, falling back to the page
// source when the driver cannot render.
func (s *Session) CaptureEvidence(ctx context.Context, name string) (report.Artifact, error) {
	shot, err := s.CaptureScreenshot(ctx)
	if err == nil {
		return report.Artifact{Name: name, Kind: report.Screenshot, Data: shot}, nil
	}
	if !errors.Is(err, browser.ErrUnsupported) {
		return report.Artifact{}, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	src, err := s.PageSource(ctx)
	if err != nil {
		return report.Artifact{}, fmt.Errorf("failed to capture page source: %w", err)
	}
	return report.Artifact{Name: name, Kind: report.PageSource, Data: src}, nil
}

// Quit closes the browser. Only the first call reaches the driver; later
// calls return the same result.
func (s *Session) Quit() error {
	s.quitOnce.Do(func() {
		s.closed = true
		s.quitErr = s.driver.Quit()
		s.logger.Info("browser stopped", zap.Duration("uptime", time.Since(s.started)), zap.Error(s.quitErr))
	})
	return s.quitErr
}

func (s *Session) usable() error {
	if s.closed {
		return browser.ErrClosed
	}
	return nil
}

func (s *Session) classify(loc locator.Locator, err error) error {
	if errors.Is(err, browser.ErrStaleElement) {
		return &StaleElementError{Locator: loc, Err: err}
	}
	return fmt.Errorf("failed to find %s: %w", loc, err)
}
