// Package pwdriver is a browser.Driver backed by playwright-go.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// DefaultTimeout applies to engine-side actions when Options.ImplicitTimeout is zero.
const DefaultTimeout = 30 * time.Second

// dialogGrace is how long AcceptDialog waits for a dialog after the trigger returns.
const dialogGrace = 2 * time.Second

// Launcher starts playwright browsers. Browser selects chromium (default),
// firefox or webkit.
type Launcher struct {
	Logger *zap.Logger
}

// Driver drives one page in its own browser context.
type Driver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
	logger  *zap.Logger

	mu            sync.Mutex
	dialogArmed   bool
	dialogHandled bool
	closed        bool
}

// Launch implements browser.Launcher.
func (l Launcher) Launch(ctx context.Context, opts browser.Options) (browser.Driver, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var runOpts []*playwright.RunOptions
	if opts.DriverBinaryPath != "" {
		runOpts = append(runOpts, &playwright.RunOptions{DriverDirectory: opts.DriverBinaryPath})
	}
	pw, err := playwright.Run(runOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	d := &Driver{pw: pw, timeout: opts.ImplicitTimeout, logger: logger}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if err := d.start(opts); err != nil {
		_ = d.Quit()
		return nil, err
	}
	return d, nil
}

func (d *Driver) browserType(name string) (playwright.BrowserType, error) {
	switch strings.ToLower(name) {
	case "", "chromium", "chrome":
		return d.pw.Chromium, nil
	case "firefox":
		return d.pw.Firefox, nil
	case "webkit":
		return d.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("unknown playwright browser %q", name)
	}
}

func (d *Driver) start(opts browser.Options) error {
	bt, err := d.browserType(opts.Browser)
	if err != nil {
		return err
	}

	if opts.RemoteURL != "" {
		d.browser, err = bt.Connect(opts.RemoteURL)
	} else {
		launch := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Timeout:  playwright.Float(ms(d.timeout)),
		}
		if opts.BrowserBinaryPath != "" {
			launch.ExecutablePath = playwright.String(opts.BrowserBinaryPath)
		}
		if opts.Window.Maximized && bt == d.pw.Chromium {
			launch.Args = []string{"--start-maximized"}
		}
		d.browser, err = bt.Launch(launch)
	}
	if err != nil {
		return fmt.Errorf("failed to launch %s: %w", bt.Name(), err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.Window.Maximized {
		ctxOpts.NoViewport = playwright.Bool(true)
	} else if opts.Window.Width > 0 && opts.Window.Height > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.Window.Width, Height: opts.Window.Height}
	}
	d.bctx, err = d.browser.NewContext(ctxOpts)
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	d.bctx.SetDefaultTimeout(ms(d.timeout))

	d.page, err = d.bctx.NewPage()
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	d.page.OnDialog(d.handleDialog)
	d.logger.Debug("playwright page ready", zap.String("browser", bt.Name()), zap.Bool("headless", opts.Headless))
	return nil
}

// handleDialog accepts a dialog while AcceptDialog is running and dismisses
// any other.
func (d *Driver) handleDialog(dialog playwright.Dialog) {
	d.mu.Lock()
	armed := d.dialogArmed
	if armed {
		d.dialogHandled = true
	}
	d.mu.Unlock()

	var err error
	if armed {
		err = dialog.Accept()
	} else {
		err = dialog.Dismiss()
	}
	d.logger.Debug("dialog", zap.String("type", dialog.Type()), zap.String("message", dialog.Message()),
		zap.Bool("accepted", armed), zap.Error(err))
}

func ms(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

// remaining bounds an engine call by the context deadline.
func (d *Driver) remaining(ctx context.Context) float64 {
	t := d.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < t {
			t = max(left, time.Millisecond)
		}
	}
	return ms(t)
}

func (d *Driver) usable(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return browser.ErrClosed
	}
	return ctx.Err()
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(d.remaining(ctx)),
	})
	return err
}

func (d *Driver) Back(ctx context.Context) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	_, err := d.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(d.remaining(ctx)),
	})
	return err
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := d.usable(ctx); err != nil {
		return "", err
	}
	return d.page.URL(), nil
}

func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	handles, err := d.page.QuerySelectorAll(selector(loc, false))
	if err != nil {
		return nil, translate(err)
	}
	return wrap(d, handles), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	return d.page.Screenshot(playwright.PageScreenshotOptions{
		Timeout: playwright.Float(d.remaining(ctx)),
	})
}

func (d *Driver) PageSource(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	html, err := d.page.Content()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

func (d *Driver) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	d.setDialog(true, false)
	defer d.setDialog(false, false)

	if err := trigger(ctx); err != nil {
		return err
	}

	deadline := time.NewTimer(dialogGrace)
	defer deadline.Stop()
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		if d.handled() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return browser.ErrNoDialog
		case <-tick.C:
		}
	}
}

func (d *Driver) setDialog(armed, handled bool) {
	d.mu.Lock()
	d.dialogArmed = armed
	d.dialogHandled = handled
	d.mu.Unlock()
}

func (d *Driver) handled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialogHandled
}

// Quit closes the page, the browser and the playwright driver process.
func (d *Driver) Quit() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	var errs []error
	if d.bctx != nil {
		errs = append(errs, d.bctx.Close())
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
	}
	return errors.Join(errs...)
}

// selector turns loc into a playwright selector. Scoped selectors search
// below an element.
func selector(loc locator.Locator, scoped bool) string {
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	switch loc.Strategy() {
	case locator.ID:
		return "css=[id=" + strconv.Quote(loc.Value()) + "]"
	case locator.Name:
		return "css=[name=" + strconv.Quote(loc.Value()) + "]"
	case locator.LinkText:
		return "xpath=" + prefix + "a[normalize-space(.)=" + locator.XPathLiteral(loc.Value()) + "]"
	default:
		return "css=" + loc.Value()
	}
}

// translate maps playwright errors onto browser errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "not attached to the DOM") || strings.Contains(msg, "Element is not attached") ||
		strings.Contains(msg, "JSHandle is disposed") {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}
