// Package wddriver is a browser.Driver speaking the W3C WebDriver protocol
// through tebeka/selenium. It starts geckodriver or chromedriver itself, or
// attaches to a running WebDriver server.
package wddriver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// DefaultPageLoadTimeout applies when Options.ImplicitTimeout is zero.
const DefaultPageLoadTimeout = 30 * time.Second

const (
	dialogGrace = 2 * time.Second
	alertPoll   = 50 * time.Millisecond
)

// Launcher starts a WebDriver service per driver. Browser selects firefox
// (default) or chrome.
type Launcher struct {
	Logger *zap.Logger
}

// Driver is one WebDriver session.
type Driver struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *zap.Logger
	closed  bool
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

	d := &Driver{logger: logger}
	if err := d.start(opts); err != nil {
		_ = d.Quit()
		return nil, err
	}
	return d, nil
}

func (d *Driver) start(opts browser.Options) error {
	product := strings.ToLower(opts.Browser)
	caps := selenium.Capabilities{}
	switch product {
	case "", "firefox":
		product = "firefox"
		caps["browserName"] = "firefox"
		fc := firefox.Capabilities{Binary: opts.BrowserBinaryPath}
		if opts.Headless {
			fc.Args = append(fc.Args, "-headless")
		}
		caps.AddFirefox(fc)
	case "chrome", "chromium":
		product = "chrome"
		caps["browserName"] = "chrome"
		cc := chrome.Capabilities{Path: opts.BrowserBinaryPath}
		if opts.Headless {
			cc.Args = append(cc.Args, "--headless=new")
		}
		caps.AddChrome(cc)
	default:
		return fmt.Errorf("unknown webdriver browser %q", opts.Browser)
	}

	urlPrefix := opts.RemoteURL
	if urlPrefix == "" {
		if opts.DriverBinaryPath == "" {
			return errors.New("a driver binary path is required to start a local WebDriver service")
		}
		port, err := freePort()
		if err != nil {
			return fmt.Errorf("failed to pick a WebDriver port: %w", err)
		}
		if product == "firefox" {
			d.service, err = selenium.NewGeckoDriverService(opts.DriverBinaryPath, port)
			urlPrefix = fmt.Sprintf("http://127.0.0.1:%d", port)
		} else {
			d.service, err = selenium.NewChromeDriverService(opts.DriverBinaryPath, port)
			urlPrefix = fmt.Sprintf("http://127.0.0.1:%d/wd/hub", port)
		}
		if err != nil {
			return fmt.Errorf("failed to start %s: %w", opts.DriverBinaryPath, err)
		}
	}

	wd, err := selenium.NewRemote(caps, urlPrefix)
	if err != nil {
		return fmt.Errorf("failed to open WebDriver session: %w", err)
	}
	d.wd = wd

	// Element lookups stay immediate so the explicit waits own all polling.
	if err := wd.SetImplicitWaitTimeout(0); err != nil {
		return fmt.Errorf("failed to set implicit wait: %w", err)
	}
	pageLoad := opts.ImplicitTimeout
	if pageLoad <= 0 {
		pageLoad = DefaultPageLoadTimeout
	}
	if err := wd.SetPageLoadTimeout(pageLoad); err != nil {
		return fmt.Errorf("failed to set page load timeout: %w", err)
	}

	switch {
	case opts.Window.Maximized:
		err = wd.MaximizeWindow("")
	case opts.Window.Width > 0 && opts.Window.Height > 0:
		err = wd.ResizeWindow("", opts.Window.Width, opts.Window.Height)
	}
	if err != nil {
		return fmt.Errorf("failed to size window: %w", err)
	}
	d.logger.Debug("webdriver session ready", zap.String("browser", product), zap.String("url", urlPrefix))
	return nil
}

// freePort asks the kernel for an unused TCP port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func (d *Driver) usable(ctx context.Context) error {
	if d.closed {
		return browser.ErrClosed
	}
	return ctx.Err()
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	return d.wd.Get(url)
}

func (d *Driver) Back(ctx context.Context) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	return d.wd.Back()
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := d.usable(ctx); err != nil {
		return "", err
	}
	return d.wd.CurrentURL()
}

func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	els, err := d.wd.FindElements(by(loc), loc.Value())
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return wrap(d, els), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	return d.wd.Screenshot()
}

func (d *Driver) PageSource(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	src, err := d.wd.PageSource()
	if err != nil {
		return nil, err
	}
	return []byte(src), nil
}

// AcceptDialog runs trigger, then accepts the alert it opened. WebDriver
// reports "no such alert" until the dialog shows, so acceptance is retried
// for a short grace period.
func (d *Driver) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	if err := trigger(ctx); err != nil {
		return err
	}

	deadline := time.Now().Add(dialogGrace)
	for {
		err := d.wd.AcceptAlert()
		if err == nil {
			return nil
		}
		if !isNoSuchAlert(err) {
			return fmt.Errorf("failed to accept dialog: %w", err)
		}
		if time.Now().After(deadline) {
			return browser.ErrNoDialog
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(alertPoll):
		}
	}
}

// Quit ends the WebDriver session and stops the service started for it.
func (d *Driver) Quit() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.wd != nil {
		errs = append(errs, d.wd.Quit())
	}
	if d.service != nil {
		errs = append(errs, d.service.Stop())
	}
	return errors.Join(errs...)
}

func by(loc locator.Locator) string {
	switch loc.Strategy() {
	case locator.ID:
		return selenium.ByID
	case locator.Name:
		return selenium.ByName
	case locator.LinkText:
		return selenium.ByLinkText
	default:
		return selenium.ByCSSSelector
	}
}

func errCode(err error) string {
	var wdErr *selenium.Error
	if errors.As(err, &wdErr) {
		return wdErr.Err
	}
	return ""
}

func isNoSuchElement(err error) bool { return errCode(err) == "no such element" }

func isNoSuchAlert(err error) bool { return errCode(err) == "no such alert" }

// translate maps WebDriver error codes onto browser errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errCode(err) == "stale element reference" {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}
