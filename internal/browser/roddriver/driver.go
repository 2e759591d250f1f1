// Package roddriver is a browser.Driver speaking the Chrome DevTools
// Protocol through go-rod.
package roddriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// DefaultTimeout applies to engine-side actions when Options.ImplicitTimeout is zero.
const DefaultTimeout = 30 * time.Second

const dialogGrace = 2 * time.Second

// Launcher starts a local Chrome, or connects to Options.RemoteURL.
type Launcher struct {
	Logger *zap.Logger
}

// Driver drives one Chrome tab.
type Driver struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	timeout time.Duration
	logger  *zap.Logger
	closed  bool
}

// Launch implements browser.Launcher.
func (l Launcher) Launch(ctx context.Context, opts browser.Options) (browser.Driver, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{timeout: opts.ImplicitTimeout, logger: logger}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if err := d.start(ctx, opts); err != nil {
		_ = d.Quit()
		return nil, err
	}
	return d, nil
}

func (d *Driver) start(ctx context.Context, opts browser.Options) error {
	wsURL := opts.RemoteURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(opts.Headless)
		if opts.BrowserBinaryPath != "" {
			l = l.Bin(opts.BrowserBinaryPath)
		}
		if opts.Window.Maximized {
			l = l.Set("start-maximized")
		} else if opts.Window.Width > 0 && opts.Window.Height > 0 {
			l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.Window.Width, opts.Window.Height))
		}
		if opts.Stealth {
			l = l.Set("disable-blink-features", "AutomationControlled")
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch chrome: %w", err)
		}
		d.lnch = l
		wsURL = u
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	d.browser = b.NoDefaultDevice()

	var err error
	if opts.Stealth {
		d.page, err = stealth.Page(d.browser)
	} else {
		d.page, err = d.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}

	if !opts.Window.Maximized && opts.Window.Width > 0 && opts.Window.Height > 0 {
		err := d.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Window.Width,
			Height:            opts.Window.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to set viewport: %w", err)
		}
	}
	d.logger.Debug("chrome tab ready", zap.String("control_url", wsURL), zap.Bool("stealth", opts.Stealth))
	return nil
}

func (d *Driver) usable(ctx context.Context) error {
	if d.closed {
		return browser.ErrClosed
	}
	return ctx.Err()
}

// bounded returns the page bound to ctx and the implicit timeout.
func (d *Driver) bounded(ctx context.Context) *rod.Page {
	return d.page.Context(ctx).Timeout(d.timeout)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	p := d.bounded(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *Driver) Back(ctx context.Context) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	p := d.bounded(ctx)
	if err := p.NavigateBack(); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := d.usable(ctx); err != nil {
		return "", err
	}
	info, err := d.bounded(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *Driver) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	p := d.bounded(ctx)
	var (
		els rod.Elements
		err error
	)
	if xp, ok := xpath(loc, false); ok {
		els, err = p.ElementsX(xp)
	} else {
		els, err = p.Elements(css(loc))
	}
	if err != nil {
		return nil, translate(err)
	}
	return wrap(d, els), nil
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	return d.bounded(ctx).Screenshot(false, nil)
}

func (d *Driver) PageSource(ctx context.Context) ([]byte, error) {
	if err := d.usable(ctx); err != nil {
		return nil, err
	}
	html, err := d.bounded(ctx).HTML()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// AcceptDialog runs trigger in the background because CDP input events do
// not return while a dialog is open.
func (d *Driver) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	if err := d.usable(ctx); err != nil {
		return err
	}
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wait, handle := d.page.Context(waitCtx).HandleDialog()

	opened := make(chan *proto.PageJavascriptDialogOpening, 1)
	go func() { opened <- wait() }()
	triggered := make(chan error, 1)
	go func() { triggered <- trigger(ctx) }()

	accept := func(e *proto.PageJavascriptDialogOpening) error {
		if waitCtx.Err() != nil || e == nil || e.Type == "" {
			return browser.ErrNoDialog
		}
		d.logger.Debug("dialog", zap.String("type", string(e.Type)), zap.String("message", e.Message))
		return handle(&proto.PageHandleJavaScriptDialog{Accept: true})
	}

	select {
	case e := <-opened:
		if err := accept(e); err != nil {
			return err
		}
		return <-triggered
	case err := <-triggered:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	grace := time.NewTimer(dialogGrace)
	defer grace.Stop()
	select {
	case e := <-opened:
		return accept(e)
	case <-grace.C:
		return browser.ErrNoDialog
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Quit closes the tab and the browser, and kills Chrome when it was
// launched here.
func (d *Driver) Quit() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	if d.page != nil {
		errs = append(errs, d.page.Close())
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
	}
	if d.lnch != nil {
		d.lnch.Kill()
		d.lnch.Cleanup()
	}
	return errors.Join(errs...)
}

// xpath returns the XPath for strategies CSS cannot express.
func xpath(loc locator.Locator, scoped bool) (string, bool) {
	if loc.Strategy() != locator.LinkText {
		return "", false
	}
	prefix := "//"
	if scoped {
		prefix = ".//"
	}
	return prefix + "a[normalize-space(.)=" + locator.XPathLiteral(loc.Value()) + "]", true
}

func css(loc locator.Locator) string {
	switch loc.Strategy() {
	case locator.ID:
		return `[id="` + cssEscape(loc.Value()) + `"]`
	case locator.Name:
		return `[name="` + cssEscape(loc.Value()) + `"]`
	default:
		return loc.Value()
	}
}

func cssEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// translate maps detached-node failures onto browser.ErrStaleElement.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var notFound *rod.ObjectNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "Could not find node") || strings.Contains(msg, "Node is detached") ||
		strings.Contains(msg, "Cannot find context with specified id") {
		return fmt.Errorf("%w: %v", browser.ErrStaleElement, err)
	}
	return err
}
