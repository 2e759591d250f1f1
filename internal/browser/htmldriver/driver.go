// Package htmldriver is a browser.Driver that fetches pages over HTTP and
// queries them with goquery. It runs no JavaScript: links navigate, submit
// buttons submit their form and a few data attributes stand in for scripted
// widgets.
package htmldriver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// DefaultTimeout bounds each request when Options.ImplicitTimeout is zero.
const DefaultTimeout = 30 * time.Second

const userAgent = "shopharness-htmldriver/1.0"

// Driver holds the current document and the navigation history.
type Driver struct {
	client *http.Client
	logger *zap.Logger

	doc     *goquery.Document
	current *url.URL
	history []*url.URL
	// generation increments on every document load.
	generation uint64

	dialogArmed   bool
	dialogHandled bool
	closed        bool
}

// New returns a driver with its own cookie jar.
func New(opts browser.Options, logger *zap.Logger) (*Driver, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	timeout := opts.ImplicitTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithClient(&http.Client{Jar: jar, Timeout: timeout}, logger), nil
}

// NewWithClient returns a driver using client. The client should carry a
// cookie jar for session-based sites.
func NewWithClient(client *http.Client, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{client: client, logger: logger}
}

// Launcher starts HTML drivers.
type Launcher struct {
	Logger *zap.Logger
}

// Launch implements browser.Launcher. Window and binary options have no
// meaning here and are ignored.
func (l Launcher) Launch(_ context.Context, opts browser.Options) (browser.Driver, error) {
	return New(opts, l.Logger)
}

func (d *Driver) usable() error {
	if d.closed {
		return browser.ErrClosed
	}
	return nil
}

func (d *Driver) resolve(raw string) (*url.URL, error) {
	var (
		u   *url.URL
		err error
	)
	if d.current != nil {
		u, err = d.current.Parse(raw)
	} else {
		u, err = url.Parse(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url %q", raw)
	}
	return u, nil
}

func (d *Driver) Navigate(ctx context.Context, raw string) error {
	if err := d.usable(); err != nil {
		return err
	}
	u, err := d.resolve(raw)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return d.load(req, true)
}

// load performs req and replaces the current document with the response,
// following redirects. Error statuses still render, as they do in a browser.
func (d *Driver) load(req *http.Request, record bool) error {
	req.Header.Set("User-Agent", userAgent)
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", resp.Request.URL, err)
	}

	if record && d.current != nil {
		d.history = append(d.history, d.current)
	}
	d.doc = doc
	d.current = resp.Request.URL
	d.generation++
	d.logger.Debug("page loaded",
		zap.String("method", req.Method),
		zap.String("url", d.current.String()),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}

func (d *Driver) FindAll(_ context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if d.doc == nil {
		return nil, nil
	}
	return d.find(d.doc.Selection, loc)
}

func (d *Driver) find(root *goquery.Selection, loc locator.Locator) ([]browser.Element, error) {
	var found *goquery.Selection
	switch loc.Strategy() {
	case locator.ID:
		found = root.Find("[id=" + cssString(loc.Value()) + "]")
	case locator.Name:
		found = root.Find("[name=" + cssString(loc.Value()) + "]")
	case locator.LinkText:
		want := loc.Value()
		found = root.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return normalize(s.Text()) == want
		})
	case locator.CSS:
		sel, err := cascadia.Compile(loc.Value())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", locator.ErrInvalidLocator, err)
		}
		found = root.FindMatcher(sel)
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", locator.ErrInvalidLocator, loc.Strategy())
	}

	out := make([]browser.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{d: d, sel: s, generation: d.generation})
	})
	return out, nil
}

// Back reloads the previous history entry. With no history it does nothing.
func (d *Driver) Back(ctx context.Context) error {
	if err := d.usable(); err != nil {
		return err
	}
	if len(d.history) == 0 {
		return nil
	}
	prev := d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, prev.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return d.load(req, false)
}

func (d *Driver) CurrentURL(context.Context) (string, error) {
	if err := d.usable(); err != nil {
		return "", err
	}
	if d.current == nil {
		return "about:blank", nil
	}
	return d.current.String(), nil
}

// Screenshot is unsupported: nothing is rendered.
func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	return nil, browser.ErrUnsupported
}

func (d *Driver) PageSource(context.Context) ([]byte, error) {
	if err := d.usable(); err != nil {
		return nil, err
	}
	if d.doc == nil {
		return []byte("<html></html>"), nil
	}
	src, err := d.doc.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render page source: %w", err)
	}
	return []byte(src), nil
}

// AcceptDialog arms acceptance for the next click on a data-confirm
// element made by trigger.
func (d *Driver) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	if err := d.usable(); err != nil {
		return err
	}
	d.dialogArmed, d.dialogHandled = true, false
	err := trigger(ctx)
	handled := d.dialogHandled
	d.dialogArmed, d.dialogHandled = false, false
	if err != nil {
		return err
	}
	if !handled {
		return browser.ErrNoDialog
	}
	return nil
}

func (d *Driver) Quit() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.doc = nil
	d.client.CloseIdleConnections()
	return nil
}

// cssString quotes s as a CSS string.
func cssString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// normalize collapses whitespace the way rendered text does.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
