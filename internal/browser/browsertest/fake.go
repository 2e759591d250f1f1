// Package browsertest provides a scripted in-memory Driver for unit tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// Page is a scripted document: the elements each locator resolves to.
type Page struct {
	URL      string
	Elements map[locator.Locator][]*Element
}

// Element is a scripted node.
type Element struct {
	Label    string
	Hidden   bool
	Disabled bool
	Children map[locator.Locator][]*Element
	// OnClick runs when the element is clicked. It may navigate the driver.
	OnClick func(d *Driver) error
	// Confirm makes a click a no-op unless a dialog acceptance is armed.
	Confirm bool

	mu       sync.Mutex
	typed    strings.Builder
	clicks   int
	detached bool
	drv      *Driver
}

// Driver is a browser.Driver over scripted pages. It is safe for use by a
// single session; the mutex only protects counters read from tests.
type Driver struct {
	Pages map[string]*Page
	// Find, when set, replaces locator lookup on the current page.
	Find func(loc locator.Locator) ([]browser.Element, error)
	// Shot is returned by Screenshot; nil means ErrUnsupported.
	Shot []byte

	mu          sync.Mutex
	current     *Page
	history     []string
	findCalls   int
	quitCalls   int
	dialogArmed bool
	closed      bool
}

// NewDriver returns a driver serving pages.
func NewDriver(pages ...*Page) *Driver {
	d := &Driver{Pages: make(map[string]*Page)}
	for _, p := range pages {
		d.Pages[p.URL] = p
	}
	return d
}

// Launcher returns a launcher handing out d.
func (d *Driver) Launcher() browser.Launcher {
	return browser.LauncherFunc(func(context.Context, browser.Options) (browser.Driver, error) {
		return d, nil
	})
}

func (d *Driver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return browser.ErrClosed
	}
	p, ok := d.Pages[url]
	if !ok {
		return fmt.Errorf("browsertest: no page for %s", url)
	}
	d.detachLocked()
	d.current = p
	d.history = append(d.history, url)
	return nil
}

func (d *Driver) detachLocked() {
	if d.current == nil {
		return
	}
	for _, els := range d.current.Elements {
		for _, el := range els {
			el.detach()
		}
	}
}

func (d *Driver) FindAll(_ context.Context, loc locator.Locator) ([]browser.Element, error) {
	d.mu.Lock()
	d.findCalls++
	find := d.Find
	cur := d.current
	d.mu.Unlock()

	if find != nil {
		return find(loc)
	}
	if cur == nil {
		return nil, nil
	}
	return d.wrap(cur.Elements[loc]), nil
}

func (d *Driver) wrap(els []*Element) []browser.Element {
	out := make([]browser.Element, 0, len(els))
	for _, el := range els {
		el.drv = d
		out = append(out, el)
	}
	return out
}

func (d *Driver) Back(ctx context.Context) error {
	d.mu.Lock()
	if len(d.history) < 2 {
		d.mu.Unlock()
		return nil
	}
	prev := d.history[len(d.history)-2]
	d.history = d.history[:len(d.history)-2]
	d.mu.Unlock()
	return d.Navigate(ctx, prev)
}

func (d *Driver) CurrentURL(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return "about:blank", nil
	}
	return d.current.URL, nil
}

func (d *Driver) Screenshot(context.Context) ([]byte, error) {
	if d.Shot == nil {
		return nil, browser.ErrUnsupported
	}
	return d.Shot, nil
}

func (d *Driver) PageSource(context.Context) ([]byte, error) {
	url, _ := d.CurrentURL(context.Background())
	return []byte("<html><!-- " + url + " --></html>"), nil
}

func (d *Driver) AcceptDialog(ctx context.Context, trigger func(context.Context) error) error {
	d.mu.Lock()
	d.dialogArmed = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.dialogArmed = false
		d.mu.Unlock()
	}()
	return trigger(ctx)
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quitCalls++
	d.closed = true
	return nil
}

// FindCalls returns how many lookups hit the driver.
func (d *Driver) FindCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findCalls
}

// QuitCalls returns how many times Quit reached the driver.
func (d *Driver) QuitCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quitCalls
}

func (e *Element) detach() {
	e.mu.Lock()
	e.detached = true
	e.mu.Unlock()
	for _, kids := range e.Children {
		for _, k := range kids {
			k.detach()
		}
	}
}

func (e *Element) check() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return browser.ErrStaleElement
	}
	return nil
}

func (e *Element) FindAll(_ context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	return e.drv.wrap(e.Children[loc]), nil
}

func (e *Element) Click(context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	if e.Confirm {
		e.drv.mu.Lock()
		armed := e.drv.dialogArmed
		e.drv.mu.Unlock()
		if !armed {
			return nil
		}
	}
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	if e.OnClick != nil {
		return e.OnClick(e.drv)
	}
	return nil
}

func (e *Element) Type(_ context.Context, text string) error {
	if err := e.check(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed.WriteString(text)
	return nil
}

func (e *Element) Clear(context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed.Reset()
	return nil
}

func (e *Element) Text(context.Context) (string, error) {
	if err := e.check(); err != nil {
		return "", err
	}
	return e.Label, nil
}

func (e *Element) Visible(context.Context) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	return !e.Hidden, nil
}

func (e *Element) Enabled(context.Context) (bool, error) {
	if err := e.check(); err != nil {
		return false, err
	}
	return !e.Disabled, nil
}

// Clicks returns how many clicks reached the element.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Typed returns the text typed into the element since the last Clear.
func (e *Element) Typed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typed.String()
}
