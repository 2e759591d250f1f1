package pwdriver

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

type element struct {
	d      *Driver
	handle playwright.ElementHandle
}

func wrap(d *Driver, handles []playwright.ElementHandle) []browser.Element {
	els := make([]browser.Element, len(handles))
	for i, h := range handles {
		els[i] = &element{d: d, handle: h}
	}
	return els
}

func (e *element) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := e.d.usable(ctx); err != nil {
		return nil, err
	}
	handles, err := e.handle.QuerySelectorAll(selector(loc, true))
	if err != nil {
		return nil, translate(err)
	}
	return wrap(e.d, handles), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(e.d.remaining(ctx)),
	}))
}

// Type appends text the way a user would, key by key.
func (e *element) Type(ctx context.Context, text string) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.handle.Type(text, playwright.ElementHandleTypeOptions{
		Timeout: playwright.Float(e.d.remaining(ctx)),
	}))
}

func (e *element) Clear(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.handle.Fill("", playwright.ElementHandleFillOptions{
		Timeout: playwright.Float(e.d.remaining(ctx)),
	}))
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.d.usable(ctx); err != nil {
		return "", err
	}
	text, err := e.handle.InnerText()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	ok, err := e.handle.IsVisible()
	return ok, translate(err)
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	ok, err := e.handle.IsEnabled()
	return ok, translate(err)
}
