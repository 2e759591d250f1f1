package wddriver

import (
	"context"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

type element struct {
	d  *Driver
	we selenium.WebElement
}

func wrap(d *Driver, els []selenium.WebElement) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, we := range els {
		out[i] = &element{d: d, we: we}
	}
	return out
}

func (e *element) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := e.d.usable(ctx); err != nil {
		return nil, err
	}
	els, err := e.we.FindElements(by(loc), loc.Value())
	if err != nil {
		if isNoSuchElement(err) {
			return nil, nil
		}
		return nil, translate(err)
	}
	return wrap(e.d, els), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.we.Click())
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.we.SendKeys(text))
}

func (e *element) Clear(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.we.Clear())
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.d.usable(ctx); err != nil {
		return "", err
	}
	text, err := e.we.Text()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	ok, err := e.we.IsDisplayed()
	return ok, translate(err)
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	ok, err := e.we.IsEnabled()
	return ok, translate(err)
}
