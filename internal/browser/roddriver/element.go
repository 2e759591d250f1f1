package roddriver

import (
	"context"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

type element struct {
	d  *Driver
	el *rod.Element
}

func wrap(d *Driver, els rod.Elements) []browser.Element {
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = &element{d: d, el: el}
	}
	return out
}

func (e *element) bounded(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.d.timeout)
}

func (e *element) FindAll(ctx context.Context, loc locator.Locator) ([]browser.Element, error) {
	if err := e.d.usable(ctx); err != nil {
		return nil, err
	}
	el := e.bounded(ctx)
	var (
		els rod.Elements
		err error
	)
	if xp, ok := xpath(loc, true); ok {
		els, err = el.ElementsX(xp)
	} else {
		els, err = el.Elements(css(loc))
	}
	if err != nil {
		return nil, translate(err)
	}
	return wrap(e.d, els), nil
}

func (e *element) Click(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.bounded(ctx).Click(proto.InputMouseButtonLeft, 1))
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	return translate(e.bounded(ctx).Input(text))
}

func (e *element) Clear(ctx context.Context) error {
	if err := e.d.usable(ctx); err != nil {
		return err
	}
	el := e.bounded(ctx)
	if err := el.SelectAllText(); err != nil {
		return translate(err)
	}
	return translate(el.Input(""))
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.d.usable(ctx); err != nil {
		return "", err
	}
	text, err := e.bounded(ctx).Text()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	ok, err := e.bounded(ctx).Visible()
	return ok, translate(err)
}

func (e *element) Enabled(ctx context.Context) (bool, error) {
	if err := e.d.usable(ctx); err != nil {
		return false, err
	}
	disabled, err := e.bounded(ctx).Disabled()
	return !disabled, translate(err)
}
