package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

// ActionKind is an interaction performed on an element.
type ActionKind int

// Action kinds
const (
	ClickAction ActionKind = iota
	TypeTextAction
	ClearTextAction
)

func (k ActionKind) String() string {
	switch k {
	case ClickAction:
		return "click"
	case TypeTextAction:
		return "type"
	case ClearTextAction:
		return "clear"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is an interaction plus its argument.
type Action struct {
	Kind ActionKind
	Text string
}

// Click returns a click action.
func Click() Action { return Action{Kind: ClickAction} }

// TypeText returns an action appending text to an input.
func TypeText(text string) Action { return Action{Kind: TypeTextAction, Text: text} }

// ClearText returns an action emptying an input.
func ClearText() Action { return Action{Kind: ClearTextAction} }

// Element is a handle to a node on the page the session had loaded when the
// handle was found.
type Element struct {
	sess *Session
	el   browser.Element
	gen  uint64
	loc  locator.Locator
}

// Locator returns the locator the element was found with.
func (e *Element) Locator() locator.Locator { return e.loc }

// Act performs action on el. Staleness is reported, never retried.
func (s *Session) Act(ctx context.Context, el *Element, action Action) error {
	if err := el.live(); err != nil {
		return err
	}
	var err error
	switch action.Kind {
	case ClickAction:
		err = el.el.Click(ctx)
	case TypeTextAction:
		err = el.el.Type(ctx, action.Text)
	case ClearTextAction:
		err = el.el.Clear(ctx)
	default:
		return fmt.Errorf("unknown action %v", action.Kind)
	}
	if err != nil {
		return el.wrapErr(action.Kind.String(), err)
	}
	return nil
}

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error { return e.sess.Act(ctx, e, Click()) }

// Type appends text to the element's value.
func (e *Element) Type(ctx context.Context, text string) error {
	return e.sess.Act(ctx, e, TypeText(text))
}

// Clear empties the element's value.
func (e *Element) Clear(ctx context.Context) error { return e.sess.Act(ctx, e, ClearText()) }

// Text returns the rendered text of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	text, err := e.el.Text(ctx)
	if err != nil {
		return "", e.wrapErr("read text of", err)
	}
	return text, nil
}

// Visible reports whether the element is displayed.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	ok, err := e.el.Visible(ctx)
	if err != nil {
		return false, e.wrapErr("check visibility of", err)
	}
	return ok, nil
}

// Enabled reports whether the element accepts interaction.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	ok, err := e.el.Enabled(ctx)
	if err != nil {
		return false, e.wrapErr("check state of", err)
	}
	return ok, nil
}

// Find returns the first descendant matching loc.
func (e *Element) Find(ctx context.Context, loc locator.Locator) (*Element, error) {
	els, err := e.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, &NotFoundError{Locator: loc}
	}
	return els[0], nil
}

// FindAll returns every descendant matching loc.
func (e *Element) FindAll(ctx context.Context, loc locator.Locator) ([]*Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	found, err := e.el.FindAll(ctx, loc)
	if err != nil {
		return nil, e.wrapErr("search inside", err)
	}
	return e.sess.wrap(loc, found), nil
}

func (e *Element) live() error {
	if err := e.sess.usable(); err != nil {
		return err
	}
	if e.gen != e.sess.generation {
		return &StaleElementError{Locator: e.loc}
	}
	return nil
}

func (e *Element) wrapErr(op string, err error) error {
	if errors.Is(err, browser.ErrStaleElement) {
		return &StaleElementError{Locator: e.loc, Err: err}
	}
	return fmt.Errorf("failed to %s %s: %w", op, e.loc, err)
}
