// Package locator describes how to find elements on a rendered page.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy is the lookup mechanism a driver uses to resolve a Locator.
type Strategy string

// Supported strategies
const (
	ID       Strategy = "id"
	Name     Strategy = "name"
	LinkText Strategy = "link text"
	CSS      Strategy = "css selector"
)

// ErrInvalidLocator is returned when a locator cannot be constructed.
var ErrInvalidLocator = errors.New("invalid locator")

// Locator is an immutable (strategy, value) pair. Two locators are equal
// when both fields are equal, so they can be compared with ==.
type Locator struct {
	strategy Strategy
	value    string
}

// New validates and returns a Locator.
func New(strategy Strategy, value string) (Locator, error) {
	switch strategy {
	case ID, Name, LinkText, CSS:
	default:
		return Locator{}, fmt.Errorf("%w: unknown strategy %q", ErrInvalidLocator, strategy)
	}
	if strings.TrimSpace(value) == "" {
		return Locator{}, fmt.Errorf("%w: empty %s value", ErrInvalidLocator, strategy)
	}
	return Locator{strategy: strategy, value: value}, nil
}

// MustNew is New for selectors known at compile time. It panics on error.
func MustNew(strategy Strategy, value string) Locator {
	l, err := New(strategy, value)
	if err != nil {
		panic(err)
	}
	return l
}

// ByID locates by element id.
func ByID(id string) Locator { return MustNew(ID, id) }

// ByName locates by the name attribute.
func ByName(name string) Locator { return MustNew(Name, name) }

// ByLinkText locates anchors whose visible text equals text.
func ByLinkText(text string) Locator { return MustNew(LinkText, text) }

// ByCSS locates by CSS selector.
func ByCSS(selector string) Locator { return MustNew(CSS, selector) }

// Strategy returns the lookup strategy.
func (l Locator) Strategy() Strategy { return l.strategy }

// Value returns the selector string.
func (l Locator) Value() string { return l.value }

// IsZero reports whether l is the zero Locator, which never comes out of New.
func (l Locator) IsZero() bool { return l.strategy == "" }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.strategy, l.value)
}

// XPathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so values holding both quote kinds are split with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
