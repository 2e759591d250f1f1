package wait

import (
	"context"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/session"
)

// Policy binds a session to a default Spec so page objects can write
// p.Clickable(ctx, loc) instead of spelling out Until each time.
type Policy struct {
	Session *session.Session
	Spec    Spec
}

// NewPolicy returns a policy for s.
func NewPolicy(s *session.Session, spec Spec) Policy {
	return Policy{Session: s, Spec: spec}
}

// Clickable waits for ElementClickable.
func (p Policy) Clickable(ctx context.Context, loc locator.Locator) (*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, ElementClickable(loc))
}

// Visible waits for ElementVisible.
func (p Policy) Visible(ctx context.Context, loc locator.Locator) (*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, ElementVisible(loc))
}

// All waits for AllElementsPresent.
func (p Policy) All(ctx context.Context, loc locator.Locator) ([]*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, AllElementsPresent(loc))
}

// Any waits for AnyElementsPresent.
func (p Policy) Any(ctx context.Context, loc locator.Locator) ([]*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, AnyElementsPresent(loc))
}

// Text waits for TextContains.
func (p Policy) Text(ctx context.Context, loc locator.Locator, text string) (*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, TextContains(loc, text))
}

// Invisible waits for ElementInvisible.
func (p Policy) Invisible(ctx context.Context, loc locator.Locator) error {
	_, err := Until(ctx, p.Session, p.Spec, ElementInvisible(loc))
	return err
}

// Absent waits for ElementsAbsent.
func (p Policy) Absent(ctx context.Context, loc locator.Locator) error {
	_, err := Until(ctx, p.Session, p.Spec, ElementsAbsent(loc))
	return err
}

// Stable waits for ElementStable with a fresh condition.
func (p Policy) Stable(ctx context.Context, loc locator.Locator, polls int) (*session.Element, error) {
	return Until(ctx, p.Session, p.Spec, ElementStable(loc, polls))
}
