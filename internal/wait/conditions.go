package wait

import (
	"context"
	"fmt"
	"strings"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/session"
)

// ElementVisible holds once the first element matching loc is displayed.
func ElementVisible(loc locator.Locator) Condition[*session.Element] {
	return Condition[*session.Element]{
		Name: "visibility of " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) (*session.Element, bool, error) {
			el, err := s.Find(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			ok, err := el.Visible(ctx)
			return el, ok, err
		},
	}
}

// ElementClickable holds once the first element matching loc is displayed
// and enabled.
func ElementClickable(loc locator.Locator) Condition[*session.Element] {
	return Condition[*session.Element]{
		Name: "clickability of " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) (*session.Element, bool, error) {
			el, err := s.Find(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			if ok, err := el.Visible(ctx); err != nil || !ok {
				return nil, false, err
			}
			ok, err := el.Enabled(ctx)
			return el, ok, err
		},
	}
}

// AllElementsPresent holds once at least one element matches loc and yields
// every match, displayed or not.
func AllElementsPresent(loc locator.Locator) Condition[[]*session.Element] {
	return Condition[[]*session.Element]{
		Name: "presence of all " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) ([]*session.Element, bool, error) {
			els, err := s.FindAll(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			return els, len(els) > 0, nil
		},
	}
}

// AnyElementsPresent holds once at least one match is displayed and yields
// the displayed matches only.
func AnyElementsPresent(loc locator.Locator) Condition[[]*session.Element] {
	return Condition[[]*session.Element]{
		Name: "visibility of any " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) ([]*session.Element, bool, error) {
			els, err := s.FindAll(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			visible := make([]*session.Element, 0, len(els))
			for _, el := range els {
				ok, err := el.Visible(ctx)
				if err != nil {
					return nil, false, err
				}
				if ok {
					visible = append(visible, el)
				}
			}
			return visible, len(visible) > 0, nil
		},
	}
}

// TextContains holds once the first match's text contains text.
func TextContains(loc locator.Locator, text string) Condition[*session.Element] {
	return Condition[*session.Element]{
		Name: fmt.Sprintf("text %q in %s", text, loc),
		Check: func(ctx context.Context, s *session.Session) (*session.Element, bool, error) {
			el, err := s.Find(ctx, loc)
			if err != nil {
				return nil, false, err
			}
			got, err := el.Text(ctx)
			if err != nil {
				return nil, false, err
			}
			return el, strings.Contains(got, text), nil
		},
	}
}

// ElementInvisible holds once nothing matching loc is displayed, including
// when nothing matches at all.
func ElementInvisible(loc locator.Locator) Condition[struct{}] {
	return Condition[struct{}]{
		Name: "invisibility of " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) (struct{}, bool, error) {
			els, err := s.FindAll(ctx, loc)
			if err != nil {
				return struct{}{}, false, err
			}
			for _, el := range els {
				ok, err := el.Visible(ctx)
				if err != nil {
					return struct{}{}, false, err
				}
				if ok {
					return struct{}{}, false, nil
				}
			}
			return struct{}{}, true, nil
		},
	}
}

// ElementsAbsent holds once loc matches nothing.
func ElementsAbsent(loc locator.Locator) Condition[struct{}] {
	return Condition[struct{}]{
		Name: "absence of " + loc.String(),
		Check: func(ctx context.Context, s *session.Session) (struct{}, bool, error) {
			els, err := s.FindAll(ctx, loc)
			if err != nil {
				return struct{}{}, false, err
			}
			return struct{}{}, len(els) == 0, nil
		},
	}
}

// ElementStable holds once the first match has kept the same text and
// visibility for polls consecutive evaluations. It replaces fixed sleeps
// around animations and re-renders.
//
// The returned condition carries state: build a new one for every wait.
func ElementStable(loc locator.Locator, polls int) Condition[*session.Element] {
	if polls < 1 {
		polls = 1
	}
	var (
		last   string
		seen   bool
		streak int
	)
	return Condition[*session.Element]{
		Name: fmt.Sprintf("stability of %s for %d polls", loc, polls),
		Check: func(ctx context.Context, s *session.Session) (*session.Element, bool, error) {
			el, err := s.Find(ctx, loc)
			if err != nil {
				seen, streak = false, 0
				return nil, false, err
			}
			text, err := el.Text(ctx)
			if err != nil {
				seen, streak = false, 0
				return nil, false, err
			}
			vis, err := el.Visible(ctx)
			if err != nil {
				seen, streak = false, 0
				return nil, false, err
			}
			state := fmt.Sprintf("%t|%s", vis, text)
			if seen && state == last {
				streak++
			} else {
				last, seen, streak = state, true, 0
			}
			return el, streak >= polls, nil
		},
	}
}
