package wait

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/browser/browsertest"
	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/session"
)

var products = locator.ByCSS(".product-layout")

func startSession(t testing.TB, drv *browsertest.Driver) *session.Session {
	t.Helper()
	s, err := session.Start(context.Background(), session.Config{Driver: "fake"}, drv.Launcher(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Quit() })
	return s
}

// appearsAfter returns a Find hook that matches nothing for the first n lookups.
func appearsAfter(n int32, el *browsertest.Element) func(locator.Locator) ([]browser.Element, error) {
	var calls atomic.Int32
	return func(locator.Locator) ([]browser.Element, error) {
		if calls.Add(1) <= n {
			return nil, nil
		}
		return []browser.Element{el}, nil
	}
}

func TestUntil_SucceedsOncePresent(t *testing.T) {
	// GIVEN
	drv := browsertest.NewDriver()
	drv.Find = appearsAfter(3, &browsertest.Element{Label: "MacBook"})
	s := startSession(t, drv)

	// WHEN
	els, err := Until(context.Background(), s, Spec{Timeout: time.Second, Interval: 5 * time.Millisecond}, AllElementsPresent(products))

	// THEN
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, 4, drv.FindCalls())
}

func TestUntil_TimeoutBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		timeout := time.Duration(rapid.IntRange(10, 40).Draw(rt, "timeoutMs")) * time.Millisecond
		interval := time.Duration(rapid.IntRange(1, 10).Draw(rt, "intervalMs")) * time.Millisecond

		drv := browsertest.NewDriver()
		drv.Find = func(locator.Locator) ([]browser.Element, error) { return nil, nil }
		s := startSession(t, drv)

		start := time.Now()
		_, err := Until(context.Background(), s, Spec{Timeout: timeout, Interval: interval}, AllElementsPresent(products))
		took := time.Since(start)

		var te *TimeoutError
		if !errors.As(err, &te) {
			rt.Fatalf("expected *TimeoutError, got %v", err)
		}
		if te.Elapsed < timeout {
			rt.Fatalf("elapsed %v shorter than timeout %v", te.Elapsed, timeout)
		}
		// Scheduler slack on loaded CI machines.
		if limit := timeout + interval + 30*time.Millisecond; took > limit {
			rt.Fatalf("wait took %v, want <= %v", took, limit)
		}
		if maxCalls := int(timeout/interval) + 2; drv.FindCalls() > maxCalls {
			rt.Fatalf("%d lookups for timeout %v / interval %v, want <= %d", drv.FindCalls(), timeout, interval, maxCalls)
		}
	})
}

func TestUntil_TransientErrorsAreRetried(t *testing.T) {
	// GIVEN
	drv := browsertest.NewDriver()
	var calls atomic.Int32
	drv.Find = func(locator.Locator) ([]browser.Element, error) {
		if calls.Add(1) < 3 {
			return nil, browser.ErrStaleElement
		}
		return []browser.Element{&browsertest.Element{Label: "Canon EOS 5D"}}, nil
	}
	s := startSession(t, drv)

	// WHEN
	el, err := Until(context.Background(), s, Spec{Timeout: time.Second, Interval: time.Millisecond}, ElementVisible(products))

	// THEN
	require.NoError(t, err)
	text, err := el.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Canon EOS 5D", text)
}

func TestUntil_TimeoutKeepsLastError(t *testing.T) {
	drv := browsertest.NewDriver()
	s := startSession(t, drv)

	_, err := Until(context.Background(), s, Spec{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond}, ElementVisible(products))

	require.True(t, IsTimeout(err))
	assert.True(t, errors.Is(err, session.ErrNotFound))
	assert.Contains(t, err.Error(), "visibility of css selector=.product-layout")
}

func TestUntil_FatalErrorStopsImmediately(t *testing.T) {
	drv := browsertest.NewDriver()
	boom := errors.New("browser crashed")
	drv.Find = func(locator.Locator) ([]browser.Element, error) { return nil, boom }
	s := startSession(t, drv)

	start := time.Now()
	_, err := Until(context.Background(), s, Spec{Timeout: time.Second, Interval: 10 * time.Millisecond}, AllElementsPresent(products))

	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 1, drv.FindCalls())
}

func TestUntil_InvalidSpec(t *testing.T) {
	s := startSession(t, browsertest.NewDriver())
	for _, spec := range []Spec{{Timeout: 0, Interval: time.Millisecond}, {Timeout: time.Second, Interval: 0}, {Timeout: -1, Interval: -1}} {
		_, err := Until(context.Background(), s, spec, AllElementsPresent(products))
		assert.True(t, errors.Is(err, ErrInvalidSpec), "spec %+v", spec)
	}
}

func TestUntil_ContextCancelled(t *testing.T) {
	drv := browsertest.NewDriver()
	drv.Find = func(locator.Locator) ([]browser.Element, error) { return nil, nil }
	s := startSession(t, drv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Until(ctx, s, Spec{Timeout: 5 * time.Second, Interval: 5 * time.Millisecond}, AllElementsPresent(products))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnyElementsPresent_SkipsHidden(t *testing.T) {
	hidden := &browsertest.Element{Label: "hidden", Hidden: true}
	shown := &browsertest.Element{Label: "shown"}
	drv := browsertest.NewDriver(&browsertest.Page{
		URL:      "http://shop.test/",
		Elements: map[locator.Locator][]*browsertest.Element{products: {hidden, shown}},
	})
	s := startSession(t, drv)
	require.NoError(t, s.Navigate(context.Background(), "http://shop.test/"))

	p := NewPolicy(s, Spec{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond})
	els, err := p.Any(context.Background(), products)
	require.NoError(t, err)
	require.Len(t, els, 1)
	text, _ := els[0].Text(context.Background())
	assert.Equal(t, "shown", text)

	all, err := p.All(context.Background(), products)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestElementClickable_WaitsForEnabled(t *testing.T) {
	btn := &browsertest.Element{Label: "Save", Disabled: true}
	saveBtn := locator.ByCSS("button[data-bs-original-title='Save']")
	drv := browsertest.NewDriver(&browsertest.Page{
		URL:      "http://shop.test/admin",
		Elements: map[locator.Locator][]*browsertest.Element{saveBtn: {btn}},
	})
	s := startSession(t, drv)
	require.NoError(t, s.Navigate(context.Background(), "http://shop.test/admin"))
	p := NewPolicy(s, Spec{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond})

	_, err := p.Clickable(context.Background(), saveBtn)
	require.True(t, IsTimeout(err))

	btn.Disabled = false
	el, err := p.Clickable(context.Background(), saveBtn)
	require.NoError(t, err)
	assert.NotNil(t, el)
}

func TestTextContains(t *testing.T) {
	msg := locator.ByCSS("#content p")
	drv := browsertest.NewDriver(&browsertest.Page{
		URL: "http://shop.test/pc",
		Elements: map[locator.Locator][]*browsertest.Element{
			msg: {{Label: "There are no products to list in this category."}},
		},
	})
	s := startSession(t, drv)
	require.NoError(t, s.Navigate(context.Background(), "http://shop.test/pc"))
	p := NewPolicy(s, Spec{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond})

	_, err := p.Text(context.Background(), msg, "no products to list")
	assert.NoError(t, err)

	_, err = p.Text(context.Background(), msg, "Canon")
	assert.True(t, IsTimeout(err))
}

func TestElementInvisibleAndAbsent(t *testing.T) {
	modal := locator.ByCSS(".modal")
	drv := browsertest.NewDriver(&browsertest.Page{
		URL:      "http://shop.test/admin",
		Elements: map[locator.Locator][]*browsertest.Element{modal: {{Hidden: true}}},
	})
	s := startSession(t, drv)
	require.NoError(t, s.Navigate(context.Background(), "http://shop.test/admin"))
	p := NewPolicy(s, Spec{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond})

	assert.NoError(t, p.Invisible(context.Background(), modal))
	assert.True(t, IsTimeout(p.Absent(context.Background(), modal)))
	assert.NoError(t, p.Absent(context.Background(), locator.ByLinkText("Mouse A")))
}

func TestElementStable(t *testing.T) {
	// GIVEN a label that changes twice, then settles
	labels := []string{"Loading", "Loading.", "Loaded"}
	var calls atomic.Int32
	drv := browsertest.NewDriver()
	drv.Find = func(locator.Locator) ([]browser.Element, error) {
		i := int(calls.Add(1)) - 1
		if i >= len(labels) {
			i = len(labels) - 1
		}
		return []browser.Element{&browsertest.Element{Label: labels[i]}}, nil
	}
	s := startSession(t, drv)

	// WHEN
	el, err := Until(context.Background(), s, Spec{Timeout: time.Second, Interval: time.Millisecond}, ElementStable(products, 2))

	// THEN the condition needed the settled label on three consecutive polls
	require.NoError(t, err)
	text, _ := el.Text(context.Background())
	assert.Equal(t, "Loaded", text)
	assert.Equal(t, int32(5), calls.Load())
}
