package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/browser/browsertest"
	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
)

const (
	homeURL    = "http://shop.test/"
	cameraURL  = "http://shop.test/index.php?route=product/category&path=33"
	productURL = "http://shop.test/index.php?route=product/product&product_id=30"
)

var (
	cards     = locator.ByCSS(".product-layout")
	cardTitle = locator.ByCSS("h4 a")
	searchBox = locator.ByName("search")
)

func shop() *browsertest.Driver {
	return browsertest.NewDriver(
		&browsertest.Page{
			URL: homeURL,
			Elements: map[locator.Locator][]*browsertest.Element{
				searchBox: {{}},
			},
		},
		&browsertest.Page{
			URL: cameraURL,
			Elements: map[locator.Locator][]*browsertest.Element{
				cards: {
					{Children: map[locator.Locator][]*browsertest.Element{cardTitle: {{Label: "Canon EOS 5D"}}}},
					{Children: map[locator.Locator][]*browsertest.Element{cardTitle: {{Label: "Nikon D300"}}}},
				},
			},
		},
		&browsertest.Page{URL: productURL},
	)
}

func start(t *testing.T, drv *browsertest.Driver) *Session {
	t.Helper()
	s, err := Start(context.Background(), Config{Driver: "fake"}, drv.Launcher(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Quit() })
	return s
}

func TestStart_LaunchFailure(t *testing.T) {
	boom := errors.New("geckodriver not found")
	launcher := browser.LauncherFunc(func(context.Context, browser.Options) (browser.Driver, error) {
		return nil, boom
	})

	s, err := Start(context.Background(), Config{Driver: "selenium"}, launcher, nil)

	require.Nil(t, s)
	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "selenium", le.Driver)
	assert.ErrorIs(t, err, boom)
}

func TestStart_NoLauncher(t *testing.T) {
	_, err := Start(context.Background(), Config{Driver: "rod"}, nil, nil)
	var le *LaunchError
	assert.ErrorAs(t, err, &le)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s := start(t, shop())
	require.NoError(t, s.Navigate(ctx, cameraURL))

	t.Run("first match", func(t *testing.T) {
		card, err := s.Find(ctx, cards)
		require.NoError(t, err)
		title, err := card.Find(ctx, cardTitle)
		require.NoError(t, err)
		text, err := title.Text(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Canon EOS 5D", text)
		assert.Equal(t, cardTitle, title.Locator())
	})

	t.Run("all matches", func(t *testing.T) {
		els, err := s.FindAll(ctx, cards)
		require.NoError(t, err)
		assert.Len(t, els, 2)
	})

	t.Run("no match is empty for FindAll", func(t *testing.T) {
		els, err := s.FindAll(ctx, searchBox)
		require.NoError(t, err)
		assert.Empty(t, els)
	})

	t.Run("no match is NotFound for Find", func(t *testing.T) {
		_, err := s.Find(ctx, searchBox)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, IsTransient(err))
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, searchBox, nf.Locator)
	})

	t.Run("zero locator", func(t *testing.T) {
		_, err := s.FindAll(ctx, locator.Locator{})
		assert.ErrorIs(t, err, locator.ErrInvalidLocator)
	})

	t.Run("scoped miss", func(t *testing.T) {
		card, err := s.Find(ctx, cards)
		require.NoError(t, err)
		_, err = card.Find(ctx, searchBox)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestElement_StaleAfterNavigate(t *testing.T) {
	ctx := context.Background()
	drv := shop()
	s := start(t, drv)
	require.NoError(t, s.Navigate(ctx, cameraURL))
	card, err := s.Find(ctx, cards)
	require.NoError(t, err)

	// WHEN the session moves on
	require.NoError(t, s.Navigate(ctx, productURL))

	// THEN the old handle is stale without the driver being asked
	calls := drv.FindCalls()
	_, err = card.Find(ctx, cardTitle)
	var stale *StaleElementError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, cards, stale.Locator)
	assert.Equal(t, calls, drv.FindCalls())
	assert.ErrorAs(t, card.Click(ctx), &stale)
	_, err = card.Text(ctx)
	assert.ErrorAs(t, err, &stale)
	assert.True(t, IsTransient(err))
}

func TestElement_StaleAfterBack(t *testing.T) {
	ctx := context.Background()
	s := start(t, shop())
	require.NoError(t, s.Navigate(ctx, homeURL))
	require.NoError(t, s.Navigate(ctx, cameraURL))
	card, err := s.Find(ctx, cards)
	require.NoError(t, err)

	require.NoError(t, s.Back(ctx))

	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, homeURL, url)
	_, err = card.Visible(ctx)
	var stale *StaleElementError
	assert.ErrorAs(t, err, &stale)
}

func TestElement_DriverStalenessIsClassified(t *testing.T) {
	ctx := context.Background()
	drv := shop()
	drv.Find = func(locator.Locator) ([]browser.Element, error) {
		return nil, browser.ErrStaleElement
	}
	s := start(t, drv)

	_, err := s.FindAll(ctx, cards)

	var stale *StaleElementError
	require.ErrorAs(t, err, &stale)
	assert.ErrorIs(t, err, browser.ErrStaleElement)
}

func TestAct(t *testing.T) {
	ctx := context.Background()
	box := &browsertest.Element{}
	drv := browsertest.NewDriver(&browsertest.Page{
		URL:      homeURL,
		Elements: map[locator.Locator][]*browsertest.Element{searchBox: {box}},
	})
	s := start(t, drv)
	require.NoError(t, s.Navigate(ctx, homeURL))
	el, err := s.Find(ctx, searchBox)
	require.NoError(t, err)

	require.NoError(t, s.Act(ctx, el, TypeText("Mouse")))
	require.NoError(t, el.Type(ctx, " A"))
	assert.Equal(t, "Mouse A", box.Typed())

	require.NoError(t, el.Clear(ctx))
	assert.Empty(t, box.Typed())

	require.NoError(t, el.Click(ctx))
	assert.Equal(t, 1, box.Clicks())

	err = s.Act(ctx, el, Action{Kind: ActionKind(42)})
	assert.Error(t, err)
	assert.Equal(t, "action(42)", ActionKind(42).String())
}

func TestAcceptDialog(t *testing.T) {
	ctx := context.Background()
	deleteBtn := locator.ByCSS("button[data-bs-original-title='Delete']")
	btn := &browsertest.Element{Confirm: true}
	drv := browsertest.NewDriver(&browsertest.Page{
		URL:      homeURL,
		Elements: map[locator.Locator][]*browsertest.Element{deleteBtn: {btn}},
	})
	s := start(t, drv)
	require.NoError(t, s.Navigate(ctx, homeURL))
	el, err := s.Find(ctx, deleteBtn)
	require.NoError(t, err)

	// A confirm-guarded click without acceptance does nothing.
	require.NoError(t, el.Click(ctx))
	assert.Zero(t, btn.Clicks())

	require.NoError(t, s.AcceptDialog(ctx, el.Click))
	assert.Equal(t, 1, btn.Clicks())
}

func TestCaptureEvidence(t *testing.T) {
	ctx := context.Background()

	t.Run("screenshot", func(t *testing.T) {
		drv := shop()
		drv.Shot = []byte{0x89, 'P', 'N', 'G'}
		s := start(t, drv)

		a, err := s.CaptureEvidence(ctx, "checkLogoSuccess")

		require.NoError(t, err)
		assert.Equal(t, report.Screenshot, a.Kind)
		assert.Equal(t, "checkLogoSuccess", a.Name)
		assert.Equal(t, drv.Shot, a.Data)
	})

	t.Run("page source fallback", func(t *testing.T) {
		s := start(t, shop())
		require.NoError(t, s.Navigate(ctx, cameraURL))

		a, err := s.CaptureEvidence(ctx, "checkLogoFail")

		require.NoError(t, err)
		assert.Equal(t, report.PageSource, a.Kind)
		assert.Contains(t, string(a.Data), cameraURL)
	})
}

func TestQuit_Idempotent(t *testing.T) {
	ctx := context.Background()
	drv := shop()
	s, err := Start(ctx, Config{Driver: "fake"}, drv.Launcher(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Navigate(ctx, cameraURL))
	card, err := s.Find(ctx, cards)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.NoError(t, s.Quit())
	}

	assert.Equal(t, 1, drv.QuitCalls())
	assert.ErrorIs(t, s.Navigate(ctx, homeURL), browser.ErrClosed)
	_, err = s.FindAll(ctx, cards)
	assert.ErrorIs(t, err, browser.ErrClosed)
	assert.ErrorIs(t, card.Click(ctx), browser.ErrClosed)
	_, err = s.CaptureEvidence(ctx, "afterQuit")
	assert.ErrorIs(t, err, browser.ErrClosed)
}

func TestSessionID(t *testing.T) {
	a := start(t, shop())
	b := start(t, shop())
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotNil(t, a.Logger())
}
