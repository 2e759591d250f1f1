package htmldriver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/handlers/shoptest"
	"github.com/adyen/shopharness/internal/locator"
)

func startDriver(t *testing.T) (*Driver, string) {
	t.Helper()
	srv := shoptest.NewServer(t)
	d, err := New(browser.Options{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Quit() })
	return d, srv.URL
}

func findAll(t *testing.T, d *Driver, loc locator.Locator) []browser.Element {
	t.Helper()
	els, err := d.FindAll(context.Background(), loc)
	require.NoError(t, err)
	return els
}

func first(t *testing.T, d *Driver, loc locator.Locator) browser.Element {
	t.Helper()
	els := findAll(t, d, loc)
	require.NotEmpty(t, els, "no element for %s", loc)
	return els[0]
}

func textOf(t *testing.T, el browser.Element) string {
	t.Helper()
	s, err := el.Text(context.Background())
	require.NoError(t, err)
	return s
}

func TestDriver_BeforeNavigation(t *testing.T) {
	d, _ := startDriver(t)
	ctx := context.Background()

	u, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", u)
	assert.Empty(t, findAll(t, d, locator.ByCSS("a")))
	assert.Error(t, d.Navigate(ctx, "/relative"))
	assert.NoError(t, d.Back(ctx))
}

func TestDriver_LocatorStrategies(t *testing.T) {
	d, base := startDriver(t)
	require.NoError(t, d.Navigate(context.Background(), base+"/"))

	tests := []struct {
		name string
		loc  locator.Locator
		want int
	}{
		{"css", locator.ByCSS(".product-layout"), 4},
		{"id", locator.ByID("form-currency"), 1},
		{"name", locator.ByName("EUR"), 1},
		{"link text is exact", locator.ByLinkText("PC (0)"), 1},
		{"link text does not match substrings", locator.ByLinkText("PC"), 0},
		{"no match", locator.ByCSS(".no-such-class"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, findAll(t, d, tt.loc), tt.want)
		})
	}
}

func TestDriver_InvalidSelector(t *testing.T) {
	d, base := startDriver(t)
	require.NoError(t, d.Navigate(context.Background(), base+"/"))

	_, err := d.FindAll(context.Background(), locator.ByCSS("[[["))

	assert.ErrorIs(t, err, locator.ErrInvalidLocator)
}

func TestDriver_ScopedFind(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	cards := findAll(t, d, locator.ByCSS(".product-layout"))
	require.Len(t, cards, 4)
	links, err := cards[1].FindAll(ctx, locator.ByCSS(".caption h4 a"))
	require.NoError(t, err)
	require.Len(t, links, 1)

	assert.Equal(t, "iPhone", textOf(t, links[0]))
}

func TestDriver_LinkNavigationMakesHandlesStale(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	link := first(t, d, locator.ByLinkText("PC (0)"))
	require.NoError(t, link.Click(ctx))

	assert.Equal(t, "There are no products to list in this category.", textOf(t, first(t, d, locator.ByCSS("#content p"))))
	assert.ErrorIs(t, link.Click(ctx), browser.ErrStaleElement)
	_, err := link.Text(ctx)
	assert.ErrorIs(t, err, browser.ErrStaleElement)

	require.NoError(t, d.Back(ctx))
	u, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, base+"/", u)
}

func TestDriver_FragmentLinksDoNotNavigate(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/index.php?route=product/product&product_id=43"))

	thumbs := findAll(t, d, locator.ByCSS(".thumbnails li a"))
	require.Len(t, thumbs, 5)
	for _, th := range thumbs {
		require.NoError(t, th.Click(ctx))
	}

	// Same document: the handles are still live.
	assert.Equal(t, "Reviews (0)", textOf(t, first(t, d, locator.ByCSS("a[href='#tab-review']"))))
	_, err := thumbs[0].Visible(ctx)
	assert.NoError(t, err)
}

func TestDriver_SearchFormUsesGet(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	require.NoError(t, first(t, d, locator.ByName("search")).Type(ctx, "iphone"))
	require.NoError(t, first(t, d, locator.ByCSS("button.btn.btn-default.btn-lg")).Click(ctx))

	u, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, u, "route=product%2Fsearch")
	assert.Contains(t, u, "search=iphone")
	names := findAll(t, d, locator.ByCSS(".product-layout .caption h4 a"))
	require.Len(t, names, 1)
	assert.Equal(t, "iPhone", textOf(t, names[0]))
}

func TestDriver_SubmitterNameIsSent(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	require.NoError(t, first(t, d, locator.ByName("GBP")).Click(ctx))

	assert.Equal(t, "GBP", textOf(t, first(t, d, locator.ByCSS(".currency-code"))))
	assert.Contains(t, textOf(t, first(t, d, locator.ByCSS(".product-layout .price"))), "£")
}

func TestDriver_Visibility(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	hidden := first(t, d, locator.ByCSS("input[name='redirect']"))
	visible, err := hidden.Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)

	button := first(t, d, locator.ByName("EUR"))
	visible, err = button.Visible(ctx)
	require.NoError(t, err)
	assert.True(t, visible)
	enabled, err := button.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDriver_TypeRejectsNonEditable(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	assert.Error(t, first(t, d, locator.ByCSS(".product-layout")).Type(ctx, "x"))
	assert.Error(t, first(t, d, locator.ByName("EUR")).Clear(ctx))
}

func TestDriver_ReviewFormWithRadio(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/index.php?route=product/product&product_id=30"))

	require.NoError(t, first(t, d, locator.ByID("input-name")).Type(ctx, "Jane"))
	review := first(t, d, locator.ByID("input-review"))
	require.NoError(t, review.Type(ctx, "Scratch that. "))
	require.NoError(t, review.Clear(ctx))
	require.NoError(t, review.Type(ctx, "Sharp pictures, solid body, long battery life."))
	require.NoError(t, first(t, d, locator.ByCSS("input[name='rating'][value='2']")).Click(ctx))
	require.NoError(t, first(t, d, locator.ByCSS("input[name='rating'][value='5']")).Click(ctx))
	require.NoError(t, first(t, d, locator.ByID("button-review")).Click(ctx))

	assert.Equal(t, "Thank you for your review. It has been submitted to the webmaster for approval.",
		textOf(t, first(t, d, locator.ByCSS(".alert-success"))))
}

func adminLogin(t *testing.T, d *Driver, base string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/admin/"))
	require.NoError(t, first(t, d, locator.ByID("input-username")).Type(ctx, shoptest.AdminUsername))
	require.NoError(t, first(t, d, locator.ByID("input-password")).Type(ctx, shoptest.AdminPassword))
	require.NoError(t, first(t, d, locator.ByCSS("button[type='submit']")).Click(ctx))
	require.NoError(t, first(t, d, locator.ByCSS(".btn-close")).Click(ctx))
	require.Empty(t, findAll(t, d, locator.ByCSS(".modal")))
}

func TestDriver_AutocompleteAndExternalSubmitButton(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	adminLogin(t, d, base)
	require.NoError(t, d.Navigate(ctx, base+"/admin/index.php?route=catalog/product.form"))

	require.NoError(t, first(t, d, locator.ByID("input-name1")).Type(ctx, "Leica M6"))
	require.NoError(t, first(t, d, locator.ByCSS("div.note-editable")).Type(ctx, "Rangefinder"))
	require.NoError(t, first(t, d, locator.ByID("input-model")).Type(ctx, "M6"))
	require.NoError(t, first(t, d, locator.ByID("input-category")).Type(ctx, "Cam"))
	require.NoError(t, first(t, d, locator.ByLinkText("Cameras")).Click(ctx))
	require.NoError(t, first(t, d, locator.ByCSS("button[data-bs-original-title='Save']")).Click(ctx))

	assert.Equal(t, "Success: You have modified products!", textOf(t, first(t, d, locator.ByCSS(".alert-success"))))

	require.NoError(t, d.Navigate(ctx, base+"/index.php?route=product/category&path=33"))
	var names []string
	for _, el := range findAll(t, d, locator.ByCSS(".product-layout .caption h4 a")) {
		names = append(names, textOf(t, el))
	}
	assert.Contains(t, names, "Leica M6")
}

func TestDriver_ConfirmDialog(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	adminLogin(t, d, base)

	filter := func() {
		require.NoError(t, d.Navigate(ctx, base+"/admin/index.php?route=catalog/product"))
		require.NoError(t, first(t, d, locator.ByID("input-name")).Type(ctx, "iPod"))
		require.NoError(t, first(t, d, locator.ByID("button-filter")).Click(ctx))
	}
	deleteButton := locator.ByCSS("button[data-bs-original-title='Delete']")

	// WHEN delete is clicked without accepting the dialog
	filter()
	rows := findAll(t, d, locator.ByCSS("input[name='selected[]']"))
	require.Len(t, rows, 4)
	require.NoError(t, rows[0].Click(ctx))
	require.NoError(t, first(t, d, deleteButton).Click(ctx))

	// THEN nothing happens
	assert.Empty(t, findAll(t, d, locator.ByCSS(".alert-success")))
	assert.Len(t, findAll(t, d, locator.ByCSS("input[name='selected[]']")), 4)

	// WHEN the dialog is accepted
	err := d.AcceptDialog(ctx, func(ctx context.Context) error {
		return first(t, d, deleteButton).Click(ctx)
	})

	// THEN the checked product is deleted
	require.NoError(t, err)
	assert.Contains(t, textOf(t, first(t, d, locator.ByCSS(".alert-success"))), "Success")
	filter()
	assert.Len(t, findAll(t, d, locator.ByCSS("input[name='selected[]']")), 3)

	// AND a trigger that opens no dialog is reported
	err = d.AcceptDialog(ctx, func(ctx context.Context) error {
		return first(t, d, locator.ByID("button-filter")).Click(ctx)
	})
	assert.ErrorIs(t, err, browser.ErrNoDialog)
}

func TestDriver_EvidenceAndQuit(t *testing.T) {
	d, base := startDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx, base+"/"))

	_, err := d.Screenshot(ctx)
	assert.ErrorIs(t, err, browser.ErrUnsupported)
	src, err := d.PageSource(ctx)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(src), "product-layout"))

	el := first(t, d, locator.ByCSS("a"))
	require.NoError(t, d.Quit())
	require.NoError(t, d.Quit())

	assert.ErrorIs(t, d.Navigate(ctx, base+"/"), browser.ErrClosed)
	_, err = d.FindAll(ctx, locator.ByCSS("a"))
	assert.ErrorIs(t, err, browser.ErrClosed)
	assert.ErrorIs(t, el.Click(ctx), browser.ErrClosed)
}

func TestLauncher(t *testing.T) {
	drv, err := Launcher{}.Launch(context.Background(), browser.Options{Headless: true})
	require.NoError(t, err)
	assert.NoError(t, drv.Quit())
}

func TestCSSString(t *testing.T) {
	assert.Equal(t, `"plain"`, cssString("plain"))
	assert.Equal(t, `"say \"hi\""`, cssString(`say "hi"`))
	assert.Equal(t, `"a\\b"`, cssString(`a\b`))
}
