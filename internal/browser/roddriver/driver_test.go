package roddriver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adyen/shopharness/internal/browser"
	"github.com/adyen/shopharness/internal/locator"
)

func TestSelectors(t *testing.T) {
	tests := []struct {
		name      string
		loc       locator.Locator
		scoped    bool
		wantCSS   string
		wantXPath string
	}{
		{name: "id", loc: locator.ByID("input-name"), wantCSS: `[id="input-name"]`},
		{name: "name with quote", loc: locator.ByName(`a"b`), wantCSS: `[name="a\"b"]`},
		{name: "css", loc: locator.ByCSS("#alert .alert-success"), wantCSS: "#alert .alert-success"},
		{name: "link text", loc: locator.ByLinkText("Cameras"), wantXPath: `//a[normalize-space(.)="Cameras"]`},
		{name: "scoped link text", loc: locator.ByLinkText("Cameras"), scoped: true, wantXPath: `.//a[normalize-space(.)="Cameras"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xp, ok := xpath(tt.loc, tt.scoped)
			if tt.wantXPath != "" {
				assert.True(t, ok)
				assert.Equal(t, tt.wantXPath, xp)
				return
			}
			assert.False(t, ok)
			assert.Equal(t, tt.wantCSS, css(tt.loc))
		})
	}
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(errors.New("{-32000 Node is detached from document }")), browser.ErrStaleElement)

	other := errors.New("context deadline exceeded")
	assert.Equal(t, other, translate(other))
}
