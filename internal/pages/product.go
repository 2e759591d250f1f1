package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/adyen/shopharness/internal/locator"
	"github.com/adyen/shopharness/internal/report"
	"github.com/adyen/shopharness/internal/wait"
)

// ErrInvalidRating is returned for review ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

var (
	thumbnails   = locator.ByCSS(".thumbnails li a")
	reviewTab    = locator.ByCSS("a[href='#tab-review']")
	reviewName   = locator.ByID("input-name")
	reviewText   = locator.ByID("input-review")
	reviewSubmit = locator.ByID("button-review")
)

// thumbnailPolls is how many unchanged polls count as the gallery having
// settled after a click.
const thumbnailPolls = 2

// ProductPage is a single product with its gallery and review form.
type ProductPage struct {
	*Page
}

// CheckThumbnails clicks through the gallery when it has more than one
// image and returns how many thumbnails it found. A product without a
// gallery returns zero.
func (pp *ProductPage) CheckThumbnails(ctx context.Context) (int, error) {
	pp.step("Check product thumbnails")
	thumbs, err := pp.Wait.All(ctx, thumbnails)
	if wait.IsTimeout(err) {
		pp.logf(report.WarnLevel, "no thumbnails on the product page")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(thumbs) <= 1 {
		pp.logf(report.WarnLevel, "thumbnails missing or only one")
		return len(thumbs), nil
	}

	for i, thumb := range thumbs {
		if err := thumb.Click(ctx); err != nil {
			return i, fmt.Errorf("failed to click thumbnail %d: %w", i, err)
		}
		if _, err := pp.Wait.Stable(ctx, thumbnails, thumbnailPolls); err != nil {
			return i, fmt.Errorf("failed to wait for gallery after thumbnail %d: %w", i, err)
		}
	}
	pp.logf(report.InfoLevel, "gallery switched through %d thumbnails", len(thumbs))
	return len(thumbs), nil
}

// AddReview writes a review and reports whether the shop confirmed it.
// A rejected review returns false without an error.
func (pp *ProductPage) AddReview(ctx context.Context, name, text string, rating int) (bool, error) {
	pp.step("Write review")
	if rating < 1 || rating > 5 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	star, err := locator.New(locator.CSS, fmt.Sprintf("input[name='rating'][value='%d']", rating))
	if err != nil {
		return false, err
	}

	if err := pp.click(ctx, reviewTab); err != nil {
		return false, fmt.Errorf("failed to open reviews tab: %w", err)
	}
	if err := pp.typeInto(ctx, reviewName, name); err != nil {
		return false, fmt.Errorf("failed to type review name: %w", err)
	}
	body, err := pp.Session.Find(ctx, reviewText)
	if err != nil {
		return false, err
	}
	if err := body.Type(ctx, text); err != nil {
		return false, fmt.Errorf("failed to type review: %w", err)
	}
	for _, loc := range []locator.Locator{star, reviewSubmit} {
		el, err := pp.Session.Find(ctx, loc)
		if err != nil {
			return false, err
		}
		if err := el.Click(ctx); err != nil {
			return false, fmt.Errorf("failed to click %s: %w", loc, err)
		}
	}

	ok, msg, err := pp.awaitAlert(ctx)
	if wait.IsTimeout(err) {
		pp.logf(report.ErrorLevel, "review submission was not confirmed")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !ok {
		pp.logf(report.ErrorLevel, "review rejected: %s", msg)
		return false, nil
	}
	pp.logf(report.InfoLevel, "review submitted: %s", msg)
	return true, nil
}
