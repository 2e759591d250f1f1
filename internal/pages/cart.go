package pages

import (
	"context"

	"github.com/adyen/shopharness/internal/locator"
)

var (
	lineRows  = locator.ByCSS("table.table-bordered tbody tr")
	lineTitle = locator.ByCSS("td.text-left a")
)

// CartPage is the shopping cart.
type CartPage struct {
	*Page
}

// Open loads the cart.
func (cp *CartPage) Open(ctx context.Context) error {
	cp.step("Open cart")
	return cp.open(ctx, cp.Routes.Route("checkout/cart"))
}

// IsProductInCart reports whether a cart line names the product. An empty
// cart is false.
func (cp *CartPage) IsProductInCart(ctx context.Context, name string) (bool, error) {
	_, found, err := FindItemMatchingName(ctx, cp.Page, lineRows, lineTitle, name)
	return found, err
}

// WishlistPage is the customer's wish list.
type WishlistPage struct {
	*Page
}

// Open loads the wish list.
func (wp *WishlistPage) Open(ctx context.Context) error {
	wp.step("Open wish list")
	return wp.open(ctx, wp.Routes.Route("account/wishlist"))
}

// IsProductInWishlist reports whether the wish list names the product.
func (wp *WishlistPage) IsProductInWishlist(ctx context.Context, name string) (bool, error) {
	_, found, err := FindItemMatchingName(ctx, wp.Page, lineRows, lineTitle, name)
	return found, err
}
