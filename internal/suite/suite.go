// Package suite holds the OpenCart end-to-end scenarios.
package suite

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adyen/shopharness/internal/pages"
	"github.com/adyen/shopharness/internal/scenario"
	"github.com/adyen/shopharness/internal/wait"
)

// Options parameterizes the suite.
type Options struct {
	AdminUsername string
	AdminPassword string
	// Listing bounds the wait for a product link after a search.
	Listing wait.Spec
}

// DefaultListing matches the short wait used for search result links.
var DefaultListing = wait.Spec{Timeout: 5 * time.Second, Interval: 250 * time.Millisecond}

const reviewText = "Great product, I recommend it to everyone!"

type device struct {
	name     string
	category string
}

var devices = []device{
	{"Mouse A", "Devices"},
	{"Mouse B", "Devices"},
	{"Keyboard A", "Devices"},
	{"Keyboard B", "Devices"},
}

// Scenarios returns every scenario in run order.
func Scenarios(opts Options) []scenario.Scenario {
	if opts.Listing.Validate() != nil {
		opts.Listing = DefaultListing
	}
	return []scenario.Scenario{
		{Name: "Main flow", Feature: "Main page", Run: mainFlow},
		{Name: "Add to wishlist", Feature: "Wishlist", Run: addToWishlist},
		addToCart("Add camera to cart", "Camera", "Cameras", "Canon EOS 5D", "CameraCart"),
		addToCart("Add tablet to cart", "Tablet", "Tablets", "Samsung Galaxy Tab", "TabletCart"),
		addToCart("Add HTC phone to cart", "HTC phone", "Phones & PDAs", "HTC Touch HD", "HTCCart"),
		{Name: "Write review", Feature: "Reviews", Run: writeReview},
		{Name: "Register then log in", Feature: "Account", Run: registerThenLogin},
		{
			Name:    "Manage devices category and products",
			Feature: "Admin: categories and products",
			Run: func(t *scenario.T) error {
				return manageDevices(t, opts)
			},
		},
	}
}

// newCustomer returns registration data with an address no earlier run used.
func newCustomer() pages.Customer {
	return pages.Customer{
		FirstName: "Ivan",
		LastName:  "Ivanov",
		Email:     "ivanov-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "@example.com",
		Telephone: "1234567890",
		Password:  "Password123",
	}
}

func mainFlow(t *scenario.T) error {
	site := t.Pages
	err := t.Step("Open first product", func(ctx context.Context) error {
		if err := site.Main.Open(ctx); err != nil {
			return err
		}
		if err := site.Main.ClickFirstProduct(ctx); err != nil {
			return err
		}
		n, err := site.Product.CheckThumbnails(ctx)
		if err != nil {
			return err
		}
		t.Logf("product gallery has %d thumbnails", n)
		return t.Session.Back(ctx)
	})
	if err != nil {
		return err
	}

	err = t.Step("Switch currency", func(ctx context.Context) error {
		if err := site.Main.ChangeCurrency(ctx, "EUR"); err != nil {
			return err
		}
		return site.Main.ChangeCurrency(ctx, "USD")
	})
	if err != nil {
		return err
	}

	var empty bool
	err = t.Step("Check empty PC category", func(ctx context.Context) error {
		if err := site.Main.GoToCategory(ctx, "Computers", "PC (0)"); err != nil {
			return err
		}
		var err error
		empty, err = site.Main.IsEmptyCategoryShown(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if !t.Check("PCCheck", empty) {
		return t.Require(false, "PC category does not show the empty message")
	}

	err = t.Step("Register customer", func(ctx context.Context) error {
		if err := site.Register.Open(ctx); err != nil {
			return err
		}
		return site.Register.Register(ctx, newCustomer())
	})
	if err != nil {
		return err
	}

	return t.Step("Search MacBook", func(ctx context.Context) error {
		if err := site.Main.Open(ctx); err != nil {
			return err
		}
		return site.Main.SearchProduct(ctx, "MacBook")
	})
}

func addToWishlist(t *scenario.T) error {
	var added bool
	err := t.Step("Add MacBook to wish list", func(ctx context.Context) error {
		if err := t.Pages.Main.Open(ctx); err != nil {
			return err
		}
		var err error
		added, err = t.Pages.Main.AddProductToWishlistByName(ctx, "MacBook")
		return err
	})
	if err != nil {
		return err
	}
	t.Check("Wishlist", added)
	return t.Require(added, "MacBook was not added to the wish list")
}

func addToCart(name, story, category, product, evidence string) scenario.Scenario {
	return scenario.Scenario{
		Name:    name,
		Feature: "Cart",
		Story:   story,
		Run: func(t *scenario.T) error {
			site := t.Pages
			var added, inCart bool
			err := t.Step("Add "+product+" to cart", func(ctx context.Context) error {
				if err := site.Main.Open(ctx); err != nil {
					return err
				}
				if err := site.Main.GoToCategory(ctx, category); err != nil {
					return err
				}
				var err error
				added, err = site.Main.AddProductToCartByName(ctx, product)
				return err
			})
			if err != nil {
				return err
			}
			if err := t.Require(added, "%s not found in %s", product, category); err != nil {
				return err
			}

			err = t.Step("Check cart", func(ctx context.Context) error {
				if err := site.Cart.Open(ctx); err != nil {
					return err
				}
				var err error
				inCart, err = site.Cart.IsProductInCart(ctx, product)
				return err
			})
			if err != nil {
				return err
			}
			t.Check(evidence, inCart)
			return t.Require(inCart, "%s is not in the cart", product)
		},
	}
}

func writeReview(t *scenario.T) error {
	site := t.Pages
	err := t.Step("Open MacBook", func(ctx context.Context) error {
		if err := site.Main.Open(ctx); err != nil {
			return err
		}
		if err := site.Main.SearchProduct(ctx, "MacBook"); err != nil {
			return err
		}
		return site.Main.OpenFirstSearchResult(ctx)
	})
	if err != nil {
		return err
	}

	var ok bool
	err = t.Step("Write review", func(ctx context.Context) error {
		var err error
		ok, err = site.Product.AddReview(ctx, "Ivan", reviewText, 5)
		return err
	})
	if err != nil {
		return err
	}
	t.Check("Review", ok)
	return t.Require(ok, "review was not confirmed")
}

func registerThenLogin(t *scenario.T) error {
	site := t.Pages
	customer := newCustomer()

	var created bool
	err := t.Step("Register", func(ctx context.Context) error {
		if err := site.Login.Logout(ctx); err != nil {
			return err
		}
		if err := site.Register.Open(ctx); err != nil {
			return err
		}
		if err := site.Register.Register(ctx, customer); err != nil {
			return err
		}
		var err error
		created, err = site.Register.IsAccountCreated(ctx)
		return err
	})
	if err != nil {
		return err
	}
	t.Check("Register", created)
	if err := t.Require(created, "account %s was not created", customer.Email); err != nil {
		return err
	}

	var in bool
	err = t.Step("Log in again", func(ctx context.Context) error {
		if err := site.Login.Logout(ctx); err != nil {
			return err
		}
		if err := site.Login.Open(ctx); err != nil {
			return err
		}
		if err := site.Login.Login(ctx, customer.Email, customer.Password); err != nil {
			return err
		}
		var err error
		in, err = site.Login.IsLoggedIn(ctx)
		return err
	})
	if err != nil {
		return err
	}
	t.Check("Login", in)
	return t.Require(in, "%s could not log in after registering", customer.Email)
}

func manageDevices(t *scenario.T, opts Options) error {
	site := t.Pages
	err := t.Step("Log in to admin", func(ctx context.Context) error {
		if err := site.AdminLogin.Open(ctx); err != nil {
			return err
		}
		return site.AdminLogin.Login(ctx, opts.AdminUsername, opts.AdminPassword)
	})
	if err != nil {
		return err
	}

	err = t.Step("Create Devices category", func(ctx context.Context) error {
		if err := site.AdminCategory.Open(ctx); err != nil {
			return err
		}
		return site.AdminCategory.CreateCategory(ctx, "Devices", "Category for devices")
	})
	if err != nil {
		return err
	}

	err = t.Step("Add devices", func(ctx context.Context) error {
		if err := site.AdminProduct.Open(ctx); err != nil {
			return err
		}
		for _, d := range devices {
			if err := site.AdminProduct.AddProduct(ctx, d.name, d.category, "Description for "+d.name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := expectListed(t, opts, devices...); err != nil {
		return err
	}

	err = t.Step("Delete Mouse A and Keyboard A", func(ctx context.Context) error {
		if err := site.AdminProduct.Open(ctx); err != nil {
			return err
		}
		for _, name := range []string{"Mouse A", "Keyboard A"} {
			deleted, err := site.AdminProduct.DeleteProductByName(ctx, name)
			if err != nil {
				return err
			}
			if err := t.Require(deleted, "%s not found in the product list", name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := expectListed(t, opts, devices[1], devices[3]); err != nil {
		return err
	}
	return expectRemoved(t, devices[0].name, devices[2].name)
}

// expectListed searches the storefront for each device and requires a link
// to it.
func expectListed(t *scenario.T, opts Options, ds ...device) error {
	site := t.Pages
	for _, d := range ds {
		var listed bool
		err := t.Step("Find "+d.name+" on the storefront", func(ctx context.Context) error {
			if err := site.Main.Open(ctx); err != nil {
				return err
			}
			if err := site.Main.SearchProduct(ctx, d.name); err != nil {
				return err
			}
			var err error
			listed, err = site.Main.IsProductListed(ctx, d.name, opts.Listing)
			return err
		})
		if err != nil {
			return err
		}
		if err := t.Require(listed, "%s not found on the storefront", d.name); err != nil {
			return err
		}
		t.Logf("%s found on the storefront", d.name)
	}
	return nil
}

// expectRemoved searches the storefront for each name and requires no link
// to it.
func expectRemoved(t *scenario.T, names ...string) error {
	site := t.Pages
	for _, name := range names {
		var n int
		err := t.Step("Check "+name+" is gone", func(ctx context.Context) error {
			if err := site.Main.Open(ctx); err != nil {
				return err
			}
			if err := site.Main.SearchProduct(ctx, name); err != nil {
				return err
			}
			var err error
			n, err = site.Main.ProductLinkCount(ctx, name)
			return err
		})
		if err != nil {
			return err
		}
		if err := t.Require(n == 0, "deleted product %s still has %d links", name, n); err != nil {
			return err
		}
		t.Logf("deleted product %s is not listed", name)
	}
	return nil
}
