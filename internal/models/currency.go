package models

import (
	"fmt"
	"strings"
)

// Currency is a display currency. Prices are stored in the default currency
// and converted at render time.
type Currency struct {
	Code       string
	Title      string
	Symbol     string
	SymbolLeft bool
	// Rate converts from the default currency.
	Rate float64
}

// DefaultCurrency is the currency prices are stored in.
const DefaultCurrency = "USD"

// Currencies offered by the storefront, in menu order.
var Currencies = []Currency{
	{Code: "EUR", Title: "Euro", Symbol: "€", Rate: 0.78460002},
	{Code: "GBP", Title: "Pound Sterling", Symbol: "£", SymbolLeft: true, Rate: 0.61250001},
	{Code: "USD", Title: "US Dollar", Symbol: "$", SymbolLeft: true, Rate: 1},
}

// LookupCurrency finds a currency by code, case-insensitively.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}

// Format renders an amount in minor units of the default currency.
func (c Currency) Format(minor int64) string {
	amount := fmt.Sprintf("%.2f", float64(minor)/100.0*c.Rate)
	if c.SymbolLeft {
		return c.Symbol + amount
	}
	return amount + c.Symbol
}
