package models

import "github.com/Rhymond/go-money"

// ValidCurrency reports whether code is a known ISO 4217 currency code.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount renders a minor-unit amount with the currency's own symbol and
// fraction rules ("$12.34", "¥1,234"). Unknown codes fall back to a generic
// two-decimal rendering, which go-money handles internally.
func FormatAmount(amount int64, code string) string {
	return money.New(amount, code).Display()
}
