package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// hundred is the divisor for percentage values.
var hundred = decimal.NewFromInt(100)

// FormatMoney renders an amount with a dollar sign and two decimals.
// Examples: 10 → "$10.00", 9.5 → "$9.50", -3 → "-$3.00"
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// ParseAmount converts a decimal string (dollars) to a decimal amount.
// Tolerates a leading "$" and surrounding whitespace.
// Examples: "99.00" → 99, "$12.5" → 12.5, "" → 0, "abc" → 0
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// PercentOf returns pct percent of amount rounded to cents.
// Examples: PercentOf(100, 10) → 10, PercentOf(19.99, 15) → 3.00
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}
