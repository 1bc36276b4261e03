package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyMarks are stripped before numeric parsing. The scrape source
// renders prices with the listing currency prefixed.
var currencyMarks = []string{"₹", "$", "€", "£"}

// SafeParse parses a string into a decimal, returning zero for invalid or
// empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanNumber parses a display-formatted number as it appears in scraped
// markup: thousands separators, currency marks, surrounding whitespace, and
// percent signs are all tolerated. Anything that still fails to parse yields
// zero, never an error.
//
//	"1,234.50" -> 1234.5
//	"12%"      -> 12
//	"₹2,000"   -> 2000
//	""         -> 0
func CleanNumber(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "%", "")
	// U+2212, the minus the markup uses for negative changes
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.TrimPrefix(s, "+")
	return SafeParse(s)
}
