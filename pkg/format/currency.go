// Package format renders amounts and percentages for people and filenames.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/payment-plan/pkg/constants"
)

// Symbol returns the display prefix for a currency code.
func Symbol(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case constants.CurrencyDOP:
		return "RD$"
	case constants.CurrencyUSD, "":
		return "US$"
	default:
		return strings.ToUpper(strings.TrimSpace(code)) + " "
	}
}

// Currency returns a currency string with the currency symbol and thousands
// separators (e.g., "-US$1,234.56").
func Currency(amount float64, code string) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-" + Symbol(code) + formatted
	}
	return Symbol(code) + formatted
}

// Percent renders a 0-100 percentage with up to two decimals, e.g. "9.83%".
func Percent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	s := fmt.Sprintf("%.2f", value)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		s = "0"
	}
	return s + "%"
}

func formatPositiveCurrency(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
