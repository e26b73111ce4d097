package util

import (
	"fmt"
	"math"
	"strings"
)

// Iranian carriers and aggregators quote prices in either Rial (IRR, the
// ISO-4217 unit) or Toman (a colloquial unit equal to 10 Rial that most
// domestic sites actually display). Both units trade in whole numbers only
// - neither currency uses subunits in practice.
const (
	CurrencyIRR   = "IRR"
	CurrencyToman = "TOMAN"
)

// TomanToRial converts a Toman amount to its Rial equivalent.
func TomanToRial(toman int64) int64 {
	return toman * 10
}

// RialToToman converts a Rial amount to its Toman equivalent, truncating
// any remainder smaller than one Toman.
func RialToToman(rial int64) int64 {
	return rial / 10
}

// FormatToman formats an integer Toman amount for display.
//
// Examples:
//   - 0 → "0 Toman"
//   - 1500 → "1,500 Toman"
//   - 1500000 → "1,500,000 Toman"
func FormatToman(amount int64) string {
	return groupThousands(amount) + " Toman"
}

// FormatRial formats an integer Rial amount for display.
//
// Examples:
//   - 0 → "0 Rial"
//   - 15000 → "15,000 Rial"
//   - 15000000 → "15,000,000 Rial"
func FormatRial(amount int64) string {
	return groupThousands(amount) + " Rial"
}

// FormatCurrency formats amount according to currency, which must be one
// of CurrencyIRR or CurrencyToman. Unknown currency codes fall back to a
// bare grouped number followed by the currency code as-is, so a site that
// reports an unexpected unit still renders something legible instead of
// erroring.
func FormatCurrency(amount int64, currency string) string {
	switch strings.ToUpper(currency) {
	case CurrencyToman:
		return FormatToman(amount)
	case CurrencyIRR:
		return FormatRial(amount)
	default:
		return fmt.Sprintf("%s %s", groupThousands(amount), currency)
	}
}

// FormatFloatCurrency rounds a float amount (as extracted from a page
// before normalization to the canonical integer price) before formatting.
func FormatFloatCurrency(amount float64, currency string) string {
	return FormatCurrency(int64(math.Round(amount)), currency)
}

// groupThousands renders an integer with comma thousand separators,
// preserving a leading minus sign.
func groupThousands(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}

	str := fmt.Sprintf("%d", n)

	var result strings.Builder
	length := len(str)
	for i, char := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}

	if negative {
		return "-" + result.String()
	}
	return result.String()
}
