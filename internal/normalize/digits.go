// Package normalize turns the raw Persian/Arabic text, digits, and dates
// site adapters scrape off the page into the plain ASCII/UTC values the
// rest of the engine works with.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flightcrawl/enginecore/domain"
)

// NormalizeDigits folds Persian (U+06F0-06F9) and Arabic-Indic (U+0660-0669)
// digits down to their ASCII equivalents, leaving every other rune as-is.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// currencyWords are stripped before numeric extraction. Longest-first so a
// substring match never shadows a fuller word.
var currencyWords = []string{
	"Toman", "toman", "تومان",
	"Rial", "rial", "ریال", "ريال",
	"IRR", "irr",
}

var numberPattern = regexp.MustCompile(`-?\d+`)

// ExtractNumber pulls the integer amount out of a raw price string, tolerant
// of trailing/leading currency words ("تومان", "ریال", "IRR") and thousands
// separators (",", ".", the Arabic "٬").
func ExtractNumber(raw string) (int64, error) {
	s := NormalizeDigits(raw)
	for _, w := range currencyWords {
		s = strings.ReplaceAll(s, w, "")
	}
	s = strings.NewReplacer(",", "", ".", "", "٬", "", " ", " ").Replace(s)
	s = strings.TrimSpace(s)

	match := numberPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("normalize: no numeric value found in %q", raw)
	}

	return strconv.ParseInt(match, 10, 64)
}

// ParseClockTime parses an "HH:MM" string (digits may be Persian/Arabic),
// rejecting anything outside a valid 24-hour range.
func ParseClockTime(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(NormalizeDigits(raw))
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("normalize: invalid time format %q", raw)
	}

	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("normalize: invalid hour in %q: %w", raw, err)
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("normalize: invalid minute in %q: %w", raw, err)
	}

	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("normalize: hour out of range in %q", raw)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("normalize: minute out of range in %q", raw)
	}

	return hour, minute, nil
}

// currencyAliases maps the units sites actually print to the ISO-4217-or-
// declared-alias currency code the canonical Flight.Currency field holds.
var currencyAliases = map[string]string{
	"toman": "IRR",
	"تومان": "IRR",
	"rial":  "IRR",
	"ریال":  "IRR",
	"ريال":  "IRR",
	"irr":   "IRR",
}

// CurrencyAlias resolves a raw currency label to its canonical code. Labels
// with no known alias are upper-cased and passed through unchanged so a
// legitimate foreign currency (e.g. "AED" on an aggregator site) still
// round-trips.
func CurrencyAlias(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canon, ok := currencyAliases[key]; ok {
		return canon
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CanonicalizeAirlineName resolves a scraped airline name (Persian or
// English variant) against a per-site alias map, returning the canonical
// English name and its two-letter IATA code. A name with no entry in
// aliases passes through unchanged, with an empty code and warning set,
// so the caller can surface the gap without dropping the record.
func CanonicalizeAirlineName(name string, aliases map[string]domain.AirlineAlias) (canonicalName, iataCode string, warning bool) {
	trimmed := strings.TrimSpace(name)
	if alias, ok := aliases[trimmed]; ok {
		return alias.CanonicalName, alias.IATACode, false
	}
	return trimmed, "", true
}
