// Package util provides utility functions for working with timezones and time operations.
// It includes caching mechanisms for improved performance when working with multiple timezone conversions.
package util

import (
	"fmt"
	"sync"
	"time"
)

// locationCache is a thread-safe cache for storing loaded time.Location objects.
// This prevents repeated calls to time.LoadLocation which can be expensive.
var locationCache sync.Map

// Common timezone constants used by Iranian and regional adapters.
// These represent the IANA Time Zone Database names for various regions.
const (
	// UTC represents Coordinated Universal Time
	UTC = "UTC"

	// IRST is Iran Standard Time (UTC+3:30), used by every domestic
	// Iranian airport.
	IRST = "Asia/Tehran"

	// Regional Gulf/Middle-East time zones used by aggregator sites.
	GST = "Asia/Dubai"      // Gulf Standard Time (UTC+4)
	AST = "Asia/Riyadh"     // Arabia Standard Time (UTC+3)
	TRT = "Europe/Istanbul" // Turkey Time (UTC+3)
)

// GetLocation loads and caches a *time.Location by IANA name.
func GetLocation(name string) (*time.Location, error) {
	if loc, ok := locationCache.Load(name); ok {
		return loc.(*time.Location), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}

	locationCache.Store(name, loc)
	return loc, nil
}

// MustGetLocation is like GetLocation but panics on error. Intended for
// use with package-level timezone constants known to be valid.
func MustGetLocation(name string) *time.Location {
	loc, err := GetLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// ClearLocationCache empties the cached *time.Location values. Exposed for
// tests that need a clean cache between cases.
func ClearLocationCache() {
	locationCache.Range(func(key, _ interface{}) bool {
		locationCache.Delete(key)
		return true
	})
}

// InTimezone converts t to the given named timezone, preserving the
// instant in time.
func InTimezone(t time.Time, timezone string) (time.Time, error) {
	loc, err := GetLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// NowIn returns the current time in the given named timezone.
func NowIn(timezone string) (time.Time, error) {
	loc, err := GetLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// NowInTehran returns the current time in Iran Standard Time.
func NowInTehran() (time.Time, error) {
	return NowIn(IRST)
}

// NowInUTC returns the current time in UTC.
func NowInUTC() time.Time {
	return time.Now().UTC()
}

// ParseInTimezone parses value using layout in the given named timezone.
func ParseInTimezone(layout, value, timezone string) (time.Time, error) {
	loc, err := GetLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(layout, value, loc)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatTime renders t as HH:MM (24-hour).
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// FormatDateTime renders t as "YYYY-MM-DD HH:MM:SS".
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// StartofDay returns midnight of t's calendar day, in t's location.
func StartofDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndofDay returns the last nanosecond of t's calendar day, in t's location.
func EndofDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// GetTimezoneByAirport returns the IANA timezone for an airport code known
// to the Iranian/regional site set. Every Iranian domestic airport runs on
// IRST; a handful of regional hub codes used by aggregator sites resolve to
// their own zone. Unknown codes default to IRST, matching how a
// Persian-carrier-first system should fail closed.
func GetTimezoneByAirport(airportCode string) string {
	switch airportCode {
	case "DXB", "AUH", "SHJ": // Dubai, Abu Dhabi, Sharjah
		return GST
	case "RUH", "JED", "DMM": // Riyadh, Jeddah, Dammam
		return AST
	case "IST", "SAW": // Istanbul
		return TRT
	default:
		// Includes THR, MHD, IFN, SYZ, KIH, AWZ, TBZ, BND, and every
		// other domestic Iranian code.
		return IRST
	}
}
