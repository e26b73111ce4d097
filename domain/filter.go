package domain

import (
	"strings"
	"time"
)

// SortOption defines the available orderings for CrawlResult flights.
type SortOption string

const (
	SortByBestValue SortOption = "best"
	SortByPrice     SortOption = "price"
	SortByDuration  SortOption = "duration"
	SortByDeparture SortOption = "departure"
)

// IsValid checks if the sort option is a recognised value.
func (s SortOption) IsValid() bool {
	switch s {
	case SortByBestValue, SortByPrice, SortByDuration, SortByDeparture:
		return true
	default:
		return false
	}
}

// ParseSortOption converts a string to a SortOption, defaulting to
// SortByBestValue when the string is empty or unrecognised.
func ParseSortOption(s string) SortOption {
	option := SortOption(s)
	if option.IsValid() {
		return option
	}
	return SortByBestValue
}

// FilterOptions defines optional post-crawl filters applied to the fanned-in
// flight set before it is returned to the caller.
type FilterOptions struct {
	MaxPrice           *int64         `json:"maxPrice,omitempty"`
	Airlines           []string       `json:"airlines,omitempty"`
	DepartureTimeRange *TimeRange     `json:"departureTimeRange,omitempty"`
	ArrivalTimeRange   *TimeRange     `json:"arrivalTimeRange,omitempty"`
	DurationRange      *DurationRange `json:"durationRange,omitempty"`
}

// TimeRange represents a clock-of-day window (hour:minute, location-naive)
// used for filtering by departure/arrival time.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains checks if a given time's hour:minute falls within the range.
func (tr *TimeRange) Contains(t time.Time) bool {
	if tr == nil {
		return true
	}
	tMinutes := t.Hour()*60 + t.Minute()
	startMinutes := tr.Start.Hour()*60 + tr.Start.Minute()
	endMinutes := tr.End.Hour()*60 + tr.End.Minute()
	return tMinutes >= startMinutes && tMinutes <= endMinutes
}

// DurationRange represents a duration-in-minutes range filter.
type DurationRange struct {
	MinMinutes *int `json:"minMinutes,omitempty"`
	MaxMinutes *int `json:"maxMinutes,omitempty"`
}

// IsValid checks if the duration range is internally consistent.
func (dr *DurationRange) IsValid() bool {
	if dr == nil {
		return true
	}
	if dr.MinMinutes != nil && *dr.MinMinutes < 0 {
		return false
	}
	if dr.MaxMinutes != nil && *dr.MaxMinutes < 0 {
		return false
	}
	if dr.MinMinutes != nil && dr.MaxMinutes != nil && *dr.MinMinutes > *dr.MaxMinutes {
		return false
	}
	return true
}

// Contains checks if a given duration (in minutes) falls within the range.
func (dr *DurationRange) Contains(durationMinutes int) bool {
	if dr == nil {
		return true
	}
	if dr.MinMinutes != nil && durationMinutes < *dr.MinMinutes {
		return false
	}
	if dr.MaxMinutes != nil && durationMinutes > *dr.MaxMinutes {
		return false
	}
	return true
}

// MatchesFlight checks if a flight matches all the filter criteria. A nil
// FilterOptions matches everything.
func (f *FilterOptions) MatchesFlight(flight Flight) bool {
	if f == nil {
		return true
	}
	if f.MaxPrice != nil && flight.Price > *f.MaxPrice {
		return false
	}
	if len(f.Airlines) > 0 {
		found := false
		flightCode := strings.ToUpper(flight.AirlineCode)
		for _, code := range f.Airlines {
			if strings.ToUpper(code) == flightCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DepartureTimeRange != nil && !f.DepartureTimeRange.Contains(flight.DepartureUTC) {
		return false
	}
	if f.ArrivalTimeRange != nil && !f.ArrivalTimeRange.Contains(flight.ArrivalUTC) {
		return false
	}
	if f.DurationRange != nil && !f.DurationRange.Contains(flight.DurationMin) {
		return false
	}
	return true
}
