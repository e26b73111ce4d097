package domain

import (
	"fmt"
	"regexp"
	"time"
)

// TripType enumerates the shapes a SearchQuery's itinerary can take.
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiCity TripType = "multi_city"
)

var iataRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Leg is one segment of a multi-city itinerary.
type Leg struct {
	Origin string    `json:"origin"`
	Dest   string    `json:"dest"`
	Date   time.Time `json:"date"`
}

// PassengerCounts holds the passenger split a query requires (adults ≥ 1,
// children ≥ 0, infants ≥ 0, infants ≤ adults).
type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// SearchQuery is the ephemeral request bound to one crawl session.
type SearchQuery struct {
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	DepartureDate  time.Time       `json:"departureDate"`
	ReturnDate     *time.Time      `json:"returnDate,omitempty"`
	Passengers     PassengerCounts `json:"passengers"`
	CabinClass     CabinClass      `json:"cabinClass"`
	TripType       TripType        `json:"tripType,omitempty"`
	Legs           []Leg           `json:"legs,omitempty"`
	EnableDateRange bool           `json:"enableDateRange,omitempty"`
	DateRangeDays   int            `json:"dateRangeDays,omitempty"`
	EnableMultiRoute bool          `json:"enableMultiRoute,omitempty"`
}

// Validate enforces the invariants a SearchQuery must satisfy: non-empty,
// distinct, IATA-shaped origin/destination, a departure date not in the
// past, a valid passenger split, and — for multi-city queries — at least
// one leg.
func (q *SearchQuery) Validate(now time.Time) error {
	if q.Origin == "" {
		return fmt.Errorf("%w: origin is required", ErrInvalidRequest)
	}
	if !iataRegex.MatchString(q.Origin) {
		return fmt.Errorf("%w: origin must be a 3-letter uppercase IATA code, got %q", ErrInvalidRequest, q.Origin)
	}
	if q.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if !iataRegex.MatchString(q.Destination) {
		return fmt.Errorf("%w: destination must be a 3-letter uppercase IATA code, got %q", ErrInvalidRequest, q.Destination)
	}
	if q.Origin == q.Destination {
		return fmt.Errorf("%w: origin and destination must be different", ErrInvalidRequest)
	}
	if q.DepartureDate.IsZero() {
		return fmt.Errorf("%w: departureDate is required", ErrInvalidRequest)
	}
	if q.DepartureDate.Before(truncateToDay(now)) {
		return fmt.Errorf("%w: departureDate must not be in the past", ErrInvalidRequest)
	}
	if q.Passengers.Adults < 1 {
		return fmt.Errorf("%w: at least one adult passenger is required", ErrInvalidRequest)
	}
	if q.Passengers.Children < 0 || q.Passengers.Infants < 0 {
		return fmt.Errorf("%w: passenger counts must not be negative", ErrInvalidRequest)
	}
	if q.Passengers.Infants > q.Passengers.Adults {
		return fmt.Errorf("%w: infants (%d) must not exceed adults (%d)", ErrInvalidRequest, q.Passengers.Infants, q.Passengers.Adults)
	}
	if q.CabinClass != "" && !q.CabinClass.IsValid() {
		return fmt.Errorf("%w: unrecognised cabin class %q", ErrInvalidRequest, q.CabinClass)
	}
	if q.TripType == TripMultiCity && len(q.Legs) == 0 {
		return fmt.Errorf("%w: multi-city trips require at least one leg", ErrInvalidRequest)
	}
	return nil
}

// SetDefaults fills empty optional fields with their defaults, matching
// the provider adapters' expectation of a fully-populated query.
func (q *SearchQuery) SetDefaults() {
	if q.Passengers.Adults == 0 {
		q.Passengers.Adults = 1
	}
	if q.CabinClass == "" {
		q.CabinClass = CabinEconomy
	}
	if q.TripType == "" {
		if q.ReturnDate != nil {
			q.TripType = TripRoundTrip
		} else {
			q.TripType = TripOneWay
		}
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
