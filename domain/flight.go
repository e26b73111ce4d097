package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CabinClass enumerates the cabin/seat classes a Flight or SearchQuery can
// carry.
type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinPremium  CabinClass = "premium_economy"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

// IsValid reports whether c is one of the recognised cabin classes.
func (c CabinClass) IsValid() bool {
	switch c {
	case CabinEconomy, CabinPremium, CabinBusiness, CabinFirst:
		return true
	default:
		return false
	}
}

// Flight is the canonical output record every adapter must converge on
//. Required fields are populated by every adapter; optional fields
// are filled in when the source site exposes them and left at their zero
// value otherwise.
type Flight struct {
	// Required.
	AirlineName    string     `json:"airlineName"`
	AirlineCode    string     `json:"airlineCode"`
	FlightNumber   string     `json:"flightNumber"`
	OriginIATA     string     `json:"originIata"`
	DestIATA       string     `json:"destIata"`
	DepartureUTC   time.Time  `json:"departureUtc"`
	ArrivalUTC     time.Time  `json:"arrivalUtc"`
	DurationMin    int        `json:"durationMinutes"`
	Price          int64      `json:"price"`
	Currency       string     `json:"currency"`
	CabinClass     CabinClass `json:"cabinClass"`
	SourceSite     string     `json:"sourceSite"`
	ExtractedAt    time.Time  `json:"extractedAt"`

	// Optional.
	BaggageAllowance string `json:"baggageAllowance,omitempty"`
	FareRules        string `json:"fareRules,omitempty"`
	RefundPolicy     string `json:"refundPolicy,omitempty"`
	BookingClass     string `json:"bookingClass,omitempty"`
	FareBasis        string `json:"fareBasis,omitempty"`
	AvailableSeats   *int   `json:"availableSeats,omitempty"`
	AircraftType     string `json:"aircraftType,omitempty"`
	LoyaltyMiles     *int   `json:"loyaltyMiles,omitempty"`
	PromotionCode    string `json:"promotionCode,omitempty"`
}

// Identity returns the stable flight identity: a content-hash over
// airline code, flight number, origin, destination, departure time
// truncated to the minute, and cabin class. Two records that disagree only
// on fields outside this tuple (price, seats, fare basis) hash identically,
// which is what lets the scheduler recognise the same flight re-offered
// across polling rounds or across two sites quoting the same operated
// segment.
func (f *Flight) Identity() string {
	truncated := f.DepartureUTC.Truncate(time.Minute).UTC().Format(time.RFC3339)
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		f.AirlineCode, f.FlightNumber, f.OriginIATA, f.DestIATA, truncated, f.CabinClass)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Validate checks the invariants a Flight must satisfy directly: arrival
// after departure, duration consistent with the departure/arrival gap
// within a 2-minute tolerance, and duration inside the 30..1440 minute
// bound. It does NOT check price range, IATA shape, or currency — those
// depend on the owning SiteConfig and are the Flight Validator's (C9)
// responsibility, not this type's.
func (f *Flight) Validate() error {
	if f.FlightNumber == "" {
		return fmt.Errorf("%w: FlightNumber", ErrMissingRequiredField)
	}
	if f.AirlineCode == "" {
		return fmt.Errorf("%w: AirlineCode", ErrMissingRequiredField)
	}
	if f.OriginIATA == "" {
		return fmt.Errorf("%w: OriginIATA", ErrMissingRequiredField)
	}
	if f.DestIATA == "" {
		return fmt.Errorf("%w: DestIATA", ErrMissingRequiredField)
	}
	if !f.ArrivalUTC.After(f.DepartureUTC) {
		return fmt.Errorf("%w: arrival time (%s) must be after departure time (%s)",
			ErrInvalidFlightTimes,
			f.ArrivalUTC.Format(time.RFC3339),
			f.DepartureUTC.Format(time.RFC3339))
	}
	if f.DurationMin < 30 || f.DurationMin > 1440 {
		return fmt.Errorf("%w: duration %dm outside 30..1440 range", ErrInvalidFlightTimes, f.DurationMin)
	}
	gap := int(f.ArrivalUTC.Sub(f.DepartureUTC).Minutes())
	if diff := gap - f.DurationMin; diff < -2 || diff > 2 {
		return fmt.Errorf("%w: declared duration %dm inconsistent with departure/arrival gap %dm",
			ErrInvalidFlightTimes, f.DurationMin, gap)
	}
	return nil
}

// FormatDuration renders minutes as "Xh Ym" / "Xh" / "Ym", matching the
// display convention adapters use for FareRules/BaggageAllowance text.
func FormatDuration(totalMinutes int) string {
	hours := totalMinutes / 60
	mins := totalMinutes % 60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
