// Package validate implements the Flight Validator (C9): the final gate
// a candidate Flight passes through before it is handed to the scheduler
// for dedup/sort/aggregation. A rejected record never reaches the
// caller; Validate reports it as a Reject (field plus reason) instead.
package validate

import (
	"regexp"
	"time"

	"github.com/flightcrawl/enginecore/domain"
)

const clockSkewTolerance = 15 * time.Minute
const durationTolerance = 2 * time.Minute

var iataCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// iso4217 is a small allow-list of currency codes this module recognises
// without a declared alias; sites may still normalize a local label to
// one of these via internal/normalize before a Flight reaches here.
var iso4217 = map[string]bool{
	"IRR": true, "USD": true, "EUR": true, "GBP": true,
	"AED": true, "SAR": true, "TRY": true, "QAR": true, "KWD": true,
}

// AirportTable optionally cross-checks IATA codes against a known-airport
// set. A nil table skips the cross-check and only validates code shape.
type AirportTable interface {
	Has(iataCode string) bool
}

// Reject is the typed diagnostic produced by validation: one non-fatal rejection
// reason for a single candidate Flight.
type Reject struct {
	Field  string
	Reason string
}

// Validator runs the C9 rule set against a SiteConfig's declared bounds.
type Validator struct {
	site    *domain.SiteConfig
	airport AirportTable
	now     func() time.Time
}

// New builds a Validator for site. airports may be nil to skip the
// optional airport-table cross-check.
func New(site *domain.SiteConfig, airports AirportTable) *Validator {
	return &Validator{site: site, airport: airports, now: time.Now}
}

// Validate runs every rejection rule against f, returning the first
// Reject encountered, or nil if f passes all of them. Validate never
// mutates f.
func (v *Validator) Validate(f *domain.Flight) *Reject {
	if r := v.checkRequiredFields(f); r != nil {
		return r
	}
	if r := v.checkIATACodes(f); r != nil {
		return r
	}
	if r := v.checkPriceAndDuration(f); r != nil {
		return r
	}
	if r := v.checkDepartureSkew(f); r != nil {
		return r
	}
	if r := v.checkArrivalConsistency(f); r != nil {
		return r
	}
	if r := v.checkCurrency(f); r != nil {
		return r
	}
	return nil
}

func (v *Validator) checkRequiredFields(f *domain.Flight) *Reject {
	switch {
	case f.AirlineName == "":
		return &Reject{Field: "airlineName", Reason: "required field is empty"}
	case f.AirlineCode == "":
		return &Reject{Field: "airlineCode", Reason: "required field is empty"}
	case f.FlightNumber == "":
		return &Reject{Field: "flightNumber", Reason: "required field is empty"}
	case f.OriginIATA == "":
		return &Reject{Field: "originIata", Reason: "required field is empty"}
	case f.DestIATA == "":
		return &Reject{Field: "destIata", Reason: "required field is empty"}
	case f.Currency == "":
		return &Reject{Field: "currency", Reason: "required field is empty"}
	}
	for _, field := range v.site.RequiredFields {
		if !siteRequiredFieldPresent(f, field) {
			return &Reject{Field: field, Reason: "site-declared required field is empty"}
		}
	}
	return nil
}

// siteRequiredFieldPresent checks the handful of optional fields a site
// may additionally declare required (e.g. "baggageAllowance"), beyond the
// canonical always-required set checkRequiredFields already covers.
func siteRequiredFieldPresent(f *domain.Flight, field string) bool {
	switch field {
	case "baggageAllowance":
		return f.BaggageAllowance != ""
	case "fareRules":
		return f.FareRules != ""
	case "refundPolicy":
		return f.RefundPolicy != ""
	case "bookingClass":
		return f.BookingClass != ""
	case "fareBasis":
		return f.FareBasis != ""
	case "aircraftType":
		return f.AircraftType != ""
	default:
		return true
	}
}

func (v *Validator) checkIATACodes(f *domain.Flight) *Reject {
	if !iataCodeRegex.MatchString(f.OriginIATA) {
		return &Reject{Field: "originIata", Reason: "not a three-letter uppercase IATA code"}
	}
	if !iataCodeRegex.MatchString(f.DestIATA) {
		return &Reject{Field: "destIata", Reason: "not a three-letter uppercase IATA code"}
	}
	if v.airport != nil {
		if !v.airport.Has(f.OriginIATA) {
			return &Reject{Field: "originIata", Reason: "unknown airport code"}
		}
		if !v.airport.Has(f.DestIATA) {
			return &Reject{Field: "destIata", Reason: "unknown airport code"}
		}
	}
	return nil
}

func (v *Validator) checkPriceAndDuration(f *domain.Flight) *Reject {
	if !v.site.PriceRange.Contains(f.Price) {
		return &Reject{Field: "price", Reason: "outside site declared price range"}
	}
	if f.DurationMin < 30 || f.DurationMin > 1440 {
		return &Reject{Field: "durationMinutes", Reason: "outside the 30..1440 minute bound"}
	}
	if v.site.DurationRange.Max > 0 && !v.site.DurationRange.Contains(int64(f.DurationMin)) {
		return &Reject{Field: "durationMinutes", Reason: "outside site declared duration range"}
	}
	return nil
}

func (v *Validator) checkDepartureSkew(f *domain.Flight) *Reject {
	if f.DepartureUTC.Before(v.now().Add(-clockSkewTolerance)) {
		return &Reject{Field: "departureUtc", Reason: "departure time is in the past beyond clock-skew tolerance"}
	}
	return nil
}

func (v *Validator) checkArrivalConsistency(f *domain.Flight) *Reject {
	if !f.ArrivalUTC.After(f.DepartureUTC) {
		return &Reject{Field: "arrivalUtc", Reason: "arrival must be strictly after departure"}
	}
	gap := f.ArrivalUTC.Sub(f.DepartureUTC)
	declared := time.Duration(f.DurationMin) * time.Minute
	diff := gap - declared
	if diff < -durationTolerance || diff > durationTolerance {
		return &Reject{Field: "durationMinutes", Reason: "declared duration inconsistent with departure/arrival gap"}
	}
	return nil
}

func (v *Validator) checkCurrency(f *domain.Flight) *Reject {
	if iso4217[f.Currency] {
		return nil
	}
	return &Reject{Field: "currency", Reason: "not a known ISO-4217 code or declared alias"}
}
