package validate

import (
	"testing"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSite() *domain.SiteConfig {
	return &domain.SiteConfig{
		SiteID:        "mahanair",
		PriceRange:    domain.ValueRange{Min: 100000, Max: 50000000},
		DurationRange: domain.ValueRange{Min: 30, Max: 1440},
	}
}

func validFlight(now time.Time) *domain.Flight {
	dep := now.Add(2 * time.Hour)
	return &domain.Flight{
		AirlineName:  "Mahan Air",
		AirlineCode:  "W5",
		FlightNumber: "W5-1071",
		OriginIATA:   "THR",
		DestIATA:     "MHD",
		DepartureUTC: dep,
		ArrivalUTC:   dep.Add(90 * time.Minute),
		DurationMin:  90,
		Price:        1200000,
		Currency:     "IRR",
		SourceSite:   "mahanair",
	}
}

func fixedValidator(site *domain.SiteConfig, now time.Time) *Validator {
	v := New(site, nil)
	v.now = func() time.Time { return now }
	return v
}

func TestValidateAcceptsWellFormedFlight(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	assert.Nil(t, v.Validate(validFlight(now)))
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.AirlineCode = ""

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "airlineCode", reject.Field)
}

func TestValidateRejectsMalformedIATACode(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.OriginIATA = "thr"

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "originIata", reject.Field)
}

func TestValidateRejectsPriceOutOfRange(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.Price = 1

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "price", reject.Field)
}

func TestValidateAllowsClockSkewToleranceOnDeparture(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.DepartureUTC = now.Add(-10 * time.Minute)
	f.ArrivalUTC = f.DepartureUTC.Add(90 * time.Minute)

	assert.Nil(t, v.Validate(f))
}

func TestValidateRejectsDepartureBeyondSkewTolerance(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.DepartureUTC = now.Add(-30 * time.Minute)
	f.ArrivalUTC = f.DepartureUTC.Add(90 * time.Minute)

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "departureUtc", reject.Field)
}

func TestValidateRejectsArrivalNotAfterDeparture(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.ArrivalUTC = f.DepartureUTC

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "arrivalUtc", reject.Field)
}

func TestValidateRejectsDurationInconsistentWithGap(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.DurationMin = 60

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "durationMinutes", reject.Field)
}

func TestValidateRejectsUnknownCurrency(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := fixedValidator(validSite(), now)
	f := validFlight(now)
	f.Currency = "XYZ"

	reject := v.Validate(f)
	require.NotNil(t, reject)
	assert.Equal(t, "currency", reject.Field)
}

type fakeAirportTable struct {
	known map[string]bool
}

func (t fakeAirportTable) Has(code string) bool { return t.known[code] }

func TestValidateCrossChecksAgainstAirportTable(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	v := New(validSite(), fakeAirportTable{known: map[string]bool{"THR": true}})
	v.now = func() time.Time { return now }

	reject := v.Validate(validFlight(now))
	require.NotNil(t, reject)
	assert.Equal(t, "destIata", reject.Field)
}
