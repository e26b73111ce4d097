package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validFlightFixture(now time.Time) Flight {
	return Flight{
		AirlineName:  "Mahan Air",
		AirlineCode:  "W5",
		FlightNumber: "W5-1230",
		OriginIATA:   "THR",
		DestIATA:     "MHD",
		DepartureUTC: now,
		ArrivalUTC:   now.Add(90 * time.Minute),
		DurationMin:  90,
		Price:        2500000,
		Currency:     "IRR",
		CabinClass:   CabinEconomy,
		SourceSite:   "mahanair",
		ExtractedAt:  now,
	}
}

func TestFlightIdentityStable(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 30, 45, 0, time.UTC)
	a := validFlightFixture(now)
	b := validFlightFixture(now)

	// Fields outside the identity tuple must not affect the hash.
	b.Price = 9999999
	b.AvailableSeats = intPtr(3)
	b.DepartureUTC = now.Add(10 * time.Second)

	assert.Equal(t, a.Identity(), b.Identity())
}

func TestFlightIdentityChangesWithKeyFields(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	a := validFlightFixture(now)
	b := validFlightFixture(now)
	b.CabinClass = CabinBusiness

	assert.NotEqual(t, a.Identity(), b.Identity())
}

func TestFlightValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		modify      func(*Flight)
		expectError bool
		errorType   error
	}{
		{name: "valid flight", expectError: false},
		{
			name: "arrival before departure",
			modify: func(f *Flight) {
				f.ArrivalUTC = f.DepartureUTC.Add(-time.Hour)
			},
			expectError: true,
			errorType:   ErrInvalidFlightTimes,
		},
		{
			name: "arrival equal to departure",
			modify: func(f *Flight) {
				f.ArrivalUTC = f.DepartureUTC
			},
			expectError: true,
			errorType:   ErrInvalidFlightTimes,
		},
		{
			name: "duration below 30 minute floor",
			modify: func(f *Flight) {
				f.DurationMin = 15
				f.ArrivalUTC = f.DepartureUTC.Add(15 * time.Minute)
			},
			expectError: true,
			errorType:   ErrInvalidFlightTimes,
		},
		{
			name: "duration above 1440 minute ceiling",
			modify: func(f *Flight) {
				f.DurationMin = 1500
				f.ArrivalUTC = f.DepartureUTC.Add(1500 * time.Minute)
			},
			expectError: true,
			errorType:   ErrInvalidFlightTimes,
		},
		{
			name: "duration inconsistent with gap beyond tolerance",
			modify: func(f *Flight) {
				f.DurationMin = 90
				f.ArrivalUTC = f.DepartureUTC.Add(70 * time.Minute)
			},
			expectError: true,
			errorType:   ErrInvalidFlightTimes,
		},
		{
			name: "duration within 2-minute tolerance is accepted",
			modify: func(f *Flight) {
				f.DurationMin = 90
				f.ArrivalUTC = f.DepartureUTC.Add(88 * time.Minute)
			},
			expectError: false,
		},
		{
			name: "missing flight number",
			modify: func(f *Flight) {
				f.FlightNumber = ""
			},
			expectError: true,
			errorType:   ErrMissingRequiredField,
		},
		{
			name: "missing airline code",
			modify: func(f *Flight) {
				f.AirlineCode = ""
			},
			expectError: true,
			errorType:   ErrMissingRequiredField,
		},
		{
			name: "missing origin",
			modify: func(f *Flight) {
				f.OriginIATA = ""
			},
			expectError: true,
			errorType:   ErrMissingRequiredField,
		},
		{
			name: "missing destination",
			modify: func(f *Flight) {
				f.DestIATA = ""
			},
			expectError: true,
			errorType:   ErrMissingRequiredField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFlightFixture(now)
			if tt.modify != nil {
				tt.modify(&f)
			}
			err := f.Validate()
			if tt.expectError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{150, "2h 30m"},
		{120, "2h"},
		{45, "45m"},
		{0, "0m"},
		{60, "1h"},
		{1, "1m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.minutes))
	}
}

func intPtr(v int) *int { return &v }
