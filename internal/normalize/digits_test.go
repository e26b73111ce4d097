package normalize

import (
	"testing"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "persian digits", input: "۱۲۳۴۵", expected: "12345"},
		{name: "arabic-indic digits", input: "٠١٢٣٤٥٦٧٨٩", expected: "0123456789"},
		{name: "mixed with persian text", input: "قیمت ۱۵۰۰۰۰۰ تومان", expected: "قیمت 1500000 تومان"},
		{name: "already ascii", input: "12:30", expected: "12:30"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDigits(tt.input))
		})
	}
}

func TestExtractNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain toman amount", input: "1,500,000 Toman", want: 1500000},
		{name: "persian toman suffix", input: "۱۵۰۰۰۰۰ تومان", want: 1500000},
		{name: "rial with dot separators", input: "15.000.000 Rial", want: 15000000},
		{name: "bare number", input: "850000", want: 850000},
		{name: "irr suffix", input: "299000 IRR", want: 299000},
		{name: "negative amount (refund marker) parses with its sign", input: "-500", want: -500},
		{name: "no digits", input: "تومان", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractNumber(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{name: "ascii time", input: "14:30", wantHour: 14, wantMinute: 30},
		{name: "persian digits", input: "۰۹:۰۵", wantHour: 9, wantMinute: 5},
		{name: "midnight", input: "00:00", wantHour: 0, wantMinute: 0},
		{name: "end of day", input: "23:59", wantHour: 23, wantMinute: 59},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "12:60", wantErr: true},
		{name: "missing colon", input: "1230", wantErr: true},
		{name: "non numeric", input: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m, err := ParseClockTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, h)
			assert.Equal(t, tt.wantMinute, m)
		})
	}
}

func TestCurrencyAlias(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "toman", input: "Toman", want: "IRR"},
		{name: "persian toman", input: "تومان", want: "IRR"},
		{name: "persian rial", input: "ریال", want: "IRR"},
		{name: "irr passthrough", input: "irr", want: "IRR"},
		{name: "unknown currency passthrough", input: "aed", want: "AED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrencyAlias(tt.input))
		})
	}
}

func TestCanonicalizeAirlineName(t *testing.T) {
	aliases := map[string]domain.AirlineAlias{
		"Iran Air": {CanonicalName: "IranAir", IATACode: "IR"},
		"هما":      {CanonicalName: "IranAir", IATACode: "IR"},
		"Mahan":    {CanonicalName: "Mahan Air", IATACode: "W5"},
	}

	tests := []struct {
		name        string
		input       string
		wantName    string
		wantCode    string
		wantWarning bool
	}{
		{name: "aliased english name", input: "Iran Air", wantName: "IranAir", wantCode: "IR"},
		{name: "aliased persian name", input: "هما", wantName: "IranAir", wantCode: "IR"},
		{name: "unknown name passes through trimmed with warning", input: "  Qeshm Air  ", wantName: "Qeshm Air", wantCode: "", wantWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotName, gotCode, gotWarning := CanonicalizeAirlineName(tt.input, aliases)
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, tt.wantCode, gotCode)
			assert.Equal(t, tt.wantWarning, gotWarning)
		})
	}
}
