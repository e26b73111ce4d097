package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSiteConfigFixture() SiteConfig {
	return SiteConfig{
		SiteID:      "mahan_air",
		Name:        "Mahan Air",
		BaseURL:     "https://www.mahan.aero/search",
		CrawlerKind: CrawlerPersianAirline,
		Language:    "fa",
		RequiredFields: []string{"flightNumber", "airlineCode"},
		PriceRange:    ValueRange{Min: 1000, Max: 100000000},
		DurationRange: ValueRange{Min: 30, Max: 1440},
		RateLimit:     RateLimitSpec{RequestsPerSecond: 2, Burst: 4, CooldownSeconds: 30},
		Retry:         RetrySpec{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond},
		Breaker:       BreakerSpec{FailureThreshold: 5, ResetSeconds: 60},
	}
}

func TestSiteConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*SiteConfig)
		expectError bool
	}{
		{name: "valid config", expectError: false},
		{name: "empty site id", modify: func(c *SiteConfig) { c.SiteID = "" }, expectError: true},
		{name: "uppercase site id", modify: func(c *SiteConfig) { c.SiteID = "MahanAir" }, expectError: true},
		{name: "site id with spaces", modify: func(c *SiteConfig) { c.SiteID = "mahan air" }, expectError: true},
		{name: "unrecognised crawler kind", modify: func(c *SiteConfig) { c.CrawlerKind = "carrier-pigeon" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSiteConfigFixture()
			if tt.modify != nil {
				tt.modify(&cfg)
			}
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSiteConfigHostKey(t *testing.T) {
	cfg := validSiteConfigFixture()
	assert.Equal(t, "www.mahan.aero", cfg.HostKey())
}

func TestValueRangeContains(t *testing.T) {
	r := ValueRange{Min: 30, Max: 1440}
	assert.True(t, r.Contains(30))
	assert.True(t, r.Contains(1440))
	assert.True(t, r.Contains(700))
	assert.False(t, r.Contains(29))
	assert.False(t, r.Contains(1441))
}

func TestCrawlerKindIsValid(t *testing.T) {
	tests := []struct {
		kind     CrawlerKind
		expected bool
	}{
		{CrawlerHTMLForm, true},
		{CrawlerAPIJSON, true},
		{CrawlerJavaScriptHeavy, true},
		{CrawlerPersianAirline, true},
		{CrawlerInternationalAggregator, true},
		{CrawlerKind("unknown"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.kind.IsValid())
	}
}
