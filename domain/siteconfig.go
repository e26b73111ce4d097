package domain

import (
	"net/url"
	"regexp"
	"time"
)

// CrawlerKind enumerates the adapter families C7's Factory can build.
type CrawlerKind string

const (
	CrawlerHTMLForm               CrawlerKind = "html-form"
	CrawlerAPIJSON                CrawlerKind = "api-json"
	CrawlerJavaScriptHeavy        CrawlerKind = "javascript-heavy"
	CrawlerPersianAirline         CrawlerKind = "persian-airline"
	CrawlerInternationalAggregator CrawlerKind = "international-aggregator"
)

// IsValid reports whether k is one of the recognised crawler kinds.
func (k CrawlerKind) IsValid() bool {
	switch k {
	case CrawlerHTMLForm, CrawlerAPIJSON, CrawlerJavaScriptHeavy, CrawlerPersianAirline, CrawlerInternationalAggregator:
		return true
	default:
		return false
	}
}

var siteIDRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValueRange is a closed [Min, Max] bound used for price and duration
// validation.
type ValueRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Contains reports whether v falls within the range, inclusive.
func (r ValueRange) Contains(v int64) bool {
	return v >= r.Min && v <= r.Max
}

// RateLimitSpec is the per-site C3 configuration.
type RateLimitSpec struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	CooldownSeconds   int     `json:"cooldown_seconds"`
}

// RetrySpec is the per-site C5 configuration.
type RetrySpec struct {
	MaxAttempts int           `json:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay"`
}

// BreakerSpec is the per-site C4 configuration.
type BreakerSpec struct {
	FailureThreshold int `json:"failure_threshold"`
	ResetSeconds     int `json:"reset_seconds"`
}

// ExtractionField maps one canonical Flight field name to the locator
// string the parser should use to find it. The locator dialect
// (CSS selector, JSON path, ...) is determined by the owning SiteConfig's
// CrawlerKind; the Locator interface in internal/parse is deliberately
// agnostic to which dialect produced the string.
type ExtractionField struct {
	FieldName string `json:"field_name"`
	Locator   string `json:"locator"`
}

// FeatureFlags are optional per-site behavioural toggles.
type FeatureFlags struct {
	PersianTextProcessing bool `json:"persian_processing,omitempty"`
	JalaliCalendar        bool `json:"jalali_calendar,omitempty"`
	ProxyUsage            bool `json:"proxy_config,omitempty"`
}

// AirlineAlias maps a scraped Persian or English airline-name variant to
// its canonical English name and two-letter IATA code.
type AirlineAlias struct {
	CanonicalName string `json:"canonical_name"`
	IATACode      string `json:"iata_code"`
}

// SiteConfig is the immutable, load-time-validated description of one
// target site. It is produced once by internal/siteconfig and never
// mutated after load; adapters hold only a read-only reference.
type SiteConfig struct {
	SiteID          string                  `json:"site_id"`
	Name            string                  `json:"name"`
	BaseURL         string                  `json:"search_url"`
	CrawlerKind     CrawlerKind             `json:"crawler_type"`
	Language        string                  `json:"language"`
	Extraction      []ExtractionField       `json:"extraction_config"`
	RequiredFields  []string                `json:"required_fields"`
	PriceRange      ValueRange              `json:"price_range"`
	DurationRange   ValueRange              `json:"duration_range"`
	RateLimit       RateLimitSpec           `json:"rate_limit"`
	Retry           RetrySpec               `json:"retry"`
	Breaker         BreakerSpec             `json:"circuit_breaker"`
	Credentials     map[string]string       `json:"b2b_credentials,omitempty"`
	Features        FeatureFlags            `json:"features,omitempty"`
	Disabled        bool                    `json:"disabled,omitempty"`
	DefaultCurrency string                  `json:"default_currency,omitempty"`
	AirlineAliases  map[string]AirlineAlias `json:"airline_aliases,omitempty"`
}

// HostKey returns the host this site's requests are rate-limited and
// breaker-tracked under. Two SiteConfigs sharing a host share the same
// HostState.
func (c *SiteConfig) HostKey() string {
	return hostOf(c.BaseURL)
}

// Validate checks the load-time invariants a SiteConfig must satisfy: a
// unique-shaped site identifier and a recognised crawler kind. Uniqueness
// across a loaded set is the loader's (C11) responsibility, not this
// method's.
func (c *SiteConfig) Validate() error {
	if c.SiteID == "" {
		return NewCrawlError(c.SiteID, "", 0, KindConfig, false, ErrMissingRequiredField)
	}
	if !siteIDRegex.MatchString(c.SiteID) {
		return NewCrawlError(c.SiteID, "", 0, KindConfig, false, ErrInvalidRequest)
	}
	if !c.CrawlerKind.IsValid() {
		return NewCrawlError(c.SiteID, "", 0, KindConfig, false, ErrInvalidRequest)
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
