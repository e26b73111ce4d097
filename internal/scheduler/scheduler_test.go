package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/breaker"
	"github.com/flightcrawl/enginecore/internal/eventbus"
	"github.com/flightcrawl/enginecore/internal/provider"
	"github.com/flightcrawl/enginecore/internal/ratelimit"
	"github.com/flightcrawl/enginecore/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiJSONSite(baseURL, siteID string) domain.SiteConfig {
	return domain.SiteConfig{
		SiteID:          siteID,
		Name:            siteID,
		BaseURL:         baseURL,
		CrawlerKind:     domain.CrawlerAPIJSON,
		Language:        "fa",
		DefaultCurrency: "IRR",
		RequiredFields:  []string{"flightNumber", "originIata", "destIata", "price"},
		PriceRange:      domain.ValueRange{Min: 0, Max: 100_000_000},
		DurationRange:   domain.ValueRange{Min: 30, Max: 1440},
		RateLimit:       domain.RateLimitSpec{RequestsPerSecond: 50, Burst: 10},
		Retry:           domain.RetrySpec{MaxAttempts: 2, BaseDelay: time.Millisecond},
		Breaker:         domain.BreakerSpec{FailureThreshold: 3, ResetSeconds: 1},
		Extraction: []domain.ExtractionField{
			{FieldName: "_container", Locator: "flights[]"},
			{FieldName: "flightNumber", Locator: "flightNumber"},
			{FieldName: "airlineCode", Locator: "airlineCode"},
			{FieldName: "originIata", Locator: "origin"},
			{FieldName: "destIata", Locator: "dest"},
			{FieldName: "price", Locator: "price"},
			{FieldName: "currency", Locator: "currency"},
			{FieldName: "departureTime", Locator: "departureTime"},
			{FieldName: "arrivalTime", Locator: "arrivalTime"},
		},
	}
}

func newTestScheduler() *Scheduler {
	factory := provider.NewFactory(session.NewManager(session.DefaultHTTPPoolConfig(), session.DefaultBrowserPoolConfig()))
	return New(factory, ratelimit.New(), breaker.New(), eventbus.New(0), DefaultTimeouts(), DefaultWorkerPool(), nil)
}

func flightsJSONServer(t *testing.T, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func testQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Origin: "THR", Destination: "MHD",
		DepartureDate: time.Now().Add(24 * time.Hour),
		Passengers:    domain.PassengerCounts{Adults: 1},
	}
}

func TestCrawlReturnsFlightsFromASuccessfulSite(t *testing.T) {
	server := flightsJSONServer(t, `{"flights":[{"flightNumber":"W5-1071","airlineCode":"W5","origin":"THR","dest":"MHD","price":"1200000","currency":"IRR","departureTime":"08:30","arrivalTime":"10:00"}]}`)
	defer server.Close()

	s := newTestScheduler()
	site := apiJSONSite(server.URL, "mahanair")

	result, err := s.Crawl(context.Background(), testQuery(), []domain.SiteConfig{site}, Options{Sort: domain.SortByPrice})
	require.NoError(t, err)
	require.Len(t, result.Flights, 1)
	assert.Equal(t, "W5-1071", result.Flights[0].FlightNumber)
	assert.Equal(t, domain.JobComplete, result.Status)
	assert.Equal(t, 1, result.SiteStates["mahanair"].FlightCount)
}

func TestCrawlMarksSiteFailedWhenServerAlwaysErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestScheduler()
	site := apiJSONSite(server.URL, "mahanair")

	result, err := s.Crawl(context.Background(), testQuery(), []domain.SiteConfig{site}, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Flights)
	assert.Equal(t, domain.JobFailed, result.Status)
	assert.Equal(t, domain.SiteOutcomeFailed, result.SiteStates["mahanair"].Outcome)
}

func TestCrawlSkipsDisabledSites(t *testing.T) {
	server := flightsJSONServer(t, `{"flights":[]}`)
	defer server.Close()

	s := newTestScheduler()
	site := apiJSONSite(server.URL, "mahanair")
	site.Disabled = true

	result, err := s.Crawl(context.Background(), testQuery(), []domain.SiteConfig{site}, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.SiteOutcomeSkipped, result.SiteStates["mahanair"].Outcome)
	assert.Equal(t, "disabled", result.SiteStates["mahanair"].SkipReason)
}

func TestCrawlSkipsSiteWhenBreakerAlreadyOpen(t *testing.T) {
	server := flightsJSONServer(t, `{"flights":[]}`)
	defer server.Close()

	circuit := breaker.New()
	site := apiJSONSite(server.URL, "mahanair")
	circuit.Configure(site.HostKey(), 1, time.Minute, 3600)
	circuit.RecordFailure(site.HostKey())
	require.Equal(t, breaker.Open, circuit.CurrentState(site.HostKey()))

	factory := provider.NewFactory(session.NewManager(session.DefaultHTTPPoolConfig(), session.DefaultBrowserPoolConfig()))
	s := New(factory, ratelimit.New(), circuit, eventbus.New(0), DefaultTimeouts(), DefaultWorkerPool(), nil)

	result, err := s.Crawl(context.Background(), testQuery(), []domain.SiteConfig{site}, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.SiteOutcomeSkipped, result.SiteStates["mahanair"].Outcome)
	assert.Equal(t, "breaker-open", result.SiteStates["mahanair"].SkipReason)
}

func TestCrawlMergesSiteStateAcrossDateRangeExpansion(t *testing.T) {
	server := flightsJSONServer(t, `{"flights":[{"flightNumber":"W5-1071","airlineCode":"W5","origin":"THR","dest":"MHD","price":"1200000","currency":"IRR","departureTime":"08:30","arrivalTime":"10:00"}]}`)
	defer server.Close()

	s := newTestScheduler()
	site := apiJSONSite(server.URL, "mahanair")

	query := testQuery()
	query.EnableDateRange = true
	query.DateRangeDays = 1

	result, err := s.Crawl(context.Background(), query, []domain.SiteConfig{site}, Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.SiteOutcomeCompleted, result.SiteStates["mahanair"].Outcome)
	assert.GreaterOrEqual(t, result.SiteStates["mahanair"].Attempts, 3)
}

func TestCrawlDropsFlightsFailingValidationWithoutFailingTheSite(t *testing.T) {
	// Price is well outside the site's declared range, so the Flight
	// Validator (C9) rejects the record; the adapter itself still
	// succeeded, so the site's outcome must stay completed.
	server := flightsJSONServer(t, `{"flights":[{"flightNumber":"W5-1071","airlineCode":"W5","origin":"THR","dest":"MHD","price":"999000000","currency":"IRR","departureTime":"08:30","arrivalTime":"10:00"}]}`)
	defer server.Close()

	s := newTestScheduler()
	site := apiJSONSite(server.URL, "mahanair")
	site.PriceRange = domain.ValueRange{Min: 0, Max: 5_000_000}

	result, err := s.Crawl(context.Background(), testQuery(), []domain.SiteConfig{site}, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Flights)
	assert.Equal(t, domain.SiteOutcomeCompleted, result.SiteStates["mahanair"].Outcome)
	assert.Equal(t, 0, result.SiteStates["mahanair"].FlightCount)
}
