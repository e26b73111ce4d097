package domain

import "context"

// Document is the raw payload an adapter's Search returns and its
// ParseList consumes — an HTML page, a JSON response body, or a rendered
// DOM snapshot from a headless browser, tagged with enough context for the
// Parsing Strategy (C2) to pick the right Locator dialect.
type Document struct {
	Raw         []byte
	ContentType string
	SiteID      string
	FetchedAt   int64 // unix seconds; avoids importing time for a single timestamp field
}

// Diagnostic is a single non-fatal issue raised while parsing or
// validating one record — a dropped zero-price row, a currency fallback,
// a validation rejection. Diagnostics never stop a crawl;
// they are aggregated and counted per site.
type Diagnostic struct {
	Field   string
	Reason  string
	Dropped bool
}

// Adapter is the contract every per-site crawler implements:
// Search performs the network/browser round-trip and returns a raw
// Document; ParseList turns that Document into candidate Flight records
// plus diagnostics; Close releases any adapter-held resources (sessions,
// browser contexts). A base runner wires rate limiting, circuit breaking,
// retry, and validation around these three methods — adapters themselves
// stay free of that cross-cutting concern.
//
//go:generate mockgen -destination=adapter_mock.go -package=domain github.com/flightcrawl/enginecore/domain Adapter
type Adapter interface {
	Search(ctx context.Context, query SearchQuery) (Document, error)
	ParseList(ctx context.Context, doc Document) ([]Flight, []Diagnostic, error)
	Close() error
}

// SiteKey identifies an adapter instance within the Factory's registry.
func (c *SiteConfig) SiteKey() string {
	return c.SiteID
}
