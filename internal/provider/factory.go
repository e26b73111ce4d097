package provider

import (
	"fmt"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/parse"
	"github.com/flightcrawl/enginecore/internal/session"
)

// Factory builds a domain.Adapter for a SiteConfig, selecting the
// concrete implementation (HTTPAdapter or BrowserAdapter) by crawler
// kind and wiring in the Parser the parsing strategy selection (C2) picks
// for that site.
type Factory struct {
	sessions *session.Manager
}

// NewFactory builds a Factory sharing one session.Manager across every
// adapter it constructs.
func NewFactory(sessions *session.Manager) *Factory {
	return &Factory{sessions: sessions}
}

// Build constructs the adapter for site. Every call returns a fresh
// instance — adapters carry per-crawl mutable state (lastQuery) and must
// not be shared across concurrent crawls of the same site.
func (f *Factory) Build(site *domain.SiteConfig) (domain.Adapter, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}

	parser, err := parse.NewParser(site)
	if err != nil {
		return nil, domain.NewCrawlError(site.SiteID, site.HostKey(), 0, domain.KindConfig, false, err)
	}

	switch site.CrawlerKind {
	case domain.CrawlerJavaScriptHeavy:
		return NewBrowserAdapter(site, f.sessions.Browser, parser), nil
	case domain.CrawlerHTMLForm, domain.CrawlerAPIJSON, domain.CrawlerPersianAirline, domain.CrawlerInternationalAggregator:
		return NewHTTPAdapter(site, f.sessions.HTTP, parser), nil
	default:
		return nil, fmt.Errorf("provider: no adapter for crawler kind %q", site.CrawlerKind)
	}
}
