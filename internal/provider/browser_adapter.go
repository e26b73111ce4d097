package provider

import (
	"context"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/parse"
	"github.com/flightcrawl/enginecore/internal/session"
)

// BrowserAdapter serves the javascript-heavy crawler kind: sites whose
// flight list is rendered client-side (common on CRS-backed booking
// widgets) and has no stable server-rendered response to scrape directly.
type BrowserAdapter struct {
	site   *domain.SiteConfig
	pool   *session.BrowserPool
	parser parse.Parser

	lastQuery domain.SearchQuery
}

// NewBrowserAdapter builds a BrowserAdapter for site.
func NewBrowserAdapter(site *domain.SiteConfig, pool *session.BrowserPool, parser parse.Parser) *BrowserAdapter {
	return &BrowserAdapter{site: site, pool: pool, parser: parser}
}

// Search navigates to the site's BaseURL with origin/destination/date
// encoded as query parameters (no form is filled in), waits for the
// results list to render, and captures the resulting
// DOM as a Document. The browser context is released before returning,
// win or lose — the rendered HTML, not the live context, crosses the
// Search/ParseList boundary.
func (a *BrowserAdapter) Search(ctx context.Context, query domain.SearchQuery) (domain.Document, error) {
	a.lastQuery = query

	handle, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindInternal, true, err)
	}
	defer handle.Release()

	target := a.site.BaseURL
	if u, parseErr := url.Parse(a.site.BaseURL); parseErr == nil {
		u.RawQuery = queryValues(query).Encode()
		target = u.String()
	}

	var rendered string
	runErr := chromedp.Run(handle.Ctx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(resultsSelector(a.site), chromedp.ByQuery),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if runErr != nil {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindNetwork, true, runErr)
	}

	return domain.Document{
		Raw:         []byte(rendered),
		ContentType: "text/html",
		SiteID:      a.site.SiteID,
		FetchedAt:   time.Now().Unix(),
	}, nil
}

// ParseList delegates to the wired Parser exactly like HTTPAdapter.
func (a *BrowserAdapter) ParseList(ctx context.Context, doc domain.Document) ([]domain.Flight, []domain.Diagnostic, error) {
	flights, diagnostics, err := a.parser.ParseList(ctx, doc, parse.ParseContext{
		Phase: parse.PhaseSearchResults,
		Query: a.lastQuery,
	})
	if err != nil {
		return nil, nil, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindParse, false, err)
	}
	return flights, diagnostics, nil
}

// Close is a no-op: the leased browser context is already released at
// the end of Search; BrowserAdapter itself holds nothing beyond the
// shared, externally-owned *session.BrowserPool.
func (a *BrowserAdapter) Close() error { return nil }

// resultsSelector returns the container selector the extraction map
// declares, so the wait-for-render step and the parser agree on what
// "results rendered" means for this site.
func resultsSelector(site *domain.SiteConfig) string {
	for _, f := range site.Extraction {
		if f.FieldName == "_container" {
			return f.Locator
		}
	}
	return "body"
}
