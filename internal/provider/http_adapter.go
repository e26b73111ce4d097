// Package provider holds the C7 Adapter Contract & Factory: concrete
// domain.Adapter implementations plus the Factory that builds one from a
// SiteConfig, generalized away from one hardcoded adapter type per
// airline into crawler-kind-driven adapters, since the per-site behaviour
// here is entirely data (the SiteConfig's extraction map and URL), not
// per-site Go code.
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/parse"
	"github.com/flightcrawl/enginecore/internal/session"
)

// HTTPAdapter serves every non-browser crawler kind (html-form, api-json,
// persian-airline, international-aggregator): one pooled HTTP round trip
// per Search, delegating extraction to the Parser the Factory wired for
// this site's kind/language.
type HTTPAdapter struct {
	site    *domain.SiteConfig
	pool    *session.HTTPPool
	parser  parse.Parser
	method  string

	lastQuery domain.SearchQuery
}

// NewHTTPAdapter builds an HTTPAdapter for site. html-form sites submit
// via POST (mirroring a browser form submission); every other kind issues
// a GET with the query encoded as URL parameters.
func NewHTTPAdapter(site *domain.SiteConfig, pool *session.HTTPPool, parser parse.Parser) *HTTPAdapter {
	method := http.MethodGet
	if site.CrawlerKind == domain.CrawlerHTMLForm {
		method = http.MethodPost
	}
	return &HTTPAdapter{site: site, pool: pool, parser: parser, method: method}
}

// Search performs the adapter's HTTP round trip for query and returns the
// raw response body as a Document. Honours ctx cancellation via the
// request's context.
func (a *HTTPAdapter) Search(ctx context.Context, query domain.SearchQuery) (domain.Document, error) {
	a.lastQuery = query

	values := queryValues(query)

	var req *http.Request
	var err error
	if a.method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, a.site.BaseURL, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		target := a.site.BaseURL
		if u, parseErr := url.Parse(a.site.BaseURL); parseErr == nil {
			u.RawQuery = values.Encode()
			target = u.String()
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}
	if err != nil {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindConfig, false, err)
	}

	resp, err := a.pool.Do(req)
	if err != nil {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindNetwork, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindRateLimit, true,
			fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindNetwork, true,
			fmt.Errorf("http %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindProtocol, false,
			fmt.Errorf("http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Document{}, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindNetwork, true, err)
	}

	return domain.Document{
		Raw:         body,
		ContentType: resp.Header.Get("Content-Type"),
		SiteID:      a.site.SiteID,
		FetchedAt:   time.Now().Unix(),
	}, nil
}

// ParseList delegates to the wired Parser, reusing the query from the
// immediately preceding Search call (the two are always invoked
// sequentially on the same adapter instance by the scheduler's worker).
func (a *HTTPAdapter) ParseList(ctx context.Context, doc domain.Document) ([]domain.Flight, []domain.Diagnostic, error) {
	flights, diagnostics, err := a.parser.ParseList(ctx, doc, parse.ParseContext{
		Phase: parse.PhaseSearchResults,
		Query: a.lastQuery,
	})
	if err != nil {
		return nil, nil, domain.NewCrawlError(a.site.SiteID, a.site.HostKey(), 0, domain.KindParse, false, err)
	}
	return flights, diagnostics, nil
}

// Close is a no-op: HTTPAdapter holds no resources beyond the shared,
// externally-owned *session.HTTPPool.
func (a *HTTPAdapter) Close() error { return nil }

func queryValues(q domain.SearchQuery) url.Values {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	v.Set("departureDate", q.DepartureDate.Format("2006-01-02"))
	if q.ReturnDate != nil {
		v.Set("returnDate", q.ReturnDate.Format("2006-01-02"))
	}
	v.Set("adults", strconv.Itoa(q.Passengers.Adults))
	v.Set("children", strconv.Itoa(q.Passengers.Children))
	v.Set("infants", strconv.Itoa(q.Passengers.Infants))
	if q.CabinClass != "" {
		v.Set("cabinClass", string(q.CabinClass))
	}
	return v
}
