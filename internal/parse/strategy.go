package parse

import (
	"fmt"

	"github.com/flightcrawl/enginecore/domain"
)

// PersianParser is the parsing strategy for domestic Iranian carrier sites
// (`persian-airline` crawler kind): HTML-located, Jalali-dated, Toman/Rial
// priced.
type PersianParser struct {
	base
}

// NewPersianParser builds a PersianParser for site, selecting the locator
// dialect from its crawler kind.
func NewPersianParser(site *domain.SiteConfig) *PersianParser {
	return &PersianParser{base: newBase(site, localeLocator(site), nil)}
}

// InternationalParser is the parsing strategy for non-Persian carrier and
// `html-form`/`api-json`/`javascript-heavy` sites that print Gregorian
// dates and a single foreign currency.
type InternationalParser struct {
	base
}

// NewInternationalParser builds an InternationalParser for site.
func NewInternationalParser(site *domain.SiteConfig) *InternationalParser {
	return &InternationalParser{base: newBase(site, localeLocator(site), nil)}
}

// AggregatorParser is the parsing strategy for `international-aggregator`
// sites: every record additionally carries booking_source and
// is_aggregated = true, surfaced via BookingClass/FareRules tagging since
// the canonical Flight schema has no dedicated aggregator fields.
type AggregatorParser struct {
	base
}

// NewAggregatorParser builds an AggregatorParser for site.
func NewAggregatorParser(site *domain.SiteConfig) *AggregatorParser {
	p := &AggregatorParser{}
	p.base = newBase(site, localeLocator(site), func(f *domain.Flight) {
		if f.BookingClass == "" {
			f.BookingClass = site.Name
		}
		f.FareRules = appendAggregatorTag(f.FareRules)
	})
	return p
}

func appendAggregatorTag(fareRules string) string {
	const tag = "is_aggregated=true"
	if fareRules == "" {
		return tag
	}
	return fareRules + ";" + tag
}

// localeLocator picks the Locator dialect matching a site's crawler kind:
// api-json sites walk a decoded JSON document, everything else is scraped
// HTML.
func localeLocator(site *domain.SiteConfig) Locator {
	if site.CrawlerKind == domain.CrawlerAPIJSON {
		return JSONLocator{}
	}
	return HTMLLocator{}
}

// NewParser selects the Parser variant the Factory (C7) wires to a given
// SiteConfig, matching crawler-kind and language tag to a strategy.
func NewParser(site *domain.SiteConfig) (Parser, error) {
	switch {
	case site.CrawlerKind == domain.CrawlerInternationalAggregator:
		return NewAggregatorParser(site), nil
	case site.CrawlerKind == domain.CrawlerPersianAirline, site.Language == "fa":
		return NewPersianParser(site), nil
	case site.CrawlerKind == domain.CrawlerHTMLForm,
		site.CrawlerKind == domain.CrawlerAPIJSON,
		site.CrawlerKind == domain.CrawlerJavaScriptHeavy:
		return NewInternationalParser(site), nil
	default:
		return nil, fmt.Errorf("parse: no parsing strategy for crawler kind %q", site.CrawlerKind)
	}
}
