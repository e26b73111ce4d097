package parse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/normalize"
)

// Phase tags which page ParseList is being asked to read, matching the
// three phases a crawl round can pass through.
type Phase string

const (
	PhaseSearchResults Phase = "search-results"
	PhaseDetailPage    Phase = "detail-page"
	PhaseErrorPage     Phase = "error-page"
)

// ParseContext carries the phase plus the query a Document was fetched
// for — ParseList needs the query's departure date to compose a full
// timestamp out of a site that only prints a bare clock time.
type ParseContext struct {
	Phase Phase
	Query domain.SearchQuery
}

// containerSelector and fieldName constants the extraction map uses to
// name the per-record container and the canonical fields inside it. A
// site config's Extraction slice always includes one entry whose
// FieldName equals containerSelectorField; every other entry names a
// Flight field located relative to that container.
const containerSelectorField = "_container"

// Parser is the per-language/per-kind parsing strategy: constructed
// once per SiteConfig, it turns a Document into candidate Flight drafts
// plus diagnostics.
type Parser interface {
	ParseList(ctx context.Context, doc domain.Document, pctx ParseContext) ([]domain.Flight, []domain.Diagnostic, error)
}

// base holds the machinery shared by every Parser variant: locator
// selection, field extraction, normalisation, and the edge policies below.
// Embedding base and overriding decorate lets each variant add its
// own record-level tagging without duplicating the algorithm.
type base struct {
	site     *domain.SiteConfig
	locator  Locator
	decorate func(f *domain.Flight)
}

func newBase(site *domain.SiteConfig, locator Locator, decorate func(f *domain.Flight)) base {
	return base{site: site, locator: locator, decorate: decorate}
}

func (b base) ParseList(_ context.Context, doc domain.Document, pctx ParseContext) ([]domain.Flight, []domain.Diagnostic, error) {
	var diagnostics []domain.Diagnostic

	containerSelector := ""
	fields := make([]domain.ExtractionField, 0, len(b.site.Extraction))
	for _, f := range b.site.Extraction {
		if f.FieldName == containerSelectorField {
			containerSelector = f.Locator
			continue
		}
		fields = append(fields, f)
	}

	root, err := documentRoot(b.locator, doc)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: %w", err)
	}

	containers, err := b.locator.Select(root, containerSelector)
	if err != nil {
		return nil, nil, fmt.Errorf("parse: locating containers: %w", err)
	}

	byIdentity := make(map[string]domain.Flight)
	order := make([]string, 0, len(containers))

	for _, container := range containers {
		draft, recordDiagnostics, ok := b.extractOne(container, fields, pctx)
		diagnostics = append(diagnostics, recordDiagnostics...)
		if !ok {
			continue
		}

		draft.SourceSite = b.site.SiteID
		draft.ExtractedAt = time.Unix(doc.FetchedAt, 0).UTC()
		if b.decorate != nil {
			b.decorate(&draft)
		}

		id := draft.Identity()
		if existing, seen := byIdentity[id]; !seen || draft.ExtractedAt.After(existing.ExtractedAt) {
			byIdentity[id] = draft
			if !seen {
				order = append(order, id)
			}
		}
	}

	flights := make([]domain.Flight, 0, len(order))
	for _, id := range order {
		flights = append(flights, byIdentity[id])
	}
	return flights, diagnostics, nil
}

// documentRoot adapts doc.Raw to whatever root type the given locator
// expects: an HTMLLocator wants a parsed *goquery.Document built once per
// Document (not once per field), a JSONLocator wants the decoded value.
func documentRoot(locator Locator, doc domain.Document) (interface{}, error) {
	switch locator.(type) {
	case HTMLLocator:
		return asGoqueryDocument(doc.Raw)
	case JSONLocator:
		return asDecodedJSON(doc.Raw)
	default:
		return doc.Raw, nil
	}
}

func (b base) extractOne(container Node, fields []domain.ExtractionField, pctx ParseContext) (domain.Flight, []domain.Diagnostic, bool) {
	var diagnostics []domain.Diagnostic
	values := make(map[string]string, len(fields))

	containerRoot := containerAsRoot(container)
	for _, f := range fields {
		nodes, err := b.locator.Select(containerRoot, f.Locator)
		if err != nil || len(nodes) == 0 {
			if isRequired(b.site.RequiredFields, f.FieldName) {
				diagnostics = append(diagnostics, domain.Diagnostic{
					Field: f.FieldName, Reason: "missing required field", Dropped: true,
				})
				return domain.Flight{}, diagnostics, false
			}
			continue
		}
		values[f.FieldName] = nodes[0].Text()
	}

	for _, required := range b.site.RequiredFields {
		if _, ok := values[required]; !ok {
			diagnostics = append(diagnostics, domain.Diagnostic{
				Field: required, Reason: "missing required field", Dropped: true,
			})
			return domain.Flight{}, diagnostics, false
		}
	}

	draft, fieldDiagnostics, ok := b.compose(values, pctx)
	diagnostics = append(diagnostics, fieldDiagnostics...)
	return draft, diagnostics, ok
}

// containerAsRoot adapts a selected container Node back into a root value
// the same Locator implementation can re-Select against for each field.
func containerAsRoot(n Node) interface{} {
	switch v := n.(type) {
	case htmlNode:
		return v.sel
	case jsonNode:
		return v.value
	default:
		return n
	}
}

func isRequired(required []string, field string) bool {
	for _, r := range required {
		if r == field {
			return true
		}
	}
	return false
}

// compose runs the C1 normalisers over the raw extracted values and
// assembles a canonical Flight draft, applying the price/currency/time
// edge policies below.
func (b base) compose(values map[string]string, pctx ParseContext) (domain.Flight, []domain.Diagnostic, bool) {
	var diagnostics []domain.Diagnostic
	var f domain.Flight

	airlineName, airlineCode, unknownAirline := normalize.CanonicalizeAirlineName(values["airlineName"], b.site.AirlineAliases)
	f.AirlineName = airlineName
	if explicit := values["airlineCode"]; explicit != "" {
		f.AirlineCode = explicit
	} else {
		f.AirlineCode = airlineCode
	}
	if unknownAirline {
		diagnostics = append(diagnostics, domain.Diagnostic{Field: "airlineName", Reason: "airline name not in site's alias map", Dropped: false})
	}
	f.FlightNumber = values["flightNumber"]
	f.OriginIATA = values["originIata"]
	f.DestIATA = values["destIata"]
	f.CabinClass = domain.CabinClass(values["cabinClass"])
	f.BaggageAllowance = values["baggageAllowance"]
	f.FareRules = values["fareRules"]
	f.RefundPolicy = values["refundPolicy"]
	f.BookingClass = values["bookingClass"]
	f.FareBasis = values["fareBasis"]
	f.AircraftType = values["aircraftType"]
	f.PromotionCode = values["promotionCode"]

	if raw, ok := values["price"]; ok {
		amount, err := normalize.ExtractNumber(raw)
		if err != nil {
			diagnostics = append(diagnostics, domain.Diagnostic{Field: "price", Reason: err.Error(), Dropped: true})
			return f, diagnostics, false
		}
		if amount == 0 {
			diagnostics = append(diagnostics, domain.Diagnostic{Field: "price", Reason: "zero price, not bookable", Dropped: true})
			return f, diagnostics, false
		}
		f.Price = amount
	}

	currency := values["currency"]
	switch {
	case currency != "":
		f.Currency = normalize.CurrencyAlias(currency)
	case b.site.DefaultCurrency != "":
		f.Currency = b.site.DefaultCurrency
		diagnostics = append(diagnostics, domain.Diagnostic{Field: "currency", Reason: "defaulted to site currency", Dropped: false})
	default:
		diagnostics = append(diagnostics, domain.Diagnostic{Field: "currency", Reason: "no currency declared and no site default", Dropped: true})
		return f, diagnostics, false
	}

	departure, err := b.composeTimestamp(values["departureTime"], values["departureDate"], pctx)
	if err != nil {
		diagnostics = append(diagnostics, domain.Diagnostic{Field: "departureUtc", Reason: err.Error(), Dropped: true})
		return f, diagnostics, false
	}
	f.DepartureUTC = departure

	arrival, err := b.composeTimestamp(values["arrivalTime"], values["arrivalDate"], pctx)
	if err != nil {
		diagnostics = append(diagnostics, domain.Diagnostic{Field: "arrivalUtc", Reason: err.Error(), Dropped: true})
		return f, diagnostics, false
	}
	f.ArrivalUTC = arrival

	f.DurationMin = int(arrival.Sub(departure).Minutes())
	if raw, ok := values["durationMinutes"]; ok && raw != "" {
		if minutes, err := normalize.ExtractNumber(raw); err == nil {
			f.DurationMin = int(minutes)
		}
	}

	if raw, ok := values["availableSeats"]; ok && raw != "" {
		if n, err := normalize.ExtractNumber(raw); err == nil {
			seats := int(n)
			f.AvailableSeats = &seats
		}
	}
	if raw, ok := values["loyaltyMiles"]; ok && raw != "" {
		if n, err := normalize.ExtractNumber(raw); err == nil {
			miles := int(n)
			f.LoyaltyMiles = &miles
		}
	}

	return f, diagnostics, true
}

// composeTimestamp normalises a clock-time (optionally bare, without a
// date part) into a UTC instant, combining it with the query's departure
// date when the site prints time-only values.
func (b base) composeTimestamp(timeRaw, dateRaw string, pctx ParseContext) (time.Time, error) {
	hour, minute, err := normalize.ParseClockTime(timeRaw)
	if err != nil {
		return time.Time{}, err
	}

	day := pctx.Query.DepartureDate
	if dateRaw != "" {
		if b.site.Features.JalaliCalendar {
			jy, jm, jd, jerr := parseJalaliDate(dateRaw)
			if jerr == nil {
				if g, gerr := normalize.JalaliToGregorian(jy, jm, jd); gerr == nil {
					day = g
				}
			}
		} else if g, gerr := parseGregorianDate(dateRaw); gerr == nil {
			// A site that prints an explicit Gregorian date (rather than a
			// bare time) must have it honored too, or an overnight
			// departure/arrival silently collapses onto the query's
			// single departure date.
			day = g
		}
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

// parseJalaliDate parses a "YYYY/MM/DD" or "YYYY-MM-DD" Jalali date string,
// tolerant of Persian/Arabic-Indic digits.
func parseJalaliDate(raw string) (jy, jm, jd int, err error) {
	normalized := strings.NewReplacer("-", "/").Replace(normalize.NormalizeDigits(raw))
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("normalize: invalid jalali date %q", raw)
	}
	jy, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, 0, err
	}
	jm, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, 0, err
	}
	jd, err = strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, 0, 0, err
	}
	return jy, jm, jd, nil
}

// parseGregorianDate parses a "YYYY-MM-DD" or "YYYY/MM/DD" Gregorian date
// string, tolerant of Persian/Arabic-Indic digits.
func parseGregorianDate(raw string) (time.Time, error) {
	normalized := strings.NewReplacer("/", "-").Replace(normalize.NormalizeDigits(strings.TrimSpace(raw)))
	if t, err := time.Parse("2006-01-02", normalized); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("normalize: invalid gregorian date %q", raw)
}
