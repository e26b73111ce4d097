package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/scheduler"
	"github.com/urfave/cli/v2"
)

var crawlCommand = &cli.Command{
	Name:  "crawl",
	Usage: "run one crawl against a site set and print the fanned-in results",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "origin", Required: true, Usage: "origin IATA code"},
		&cli.StringFlag{Name: "destination", Required: true, Usage: "destination IATA code"},
		&cli.StringFlag{Name: "date", Required: true, Usage: "departure date, YYYY-MM-DD"},
		&cli.StringFlag{Name: "return", Usage: "return date, YYYY-MM-DD (round trip)"},
		&cli.StringFlag{Name: "sites", Usage: "comma-separated site ids; defaults to every enabled site"},
		&cli.StringFlag{Name: "config-dir", Usage: "site-config directory; defaults to SITE_CONFIG_DIR"},
		&cli.IntFlag{Name: "date-range", Usage: "expand departure date to +/-N days"},
		&cli.BoolFlag{Name: "json", Usage: "print the CrawlResult as JSON"},
	},
	Action: runCrawl,
}

func runCrawl(c *cli.Context) error {
	eng, err := newEngine(c.String("config-dir"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("flightcrawl: %v", err), exitConfigError)
	}
	defer eng.Close()

	query, err := buildQuery(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("flightcrawl: %v", err), exitConfigError)
	}

	sites, err := selectSites(eng, c.String("sites"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("flightcrawl: %v", err), exitConfigError)
	}
	if len(sites) == 0 {
		return cli.Exit("flightcrawl: no enabled sites to crawl", exitConfigError)
	}

	jobID := scheduler.NewJobID()
	events, unsubscribe := eng.bus.Subscribe(jobID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(events)
	}()

	opts := scheduler.Options{JobID: jobID, Sort: domain.SortByBestValue}
	result, _ := eng.scheduler.Crawl(c.Context, query, sites, opts)

	unsubscribe()
	<-done

	if c.Bool("json") {
		printResultJSON(result)
	} else {
		printResultTable(result)
	}

	return exitForStatus(result.Status)
}

func buildQuery(c *cli.Context) (domain.SearchQuery, error) {
	departure, err := time.Parse("2006-01-02", c.String("date"))
	if err != nil {
		return domain.SearchQuery{}, fmt.Errorf("invalid --date %q: %w", c.String("date"), err)
	}

	query := domain.SearchQuery{
		Origin:        strings.ToUpper(c.String("origin")),
		Destination:   strings.ToUpper(c.String("destination")),
		DepartureDate: departure,
		Passengers:    domain.PassengerCounts{Adults: 1},
	}

	if raw := c.String("return"); raw != "" {
		ret, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return domain.SearchQuery{}, fmt.Errorf("invalid --return %q: %w", raw, err)
		}
		query.ReturnDate = &ret
	}

	if days := c.Int("date-range"); days > 0 {
		query.EnableDateRange = true
		query.DateRangeDays = days
	}

	query.SetDefaults()
	if err := query.Validate(time.Now()); err != nil {
		return domain.SearchQuery{}, err
	}
	return query, nil
}

func selectSites(eng *engine, csv string) ([]domain.SiteConfig, error) {
	if csv == "" {
		return eng.store.Sites(), nil
	}

	var sites []domain.SiteConfig
	for _, id := range strings.Split(csv, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		site, ok := eng.store.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown site id %q", id)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func exitForStatus(status domain.JobStatus) error {
	switch status {
	case domain.JobComplete:
		return nil
	case domain.JobPartial:
		return cli.Exit("", exitPartialFailed)
	case domain.JobCancelled:
		return cli.Exit("", exitCancelled)
	default:
		return cli.Exit("", exitAllFailed)
	}
}

// printProgress drains events, printing one line per site-level milestone
// to stderr so a long crawl gives the operator live feedback ahead of the
// final result table. It returns once the channel closes (runCrawl's
// unsubscribe call on the bus subscription, once Crawl returns).
func printProgress(events <-chan domain.CrawlEvent) {
	for event := range events {
		switch event.Kind {
		case domain.EventSiteStarted:
			p := event.Payload.(domain.SiteStartedPayload)
			fmt.Fprintf(os.Stderr, "[%s] started\n", p.SiteID)
		case domain.EventSiteProgress:
			p := event.Payload.(domain.SiteProgressPayload)
			fmt.Fprintf(os.Stderr, "[%s] attempt %d: %s\n", p.SiteID, p.Attempt, p.Reason)
		case domain.EventFlightsFound:
			p := event.Payload.(domain.FlightsFoundPayload)
			fmt.Fprintf(os.Stderr, "[%s] +%d flight(s)\n", p.SiteID, p.Delta)
		case domain.EventSiteFailed:
			p := event.Payload.(domain.SiteFailedPayload)
			fmt.Fprintf(os.Stderr, "[%s] failed: %s\n", p.SiteID, p.Message)
		case domain.EventSiteCompleted:
			p := event.Payload.(domain.SiteCompletedPayload)
			fmt.Fprintf(os.Stderr, "[%s] done: %d flight(s) in %s\n", p.SiteID, p.Count, p.Latency)
		}
	}
}

func printResultJSON(result domain.CrawlResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func printResultTable(result domain.CrawlResult) {
	fmt.Printf("job %s: %s (%d flight(s) from %d site(s))\n", result.JobID, result.Status, len(result.Flights), len(result.SiteStates))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AIRLINE\tFLIGHT\tROUTE\tDEPARTS\tDURATION\tPRICE\tSITE")
	for _, f := range result.Flights {
		fmt.Fprintf(w, "%s\t%s\t%s-%s\t%s\t%s\t%d %s\t%s\n",
			f.AirlineName, f.FlightNumber, f.OriginIATA, f.DestIATA,
			f.DepartureUTC.Format(time.RFC3339), domain.FormatDuration(f.DurationMin),
			f.Price, f.Currency, f.SourceSite)
	}
	_ = w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SITE\tOUTCOME\tFLIGHTS\tATTEMPTS\tLATENCY\tNOTE")
	for _, site := range result.SiteStates {
		note := site.SkipReason
		if note == "" {
			note = site.FailureMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", site.SiteID, site.Outcome, site.FlightCount, site.Attempts, site.Latency, note)
	}
	_ = w.Flush()
}
