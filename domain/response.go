package domain

import "time"

// CrawlResult is what Crawl(query, site-set, options, ctx) returns:
// the fanned-in, deduplicated, sorted flight set plus a per-site accounting
// of what happened.
type CrawlResult struct {
	JobID      string                 `json:"jobId"`
	Query      SearchQuery            `json:"query"`
	Status     JobStatus              `json:"status"`
	Flights    []Flight               `json:"flights"`
	SiteStates map[string]SiteState   `json:"siteStates"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt time.Time              `json:"finishedAt"`
}

// NewCrawlResult builds a CrawlResult from a resolved CrawlJob and its
// fanned-in flight set. flights must already be deduplicated by flight
// identity and sorted per the caller's requested SortOption (best-value
// by default).
func NewCrawlResult(job *CrawlJob, flights []Flight, finishedAt time.Time) CrawlResult {
	if flights == nil {
		flights = []Flight{}
	}
	return CrawlResult{
		JobID:      job.ID,
		Query:      job.Query,
		Status:     job.Status,
		Flights:    flights,
		SiteStates: job.SiteStates,
		StartedAt:  job.CreatedAt,
		FinishedAt: finishedAt,
	}
}

// SiteResult is the outcome a single adapter worker reports back to the
// scheduler for fan-in, before it is folded into SiteState.
type SiteResult struct {
	SiteID  string
	Flights []Flight
	Err     error
	Latency time.Duration
}

// IsSuccess reports whether the site query succeeded.
func (r *SiteResult) IsSuccess() bool {
	return r.Err == nil
}
