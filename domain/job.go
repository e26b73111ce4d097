package domain

import "time"

// JobStatus is the terminal or in-flight status of a CrawlJob.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobPartial   JobStatus = "partial"
	JobComplete  JobStatus = "complete"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether a status is one a CrawlJob freezes at.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobComplete, JobPartial, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// SiteOutcome is the terminal disposition the scheduler records for one
// site within a job.
type SiteOutcome string

const (
	SiteOutcomePending   SiteOutcome = "pending"
	SiteOutcomeRunning   SiteOutcome = "running"
	SiteOutcomeSkipped   SiteOutcome = "skipped"
	SiteOutcomeCompleted SiteOutcome = "completed"
	SiteOutcomeFailed    SiteOutcome = "failed"
)

// SiteState is one site's sub-state within a CrawlJob. SkipReason is
// populated only when Outcome is SiteOutcomeSkipped (e.g. "breaker-open",
// "unknown-site", "disabled"); FailureKind/FailureMessage only when
// Outcome is SiteOutcomeFailed.
type SiteState struct {
	SiteID         string        `json:"siteId"`
	Outcome        SiteOutcome   `json:"outcome"`
	SkipReason     string        `json:"skipReason,omitempty"`
	FailureKind    ErrorKind     `json:"failureKind,omitempty"`
	FailureMessage string        `json:"failureMessage,omitempty"`
	FlightCount    int           `json:"flightCount"`
	Latency        time.Duration `json:"latency"`
	Attempts       int           `json:"attempts"`
}

// CrawlJob is the runtime record a scheduler creates for one Crawl
// invocation. It is exclusively owned and mutated by its scheduler
// worker group and frozen once Status reaches a terminal value.
type CrawlJob struct {
	ID          string               `json:"id"`
	Query       SearchQuery          `json:"query"`
	SiteIDs     []string             `json:"siteIds"`
	CreatedAt   time.Time            `json:"createdAt"`
	Status      JobStatus            `json:"status"`
	SiteStates  map[string]SiteState `json:"siteStates"`
	EventCursor int64                `json:"eventCursor"`
}

// NewCrawlJob creates a pending CrawlJob for the given query against the
// given resolved site-set.
func NewCrawlJob(id string, query SearchQuery, siteIDs []string, createdAt time.Time) *CrawlJob {
	states := make(map[string]SiteState, len(siteIDs))
	for _, id := range siteIDs {
		states[id] = SiteState{SiteID: id, Outcome: SiteOutcomePending}
	}
	return &CrawlJob{
		ID:         id,
		Query:      query,
		SiteIDs:    siteIDs,
		CreatedAt:  createdAt,
		Status:     JobPending,
		SiteStates: states,
	}
}

// Resolve computes the job's terminal status from its per-site outcomes.
// Skipped sites are left out of the count; among the rest it is complete
// iff every site succeeded, partial iff at least one succeeded and at least
// one did not, failed iff none succeeded (or every site was skipped).
func (j *CrawlJob) Resolve() JobStatus {
	succeeded, attempted := 0, 0
	for _, st := range j.SiteStates {
		if st.Outcome == SiteOutcomeSkipped {
			continue
		}
		attempted++
		if st.Outcome == SiteOutcomeCompleted {
			succeeded++
		}
	}
	switch {
	case attempted == 0:
		return JobFailed
	case succeeded == attempted:
		return JobComplete
	case succeeded == 0:
		return JobFailed
	default:
		return JobPartial
	}
}
