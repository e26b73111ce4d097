package domain

import (
	"context"
	"time"
)

// EventKind identifies the type of a CrawlEvent.
type EventKind string

const (
	EventJobStarted    EventKind = "job_started"
	EventSiteStarted   EventKind = "site_started"
	EventSiteProgress  EventKind = "site_progress"
	EventSiteCompleted EventKind = "site_completed"
	EventSiteFailed    EventKind = "site_failed"
	EventFlightsFound  EventKind = "flights_found"
	EventJobCompleted  EventKind = "job_completed"
)

// Droppable reports whether the bus may discard events of this kind under
// back-pressure. Only SiteProgress and FlightsFound are droppable;
// every other kind must never be dropped.
func (k EventKind) Droppable() bool {
	return k == EventSiteProgress || k == EventFlightsFound
}

// CrawlEvent is the envelope every C10 event travels in. MessageID is a
// stable identifier subscribers use to de-duplicate under at-least-once
// delivery; Timestamp is always UTC; Seq orders events within one job.
type CrawlEvent struct {
	MessageID string    `json:"messageId"`
	JobID     string    `json:"jobId"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Seq       int64     `json:"seq"`
	Payload   any       `json:"payload"`
}

// JobStartedPayload accompanies EventJobStarted.
type JobStartedPayload struct {
	SiteIDs []string `json:"siteIds"`
}

// SiteStartedPayload accompanies EventSiteStarted.
type SiteStartedPayload struct {
	SiteID string `json:"siteId"`
}

// SiteProgressPayload accompanies EventSiteProgress.
type SiteProgressPayload struct {
	SiteID  string `json:"siteId"`
	Attempt int    `json:"attempt"`
	Reason  string `json:"reason"`
}

// SiteCompletedPayload accompanies EventSiteCompleted.
type SiteCompletedPayload struct {
	SiteID  string        `json:"siteId"`
	Count   int           `json:"count"`
	Latency time.Duration `json:"latency"`
	Bytes   int64         `json:"bytes"`
}

// SiteFailedPayload accompanies EventSiteFailed.
type SiteFailedPayload struct {
	SiteID  string    `json:"siteId"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// FlightsFoundPayload accompanies EventFlightsFound.
type FlightsFoundPayload struct {
	SiteID string `json:"siteId"`
	Delta  int    `json:"delta"`
}

// JobCompletedPayload accompanies EventJobCompleted.
type JobCompletedPayload struct {
	Status JobStatus      `json:"status"`
	Totals map[string]int `json:"totals"`
}

// Publisher is the producer side of the event bus the core consumes
//. Publish must not block indefinitely; back-pressure handling is the
// Publisher's responsibility.
type Publisher interface {
	Publish(ctx context.Context, event CrawlEvent) error
}

// Subscriber is the consumer side of the event bus: a channel of events
// for one job, closed when the job reaches a terminal status and the
// subscription is torn down.
type Subscriber interface {
	Subscribe(jobID string) (<-chan CrawlEvent, func())
}
