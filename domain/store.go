package domain

import (
	"context"
	"time"
)

// FlightStore is the persistence interface the core consumes but never
// implements: the relational/cache layer behind it is an
// external collaborator. The core never issues raw queries — only these
// three operations.
type FlightStore interface {
	// UpsertBatch writes flights transactionally, idempotent by flight
	// identity (Flight.Identity()).
	UpsertBatch(ctx context.Context, flights []Flight) error
	// RecentByRoute returns the most recent known flights for a route,
	// most-recent extraction first, capped at limit.
	RecentByRoute(ctx context.Context, origin, destination string, limit int) ([]Flight, error)
	// PriceHistory returns price observations for one flight identity
	// since the given time, oldest first.
	PriceHistory(ctx context.Context, flightIdentity string, since time.Time) ([]PricePoint, error)
}

// PricePoint is one historical price observation for a given flight
// identity.
type PricePoint struct {
	ObservedAt time.Time `json:"observedAt"`
	Price      int64     `json:"price"`
	Currency   string    `json:"currency"`
	SourceSite string    `json:"sourceSite"`
}
