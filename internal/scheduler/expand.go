package scheduler

import (
	"time"

	"github.com/flightcrawl/enginecore/domain"
)

// expandQuery resolves the optional date-range and multi-city option
// flags: a multi-city query fans out into one independent
// one-way sub-query per leg; otherwise a date-range-enabled query fans
// out into one sub-query per day in [-N, +N] around the declared
// departure date. Every sub-query's flights are unioned by the caller
// exactly like results from two different sites would be.
func expandQuery(q domain.SearchQuery) []domain.SearchQuery {
	if q.TripType == domain.TripMultiCity && len(q.Legs) > 0 {
		subs := make([]domain.SearchQuery, 0, len(q.Legs))
		for _, leg := range q.Legs {
			sub := q
			sub.TripType = domain.TripOneWay
			sub.Legs = nil
			sub.Origin = leg.Origin
			sub.Destination = leg.Dest
			sub.DepartureDate = leg.Date
			sub.ReturnDate = nil
			subs = append(subs, sub)
		}
		return subs
	}

	if q.EnableDateRange && q.DateRangeDays > 0 {
		subs := make([]domain.SearchQuery, 0, 2*q.DateRangeDays+1)
		for offset := -q.DateRangeDays; offset <= q.DateRangeDays; offset++ {
			sub := q
			sub.DepartureDate = q.DepartureDate.AddDate(0, 0, offset)
			subs = append(subs, sub)
		}
		return subs
	}

	return []domain.SearchQuery{q}
}

// withinLookback reports whether date is not before the earliest date a
// date-range expansion is allowed to reach back to (today), matching
// SearchQuery.Validate's own "not in the past" invariant so an expanded
// sub-query never retroactively violates it.
func withinLookback(date, now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !date.Before(today)
}
