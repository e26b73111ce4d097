package scheduler

import (
	"sort"

	"github.com/flightcrawl/enginecore/domain"
)

// Best-value ranking weights (total = 1.0). Lower score wins.
const (
	bestValueWeightPrice    = 0.6
	bestValueWeightDuration = 0.4
)

// bestValueScores normalizes price and duration across the candidate set
// to [0,1] and combines them into a single ascending score per flight,
// keyed by identity. Originally a price/duration/stops blend; adapted
// here to the two dimensions the canonical Flight record actually
// carries (it has no stops count of its own).
func bestValueScores(flights []domain.Flight) map[string]float64 {
	scores := make(map[string]float64, len(flights))
	if len(flights) == 0 {
		return scores
	}

	minPrice, maxPrice := flights[0].Price, flights[0].Price
	minDuration, maxDuration := flights[0].DurationMin, flights[0].DurationMin
	for _, f := range flights {
		if f.Price < minPrice {
			minPrice = f.Price
		}
		if f.Price > maxPrice {
			maxPrice = f.Price
		}
		if f.DurationMin < minDuration {
			minDuration = f.DurationMin
		}
		if f.DurationMin > maxDuration {
			maxDuration = f.DurationMin
		}
	}

	for _, f := range flights {
		scores[f.Identity()] = bestValueWeightPrice*normalizeRange(float64(f.Price), float64(minPrice), float64(maxPrice)) +
			bestValueWeightDuration*normalizeRange(float64(f.DurationMin), float64(minDuration), float64(maxDuration))
	}
	return scores
}

// normalizeRange maps value into [0,1] given the observed min/max,
// returning 0 when every observed value is equal.
func normalizeRange(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

// dedupeAndSort folds possibly-overlapping flight slices from multiple
// sites/sub-queries into one set keyed by flight identity (the later-
// extracted record wins a collision, mirroring the parser's own
// duplicate-flight-id policy) and orders it by best-value score (blended
// price/duration) by default, or price/duration/departure ascending when
// explicitly requested, ties broken by source site for determinism.
func dedupeAndSort(all [][]domain.Flight, sortBy domain.SortOption) []domain.Flight {
	byIdentity := make(map[string]domain.Flight)
	order := make([]string, 0)

	for _, batch := range all {
		for _, f := range batch {
			id := f.Identity()
			existing, seen := byIdentity[id]
			if !seen || f.ExtractedAt.After(existing.ExtractedAt) {
				byIdentity[id] = f
				if !seen {
					order = append(order, id)
				}
			}
		}
	}

	flights := make([]domain.Flight, 0, len(order))
	for _, id := range order {
		flights = append(flights, byIdentity[id])
	}

	var scores map[string]float64
	if sortBy == domain.SortByBestValue || sortBy == "" {
		scores = bestValueScores(flights)
	}

	sort.Slice(flights, func(i, j int) bool {
		a, b := flights[i], flights[j]
		switch sortBy {
		case domain.SortByDuration:
			if a.DurationMin != b.DurationMin {
				return a.DurationMin < b.DurationMin
			}
		case domain.SortByDeparture:
			if !a.DepartureUTC.Equal(b.DepartureUTC) {
				return a.DepartureUTC.Before(b.DepartureUTC)
			}
		case domain.SortByPrice:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			if !a.DepartureUTC.Equal(b.DepartureUTC) {
				return a.DepartureUTC.Before(b.DepartureUTC)
			}
		default: // SortByBestValue
			if sa, sb := scores[a.Identity()], scores[b.Identity()]; sa != sb {
				return sa < sb
			}
		}
		return a.SourceSite < b.SourceSite
	})

	return flights
}

// applyFilters runs domain.FilterOptions.MatchesFlight over flights,
// returning a new slice (the input is never mutated).
func applyFilters(flights []domain.Flight, filters domain.FilterOptions) []domain.Flight {
	out := make([]domain.Flight, 0, len(flights))
	for _, f := range flights {
		if filters.MatchesFlight(f) {
			out = append(out, f)
		}
	}
	return out
}
