// Package scheduler implements the Scheduler/Orchestrator (C8): the
// bounded worker pool that fans a SearchQuery out across a site set, runs
// each site's adapter through the rate-limiter/breaker/retry/validate
// pipeline, and fans the results back in — deduplicated, filtered, and
// sorted — generalizing a scatter-gather pattern (WaitGroup, buffered
// results channel, closer goroutine) from a flat provider list to a
// host-aware, cancellable, event-emitting crawl.
package scheduler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/internal/breaker"
	"github.com/flightcrawl/enginecore/internal/eventbus"
	"github.com/flightcrawl/enginecore/internal/provider"
	"github.com/flightcrawl/enginecore/internal/ratelimit"
	"github.com/flightcrawl/enginecore/internal/retryclass"
	"github.com/flightcrawl/enginecore/internal/validate"
)

// Options are the per-Crawl-call behavioural knobs that don't belong on
// SearchQuery itself.
type Options struct {
	Sort    domain.SortOption
	Filters domain.FilterOptions

	// JobID, if set, is used as the crawl's job identifier instead of a
	// freshly generated one. Callers that need to Subscribe on the event
	// bus before events start flowing generate one with NewJobID and pass
	// it here.
	JobID string
}

// NewJobID generates a fresh job identifier in the same shape Crawl
// assigns internally when Options.JobID is left empty.
func NewJobID() string {
	return newJobID()
}

// Timeouts is the three-tier timeout model the scheduler enforces.
type Timeouts struct {
	PerRequest time.Duration
	PerSite    time.Duration
	PerCrawl   time.Duration
}

// DefaultTimeouts matches internal/config's envDefault values.
func DefaultTimeouts() Timeouts {
	return Timeouts{PerRequest: 30 * time.Second, PerSite: 120 * time.Second, PerCrawl: 300 * time.Second}
}

// WorkerPool bounds scheduler concurrency.
type WorkerPool struct {
	MaxWorkers     int
	PerHostMax     int
	ShutdownWindow time.Duration
}

// DefaultWorkerPool matches internal/config's envDefault values.
func DefaultWorkerPool() WorkerPool {
	return WorkerPool{MaxWorkers: 16, PerHostMax: 1, ShutdownWindow: 5 * time.Second}
}

// Scheduler is the C8 entry point. One Scheduler instance is shared
// across every crawl; HostState (rate limiter, breaker) persists across
// calls exactly as the job's ownership model requires.
type Scheduler struct {
	factory  *provider.Factory
	limiter  *ratelimit.Limiter
	circuit  *breaker.Breaker
	bus      *eventbus.Bus
	timeouts Timeouts
	workers  WorkerPool
	airports validate.AirportTable

	hostGatesMu sync.Mutex
	hostGates   map[string]chan struct{}

	configuredMu sync.Mutex
	configured   map[string]bool
}

// New builds a Scheduler. airports may be nil to skip C9's optional
// airport cross-check.
func New(factory *provider.Factory, limiter *ratelimit.Limiter, circuit *breaker.Breaker, bus *eventbus.Bus, timeouts Timeouts, workers WorkerPool, airports validate.AirportTable) *Scheduler {
	return &Scheduler{
		factory:    factory,
		limiter:    limiter,
		circuit:    circuit,
		bus:        bus,
		timeouts:   timeouts,
		workers:    workers,
		airports:   airports,
		hostGates:  make(map[string]chan struct{}),
		configured: make(map[string]bool),
	}
}

// siteTask is one (sub-query, site) pair dispatched to a worker.
type siteTask struct {
	query domain.SearchQuery
	site  domain.SiteConfig
}

// siteOutcome is one worker's result, folded into the aggregate
// CrawlJob.SiteStates after fan-in.
type siteOutcome struct {
	siteID  string
	flights []domain.Flight
	state   domain.SiteState
}

// Crawl is the scheduler's entry point: it resolves the query's
// date-range/multi-city expansion, dispatches one worker per (sub-query,
// site) pair bounded by the configured worker pool, and fans the results
// back into a single deduplicated, filtered, sorted CrawlResult.
func (s *Scheduler) Crawl(ctx context.Context, query domain.SearchQuery, sites []domain.SiteConfig, opts Options) (domain.CrawlResult, error) {
	now := time.Now()
	jobID := opts.JobID
	if jobID == "" {
		jobID = newJobID()
	}

	siteIDs := make([]string, 0, len(sites))
	for _, site := range sites {
		siteIDs = append(siteIDs, site.SiteID)
	}
	job := domain.NewCrawlJob(jobID, query, siteIDs, now)
	job.Status = domain.JobRunning

	ctx, cancel := context.WithTimeout(ctx, s.timeouts.PerCrawl)
	defer cancel()

	_ = s.bus.Publish(ctx, domain.CrawlEvent{JobID: jobID, Kind: domain.EventJobStarted, Payload: domain.JobStartedPayload{SiteIDs: siteIDs}})

	subQueries := expandQuery(query)
	filtered := subQueries[:0]
	for _, sq := range subQueries {
		if withinLookback(sq.DepartureDate, now) {
			filtered = append(filtered, sq)
		}
	}
	subQueries = filtered

	tasks := make([]siteTask, 0, len(subQueries)*len(sites))
	for _, sq := range subQueries {
		for _, site := range sites {
			if site.Disabled {
				continue
			}
			tasks = append(tasks, siteTask{query: sq, site: site})
		}
	}

	results := s.dispatch(ctx, jobID, tasks)

	perSite := make(map[string][][]domain.Flight)
	for _, r := range results {
		existing := job.SiteStates[r.siteID]
		merged := mergeSiteState(existing, r.state)
		job.SiteStates[r.siteID] = merged
		perSite[r.siteID] = append(perSite[r.siteID], r.flights)
	}
	for _, site := range sites {
		if site.Disabled {
			job.SiteStates[site.SiteID] = domain.SiteState{SiteID: site.SiteID, Outcome: domain.SiteOutcomeSkipped, SkipReason: "disabled"}
		}
	}

	var allBatches [][]domain.Flight
	for _, batches := range perSite {
		allBatches = append(allBatches, batches...)
	}

	flights := dedupeAndSort(allBatches, opts.Sort)
	flights = applyFilters(flights, opts.Filters)

	job.Status = job.Resolve()
	if ctx.Err() != nil {
		job.Status = domain.JobCancelled
	}

	totals := map[string]int{"flights": len(flights), "sites": len(sites)}
	_ = s.bus.Publish(context.Background(), domain.CrawlEvent{
		JobID: jobID, Kind: domain.EventJobCompleted,
		Payload: domain.JobCompletedPayload{Status: job.Status, Totals: totals},
	})

	return domain.NewCrawlResult(job, flights, time.Now()), nil
}

// dispatch runs tasks across a bounded worker pool, honouring ctx
// cancellation with a bounded shutdown window: once ctx is done, in-
// flight workers get ShutdownWindow to finish before dispatch stops
// waiting and returns whatever has completed.
func (s *Scheduler) dispatch(ctx context.Context, jobID string, tasks []siteTask) []siteOutcome {
	maxWorkers := s.workers.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	sem := make(chan struct{}, maxWorkers)
	resultsCh := make(chan siteOutcome, len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					resultsCh <- siteOutcome{
						siteID: task.site.SiteID,
						state: domain.SiteState{
							SiteID: task.site.SiteID, Outcome: domain.SiteOutcomeFailed,
							FailureKind: domain.KindInternal, FailureMessage: fmt.Sprintf("panic: %v", r),
						},
					}
				}
			}()
			resultsCh <- s.runSite(ctx, jobID, task)
		}()
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var out []siteOutcome
	done := false
	var shutdownTimer <-chan time.Time
	for !done {
		select {
		case r, ok := <-resultsCh:
			if !ok {
				done = true
				break
			}
			out = append(out, r)
		case <-ctx.Done():
			if shutdownTimer == nil {
				timer := time.NewTimer(s.workers.ShutdownWindow)
				defer timer.Stop()
				shutdownTimer = timer.C
			}
		case <-shutdownTimer:
			done = true
		}
	}
	return out
}

// runSite executes the full per-site pipeline: acquire
// a per-host slot, check the breaker, run Search/ParseList under
// retryclass's classified retry policy (which itself re-checks the rate
// limiter on every attempt), validate every candidate flight, and record
// the outcome back to the rate limiter and breaker.
func (s *Scheduler) runSite(ctx context.Context, jobID string, task siteTask) siteOutcome {
	site := task.site
	host := site.HostKey()
	start := time.Now()

	s.ensureConfigured(host, site)

	gate := s.hostGate(host)
	select {
	case gate <- struct{}{}:
		defer func() { <-gate }()
	case <-ctx.Done():
		return siteOutcome{siteID: site.SiteID, state: domain.SiteState{SiteID: site.SiteID, Outcome: domain.SiteOutcomeSkipped, SkipReason: "cancelled"}}
	}

	_ = s.bus.Publish(ctx, domain.CrawlEvent{JobID: jobID, Kind: domain.EventSiteStarted, Payload: domain.SiteStartedPayload{SiteID: site.SiteID}})

	decision := s.circuit.CheckAndEnter(host)
	if decision == breaker.Reject {
		return siteOutcome{siteID: site.SiteID, state: domain.SiteState{SiteID: site.SiteID, Outcome: domain.SiteOutcomeSkipped, SkipReason: "breaker-open"}}
	}

	adapter, err := s.factory.Build(&site)
	if err != nil {
		s.recordFailure(host)
		return siteOutcome{siteID: site.SiteID, state: failedState(site.SiteID, 1, start, err)}
	}
	defer adapter.Close()

	siteCtx, siteCancel := context.WithTimeout(ctx, s.timeouts.PerSite)
	defer siteCancel()

	var flights []domain.Flight
	attempts := 0

	runErr := retryclass.Execute(siteCtx, site.SiteID, site.Retry, func(attemptCtx context.Context) error {
		attempts++
		if err := s.limiter.Acquire(attemptCtx, host); err != nil {
			return err
		}

		reqCtx, reqCancel := context.WithTimeout(attemptCtx, s.timeouts.PerRequest)
		defer reqCancel()

		doc, searchErr := adapter.Search(reqCtx, task.query)
		if searchErr != nil {
			s.limiter.ReportFailure(host)
			s.recordFailure(host)
			return searchErr
		}

		parsed, _, parseErr := adapter.ParseList(reqCtx, doc)
		if parseErr != nil {
			s.limiter.ReportFailure(host)
			s.recordFailure(host)
			return parseErr
		}

		flights = s.validateAll(&site, parsed)
		s.limiter.ReportSuccess(host)
		s.circuit.RecordSuccess(host)
		return nil
	}, func(attempt int, class retryclass.Classification, attemptErr error) {
		_ = s.bus.Publish(ctx, domain.CrawlEvent{
			JobID: jobID, Kind: domain.EventSiteProgress,
			Payload: domain.SiteProgressPayload{SiteID: site.SiteID, Attempt: attempt, Reason: string(class)},
		})
	})

	latency := time.Since(start)

	if runErr != nil {
		if retryclass.Classify(runErr) == retryclass.Cancelled {
			return siteOutcome{siteID: site.SiteID, state: domain.SiteState{SiteID: site.SiteID, Outcome: domain.SiteOutcomeSkipped, SkipReason: "cancelled", Attempts: attempts, Latency: latency}}
		}
		_ = s.bus.Publish(ctx, domain.CrawlEvent{
			JobID: jobID, Kind: domain.EventSiteFailed,
			Payload: domain.SiteFailedPayload{SiteID: site.SiteID, Kind: domain.ErrorKindOf(runErr), Message: runErr.Error()},
		})
		state := failedState(site.SiteID, attempts, start, runErr)
		return siteOutcome{siteID: site.SiteID, state: state}
	}

	_ = s.bus.Publish(ctx, domain.CrawlEvent{
		JobID: jobID, Kind: domain.EventSiteCompleted,
		Payload: domain.SiteCompletedPayload{SiteID: site.SiteID, Count: len(flights), Latency: latency},
	})
	if len(flights) > 0 {
		_ = s.bus.Publish(ctx, domain.CrawlEvent{JobID: jobID, Kind: domain.EventFlightsFound, Payload: domain.FlightsFoundPayload{SiteID: site.SiteID, Delta: len(flights)}})
	}

	return siteOutcome{
		siteID:  site.SiteID,
		flights: flights,
		state: domain.SiteState{
			SiteID: site.SiteID, Outcome: domain.SiteOutcomeCompleted,
			FlightCount: len(flights), Latency: latency, Attempts: attempts,
		},
	}
}

// validateAll runs every candidate Flight through the Flight Validator
// (C9), dropping (and debug-logging) rejections rather than surfacing them
// as a site failure.
func (s *Scheduler) validateAll(site *domain.SiteConfig, candidates []domain.Flight) []domain.Flight {
	validator := validate.New(site, s.airports)
	accepted := make([]domain.Flight, 0, len(candidates))
	for i := range candidates {
		f := candidates[i]
		if reject := validator.Validate(&f); reject != nil {
			log.Debug().Str("site", site.SiteID).Str("field", reject.Field).Str("reason", reject.Reason).
				Msg("scheduler: dropped flight failing validation")
			continue
		}
		accepted = append(accepted, f)
	}
	return accepted
}

func (s *Scheduler) hostGate(host string) chan struct{} {
	s.hostGatesMu.Lock()
	defer s.hostGatesMu.Unlock()
	gate, ok := s.hostGates[host]
	if !ok {
		max := s.workers.PerHostMax
		if max < 1 {
			max = 1
		}
		gate = make(chan struct{}, max)
		s.hostGates[host] = gate
	}
	return gate
}

// ensureConfigured registers a host's rate-limit and breaker specs the
// first time the scheduler sees it. Two sites sharing a host are expected
// to declare matching specs; the first one seen wins.
func (s *Scheduler) ensureConfigured(host string, site domain.SiteConfig) {
	s.configuredMu.Lock()
	defer s.configuredMu.Unlock()
	if s.configured[host] {
		return
	}
	s.limiter.Configure(host, site.RateLimit.RequestsPerSecond, site.RateLimit.Burst, time.Duration(site.RateLimit.CooldownSeconds)*time.Second)
	s.circuit.Configure(host, site.Breaker.FailureThreshold, time.Minute, site.Breaker.ResetSeconds)
	s.configured[host] = true
}

// recordFailure reports a failure to the circuit breaker and, when that
// failure is the one tripping the breaker open, extends the rate
// limiter's cooldown for host in lockstep.
func (s *Scheduler) recordFailure(host string) {
	if s.circuit.RecordFailure(host) {
		s.limiter.ExtendCooldown(host)
	}
}

func failedState(siteID string, attempts int, start time.Time, err error) domain.SiteState {
	return domain.SiteState{
		SiteID:         siteID,
		Outcome:        domain.SiteOutcomeFailed,
		FailureKind:    domain.ErrorKindOf(err),
		FailureMessage: err.Error(),
		Attempts:       attempts,
		Latency:        time.Since(start),
	}
}

// mergeSiteState folds one sub-query's outcome for a site into that
// site's running aggregate across every sub-query a multi-date or
// multi-city expansion dispatched: any completed sub-query makes the
// site's overall outcome completed, flight counts sum, attempts sum, and
// latency takes the max observed.
func mergeSiteState(existing, next domain.SiteState) domain.SiteState {
	if existing.SiteID == "" {
		return next
	}
	merged := existing
	merged.FlightCount += next.FlightCount
	merged.Attempts += next.Attempts
	if next.Latency > merged.Latency {
		merged.Latency = next.Latency
	}
	switch {
	case next.Outcome == domain.SiteOutcomeCompleted && merged.Outcome != domain.SiteOutcomeCompleted:
		merged.Outcome = domain.SiteOutcomeCompleted
		merged.FailureKind = ""
		merged.FailureMessage = ""
		merged.SkipReason = ""
	case next.Outcome == domain.SiteOutcomeFailed && merged.Outcome != domain.SiteOutcomeCompleted:
		merged.Outcome = domain.SiteOutcomeFailed
		merged.FailureKind = next.FailureKind
		merged.FailureMessage = next.FailureMessage
	case next.Outcome == domain.SiteOutcomeSkipped && merged.Outcome == domain.SiteOutcomePending:
		merged.Outcome = domain.SiteOutcomeSkipped
		merged.SkipReason = next.SkipReason
	}
	return merged
}

func newJobID() string {
	var buf [12]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
