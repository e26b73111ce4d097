// Package ratelimit implements the per-host token-bucket limiter C3 names,
// wrapping golang.org/x/time/rate with the adaptive halving/restoration
// bookkeeping the crawl engine layers on top.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Minimum rate the adaptive halving is allowed to reach, and the window it
// is held there before a restoration streak is even considered.
const (
	floorRPS            = 0.1
	adaptiveWindow      = 60 * time.Second
	halveAfterFailures  = 3
	restoreAfterSuccess = 10
)

// hostBucket tracks one host's token bucket plus the adaptive bookkeeping
// layered on top of it.
type hostBucket struct {
	mu sync.Mutex

	limiter    *rate.Limiter
	baseRPS    float64
	currentRPS float64
	burst      int
	cooldown   time.Duration

	consecutiveFailures int
	consecutiveSuccess  int
	halvedAt            time.Time
	cooldownUntil       time.Time
}

// Limiter is a registry of per-host token buckets. A zero value is not
// usable; construct with New.
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*hostBucket
}

// New creates an empty host-keyed rate limiter.
func New() *Limiter {
	return &Limiter{hosts: make(map[string]*hostBucket)}
}

// Configure registers (or re-registers) a host's base rate, burst size, and
// cooldown window. Call this once per host from the site-config load path
// before any Acquire against that host.
func (l *Limiter) Configure(host string, requestsPerSecond float64, burst int, cooldown time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.hosts[host] = &hostBucket{
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		baseRPS:    requestsPerSecond,
		currentRPS: requestsPerSecond,
		burst:      burst,
		cooldown:   cooldown,
	}
}

func (l *Limiter) bucketFor(host string) *hostBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.hosts[host]
	if !ok {
		// A host with no explicit Configure call gets a conservative
		// default bucket rather than an unbounded one.
		b = &hostBucket{
			limiter:    rate.NewLimiter(rate.Limit(1), 1),
			baseRPS:    1,
			currentRPS: 1,
			burst:      1,
		}
		l.hosts[host] = b
	}
	return b
}

// Acquire blocks (respecting ctx) until a token for host is available. If
// host is under an active cooldown (set by ExtendCooldown), Acquire first
// suspends until the cooldown expires before joining the token bucket's
// own FIFO wait queue.
func (l *Limiter) Acquire(ctx context.Context, host string) error {
	b := l.bucketFor(host)

	b.mu.Lock()
	until := b.cooldownUntil
	b.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r := b.limiter.Reserve()
	if !r.OK() {
		return b.limiter.Wait(ctx) // reports the burst error without reserving
	}
	timer := time.NewTimer(r.Delay())
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// ExtendCooldown suspends host's next Acquire call until its configured
// cooldown window has elapsed from now. Callers invoke this when a
// cross-cutting signal (the circuit breaker opening) indicates the host
// needs more room to recover than the token bucket alone provides; a
// cooldown already in effect is only ever extended, never shortened.
func (l *Limiter) ExtendCooldown(host string) {
	b := l.bucketFor(host)
	b.mu.Lock()
	defer b.mu.Unlock()

	until := time.Now().Add(b.cooldown)
	if until.After(b.cooldownUntil) {
		b.cooldownUntil = until
	}
}

// ReportFailure records a failed request against host and resets the
// success streak. After halveAfterFailures consecutive failures (however
// far apart in time), the bucket's rate is halved (floored at floorRPS).
func (l *Limiter) ReportFailure(host string) {
	b := l.bucketFor(host)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveSuccess = 0
	b.consecutiveFailures++

	if b.consecutiveFailures >= halveAfterFailures {
		newRPS := b.currentRPS / 2
		if newRPS < floorRPS {
			newRPS = floorRPS
		}
		if newRPS != b.currentRPS {
			b.currentRPS = newRPS
			b.limiter.SetLimit(rate.Limit(newRPS))
			b.halvedAt = time.Now()
		}
		b.consecutiveFailures = 0
	}
}

// ReportSuccess records a successful request against host. Successes
// within adaptiveWindow of the last halving don't count toward
// restoration — the bucket is held at its reduced rate for at least that
// long before a recovery streak can start. Once restoreAfterSuccess
// consecutive (post-window) successes accumulate, the rate is restored to
// its configured base.
func (l *Limiter) ReportSuccess(host string) {
	b := l.bucketFor(host)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0

	if !b.halvedAt.IsZero() && time.Since(b.halvedAt) < adaptiveWindow {
		return
	}

	b.consecutiveSuccess++
	if b.consecutiveSuccess >= restoreAfterSuccess && b.currentRPS != b.baseRPS {
		b.currentRPS = b.baseRPS
		b.limiter.SetLimit(rate.Limit(b.baseRPS))
		b.consecutiveSuccess = 0
		b.halvedAt = time.Time{}
	}
}

// CurrentRPS reports the live (possibly halved) rate for host, for
// diagnostics/tests.
func (l *Limiter) CurrentRPS(host string) float64 {
	b := l.bucketFor(host)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentRPS
}
