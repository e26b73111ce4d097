// Package breaker implements the per-host circuit breaker C4 names:
// Closed/Open/HalfOpen states with a single exclusive probe and
// exponentially-doubling (capped) reset windows.
package breaker

import (
	"sync"
	"time"
)

// State is one of the three circuit-breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Decision is the outcome of CheckAndEnter.
type Decision string

const (
	Proceed Decision = "proceed"
	Reject  Decision = "reject"
	Probe   Decision = "probe"
)

const maxResetSeconds = 3600

// circuit is the per-host breaker state.
type circuit struct {
	mu sync.Mutex

	state            State
	failureThreshold int
	window           time.Duration
	baseResetSeconds int

	failures       []time.Time
	resetSeconds   int
	openedAt       time.Time
	probeInFlight  bool
}

// Breaker is a registry of per-host circuit breakers.
type Breaker struct {
	mu    sync.Mutex
	hosts map[string]*circuit
}

// New creates an empty host-keyed breaker registry.
func New() *Breaker {
	return &Breaker{hosts: make(map[string]*circuit)}
}

// Configure registers a host's failure threshold (within the given window)
// and its base reset duration, used the first time the breaker opens.
func (b *Breaker) Configure(host string, failureThreshold int, window time.Duration, baseResetSeconds int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hosts[host] = &circuit{
		state:            Closed,
		failureThreshold: failureThreshold,
		window:           window,
		baseResetSeconds: baseResetSeconds,
		resetSeconds:     baseResetSeconds,
	}
}

func (b *Breaker) circuitFor(host string) *circuit {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		c = &circuit{state: Closed, failureThreshold: 5, window: time.Minute, baseResetSeconds: 30, resetSeconds: 30}
		b.hosts[host] = c
	}
	return c
}

// CheckAndEnter evaluates whether a caller may proceed against host right
// now. Closed always proceeds. Open rejects until resetSeconds has
// elapsed since it opened, at which point it transitions to HalfOpen and
// grants exactly one Probe; every other caller during HalfOpen is
// rejected until the probe resolves via RecordSuccess/RecordFailure.
func (b *Breaker) CheckAndEnter(host string) Decision {
	c := b.circuitFor(host)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Closed:
		return Proceed
	case Open:
		if time.Since(c.openedAt) >= time.Duration(c.resetSeconds)*time.Second {
			c.state = HalfOpen
			c.probeInFlight = true
			return Probe
		}
		return Reject
	case HalfOpen:
		if !c.probeInFlight {
			c.probeInFlight = true
			return Probe
		}
		return Reject
	default:
		return Reject
	}
}

// RecordSuccess reports a successful call. In HalfOpen this closes the
// circuit and resets the reset-window back to its configured base; in
// Closed it age-trims the failure window and then removes one recorded
// failure (the count never goes below zero).
func (b *Breaker) RecordSuccess(host string) {
	c := b.circuitFor(host)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case HalfOpen:
		c.state = Closed
		c.failures = nil
		c.resetSeconds = c.baseResetSeconds
		c.probeInFlight = false
	case Closed:
		c.trimFailures(time.Now())
		if len(c.failures) > 0 {
			c.failures = c.failures[1:]
		}
	}
}

// RecordFailure reports a failed call. In Closed it appends to the
// failure window and opens the circuit once failureThreshold is reached
// within window. In HalfOpen a failed probe reopens the circuit and
// doubles the reset window, capped at maxResetSeconds. It reports true
// iff this call is the one that transitioned the circuit to Open, so a
// caller can extend a cooperating rate limiter's cooldown in lockstep.
func (b *Breaker) RecordFailure(host string) bool {
	c := b.circuitFor(host)
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	switch c.state {
	case HalfOpen:
		c.openCircuit(now, true)
		return true
	case Closed:
		c.trimFailures(now)
		c.failures = append(c.failures, now)
		if len(c.failures) >= c.failureThreshold {
			c.openCircuit(now, false)
			return true
		}
	}
	return false
}

func (c *circuit) openCircuit(now time.Time, doubleWindow bool) {
	c.state = Open
	c.openedAt = now
	c.failures = nil
	c.probeInFlight = false
	if doubleWindow {
		doubled := c.resetSeconds * 2
		if doubled > maxResetSeconds {
			doubled = maxResetSeconds
		}
		c.resetSeconds = doubled
	}
}

func (c *circuit) trimFailures(now time.Time) {
	cutoff := now.Add(-c.window)
	kept := c.failures[:0]
	for _, f := range c.failures {
		if f.After(cutoff) {
			kept = append(kept, f)
		}
	}
	c.failures = kept
}

// CurrentState reports host's current state, for diagnostics/tests.
func (b *Breaker) CurrentState(host string) State {
	c := b.circuitFor(host)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
