// Package retryclass classifies a failed attempt against a site into one
// of five kinds and drives the per-class retry policy C5 names, delegating
// the actual backoff loop to pkg/util.ExecuteWithRetryLogged and layering
// on top of it the short-circuit and delay-doubling behavior the classes
// need that a generic retry loop doesn't know about on its own.
package retryclass

import (
	"context"
	"errors"
	"time"

	"github.com/flightcrawl/enginecore/domain"
	"github.com/flightcrawl/enginecore/pkg/util"
	"github.com/rs/zerolog/log"
)

// Classification is the five-way outcome of a failed attempt.
type Classification string

const (
	Transient       Classification = "transient"
	PermanentClient Classification = "permanent_client"
	RateLimited     Classification = "rate_limited"
	Fatal           Classification = "fatal"
	Cancelled       Classification = "cancelled"
)

// jitterFraction is the half-width of the jitter applied to every
// retryclass backoff delay, as a fraction of the computed delay.
const jitterFraction = 0.25

// Classify maps a CrawlError's Kind (or a bare context error) to one of
// the five classes.
func Classify(err error) Classification {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Cancelled
	}

	switch domain.ErrorKindOf(err) {
	case domain.KindNetwork, domain.KindTimeout:
		return Transient
	case domain.KindProtocol:
		// A malformed/unexpected response shape is a site-level outcome,
		// not a transient network blip: retrying it against the same
		// broken markup just burns attempts.
		return PermanentClient
	case domain.KindValidation, domain.KindParse, domain.KindConfig:
		return PermanentClient
	case domain.KindRateLimit, domain.KindBreakerOpen:
		return RateLimited
	case domain.KindCancelled:
		return Cancelled
	case domain.KindInternal:
		return Fatal
	default:
		// A non-CrawlError of unknown shape is treated as transient so a
		// bug in a third-party library we call doesn't permanently wedge
		// a site that would otherwise recover.
		return Transient
	}
}

// Retryable reports whether attempts should continue for this
// classification at all. PermanentClient, Fatal, and Cancelled never
// retry; Transient and RateLimited do, up to the policy's attempt cap.
func (c Classification) Retryable() bool {
	switch c {
	case Transient, RateLimited:
		return true
	default:
		return false
	}
}

// AttemptFunc performs one attempt against a site.
type AttemptFunc func(ctx context.Context) error

// ProgressFunc is invoked after every failed attempt, before the retry
// sleep, so a caller can publish a SiteProgress event without
// retryclass depending on the event bus directly.
type ProgressFunc func(attempt int, classification Classification, err error)

const maxDelay = 30 * time.Second

// Execute runs fn against site up to spec.MaxAttempts times, classifying
// each failure and stopping early for non-retryable classes. RateLimited
// failures back off at double the base delay of Transient ones, giving
// the rate limiter and circuit breaker more room to recover. The attempt
// loop itself, its exponential-backoff-plus-jitter delay, and its
// context-cancellation handling are all pkg/util.ExecuteWithRetryLogged's;
// this function only decides, per attempt, whether that loop should keep
// going and how long the extra RateLimited delay should be.
func Execute(ctx context.Context, site string, spec domain.RetrySpec, fn AttemptFunc, onProgress ProgressFunc) error {
	maxAttempts := spec.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	cfg := util.RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialDelay:   spec.BaseDelay,
		MaxDelay:       maxDelay,
		Multiplier:     2.0,
		JitterFraction: jitterFraction,
	}

	attempt := 0
	return util.ExecuteWithRetryLogged(ctx, cfg, func() error {
		attempt++
		attemptErr := fn(ctx)
		if attemptErr == nil {
			return nil
		}

		class := Classify(attemptErr)
		if onProgress != nil {
			onProgress(attempt, class, attemptErr)
		}

		if !class.Retryable() {
			log.Debug().Str("site", site).Str("class", string(class)).Int("attempt", attempt).
				Msg("retryclass: non-retryable classification, stopping")
			return util.Halt(attemptErr)
		}

		if class == RateLimited {
			extra := util.BackoffDelay(cfg, attempt)
			select {
			case <-time.After(extra):
			case <-ctx.Done():
				return util.Halt(ctx.Err())
			}
		}

		return attemptErr
	}, "crawl_site:"+site)
}
