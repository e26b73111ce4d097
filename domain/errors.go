package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification of a CrawlError:
// every failure that crosses a component boundary carries exactly one
// kind so callers can branch on it instead of string-matching messages.
type ErrorKind string

const (
	KindConfig      ErrorKind = "config_error"
	KindNetwork     ErrorKind = "network_error"
	KindProtocol    ErrorKind = "protocol_error"
	KindParse       ErrorKind = "parse_error"
	KindValidation  ErrorKind = "validation_error"
	KindRateLimit   ErrorKind = "rate_limit_error"
	KindBreakerOpen ErrorKind = "breaker_open"
	KindTimeout     ErrorKind = "timeout"
	KindCancelled   ErrorKind = "cancelled"
	KindInternal    ErrorKind = "internal_error"
)

// Sentinel errors usable with errors.Is for outcomes callers branch on
// without inspecting a CrawlError's fields.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrAllSitesFailed       = errors.New("all sites failed")
	ErrSiteTimeout          = errors.New("site timeout")
	ErrSiteUnavailable      = errors.New("site unavailable")
	ErrNoFlightsFound       = errors.New("no flights found")
	ErrInvalidFlightTimes   = errors.New("invalid flight times")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrBreakerOpen          = errors.New("circuit breaker open")
	ErrCancelled            = errors.New("crawl cancelled")
)

// CrawlError is the error type every component boundary in the core
// surfaces. It carries the context a caller needs: which site and host were
// involved, which attempt this was, the machine-readable kind, a human
// message, whether the caller should retry, and the underlying cause for
// errors.Is/As unwrapping.
type CrawlError struct {
	Site      string
	Host      string
	Attempt   int
	Kind      ErrorKind
	Message   string
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *CrawlError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Site, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Site, e.Err)
	}
	return fmt.Sprintf("%s[%s]", e.Kind, e.Site)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// NewCrawlError constructs a CrawlError. Attempt and Host may be left at
// their zero values when not yet known (e.g. at config-load time).
func NewCrawlError(site, host string, attempt int, kind ErrorKind, retryable bool, err error) *CrawlError {
	return &CrawlError{
		Site:      site,
		Host:      host,
		Attempt:   attempt,
		Kind:      kind,
		Retryable: retryable,
		Err:       err,
	}
}

// IsRetryable reports whether err is a CrawlError flagged retryable.
// A non-CrawlError is never considered retryable.
func IsRetryable(err error) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// ErrorKindOf extracts the ErrorKind from err, or "" if err is not a
// CrawlError.
func ErrorKindOf(err error) ErrorKind {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error for a specific field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// WrapInvalidRequest wraps an error as an invalid request error.
func WrapInvalidRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsInvalidRequest checks if an error is an invalid request error.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsAllSitesFailed checks if an error indicates all sites failed.
func IsAllSitesFailed(err error) bool {
	return errors.Is(err, ErrAllSitesFailed)
}

// IsSiteTimeout checks if an error is a site timeout error.
func IsSiteTimeout(err error) bool {
	return errors.Is(err, ErrSiteTimeout)
}

// IsBreakerOpen checks if an error indicates the circuit breaker is open.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, ErrBreakerOpen)
}
