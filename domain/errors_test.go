package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlError(t *testing.T) {
	tests := []struct {
		name        string
		site        string
		kind        ErrorKind
		retryable   bool
		cause       error
		expectedMsg string
	}{
		{
			name:        "network error with cause",
			site:        "mahan_air",
			kind:        KindNetwork,
			retryable:   true,
			cause:       errors.New("connection reset"),
			expectedMsg: "network_error[mahan_air]: connection reset",
		},
		{
			name:        "breaker open wraps the sentinel cause",
			site:        "iran_air",
			kind:        KindBreakerOpen,
			retryable:   false,
			cause:       ErrBreakerOpen,
			expectedMsg: "breaker_open[iran_air]: circuit breaker open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := NewCrawlError(tt.site, "api.example.com", 1, tt.kind, tt.retryable, tt.cause)

			assert.Equal(t, tt.expectedMsg, ce.Error())
			assert.Equal(t, tt.site, ce.Site)
			assert.Equal(t, tt.retryable, ce.Retryable)
			assert.True(t, errors.Is(ce, tt.cause))
			assert.Equal(t, tt.cause, ce.Unwrap())
		})
	}
}

func TestCrawlErrorMessageOverridesCause(t *testing.T) {
	ce := &CrawlError{Site: "flytoday", Kind: KindParse, Message: "missing price field"}
	assert.Equal(t, "parse_error[flytoday]: missing price field", ce.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable crawl error", NewCrawlError("s", "h", 1, KindNetwork, true, nil), true},
		{"non-retryable crawl error", NewCrawlError("s", "h", 1, KindProtocol, false, nil), false},
		{"plain error", errors.New("boom"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestErrorKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimit, ErrorKindOf(NewCrawlError("s", "h", 1, KindRateLimit, true, nil)))
	assert.Equal(t, ErrorKind(""), ErrorKindOf(errors.New("boom")))
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		message     string
		expectedErr string
	}{
		{
			name:        "origin field error",
			field:       "origin",
			message:     "is required",
			expectedErr: "origin: is required",
		},
		{
			name:        "price field error",
			field:       "price",
			message:     "outside declared range",
			expectedErr: "price: outside declared range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)
			assert.Equal(t, tt.expectedErr, err.Error())
			assert.Equal(t, tt.field, err.Field)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestWrapInvalidRequest(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "simple message",
			format:   "origin is required",
			args:     nil,
			expected: "invalid request: origin is required",
		},
		{
			name:     "formatted message",
			format:   "invalid value: %s",
			args:     []interface{}{"abc"},
			expected: "invalid request: invalid value: abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapInvalidRequest(tt.format, tt.args...)
			assert.Equal(t, tt.expected, err.Error())
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestIsInvalidRequest(t *testing.T) {
	assert.True(t, IsInvalidRequest(WrapInvalidRequest("test")))
	assert.False(t, IsInvalidRequest(errors.New("other error")))
	assert.False(t, IsInvalidRequest(nil))
}

func TestIsAllSitesFailed(t *testing.T) {
	assert.True(t, IsAllSitesFailed(ErrAllSitesFailed))
	assert.False(t, IsAllSitesFailed(errors.New("other error")))
}

func TestIsSiteTimeout(t *testing.T) {
	assert.True(t, IsSiteTimeout(ErrSiteTimeout))
	assert.False(t, IsSiteTimeout(errors.New("other error")))
}

func TestIsBreakerOpen(t *testing.T) {
	assert.True(t, IsBreakerOpen(ErrBreakerOpen))
	assert.False(t, IsBreakerOpen(errors.New("other error")))
}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []error{
		ErrInvalidRequest,
		ErrAllSitesFailed,
		ErrSiteTimeout,
		ErrSiteUnavailable,
		ErrNoFlightsFound,
		ErrInvalidFlightTimes,
		ErrMissingRequiredField,
		ErrBreakerOpen,
		ErrCancelled,
	}

	for i, err1 := range sentinelErrors {
		for j, err2 := range sentinelErrors {
			if i == j {
				assert.True(t, errors.Is(err1, err2))
			} else {
				assert.False(t, errors.Is(err1, err2))
			}
		}
	}
}
