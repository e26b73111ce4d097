package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireGrantsWithinBurst(t *testing.T) {
	l := New()
	l.Configure("iranair.com", 10, 2, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Acquire(ctx, "iranair.com"))
	require.NoError(t, l.Acquire(ctx, "iranair.com"))
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l := New()
	l.Configure("mahan.aero", 0.01, 1, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// First token is free (burst=1); the second must block past the
	// deadline and return the context error.
	require.NoError(t, l.Acquire(context.Background(), "mahan.aero"))
	err := l.Acquire(ctx, "mahan.aero")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReportFailureHalvesAfterThreshold(t *testing.T) {
	l := New()
	l.Configure("flytoday.ir", 4, 4, time.Second)

	l.ReportFailure("flytoday.ir")
	l.ReportFailure("flytoday.ir")
	assert.Equal(t, 4.0, l.CurrentRPS("flytoday.ir"), "below threshold, rate unchanged")

	l.ReportFailure("flytoday.ir")
	assert.Equal(t, 2.0, l.CurrentRPS("flytoday.ir"), "threshold reached, rate halved")
}

func TestReportFailureFloorsRate(t *testing.T) {
	l := New()
	l.Configure("flytoday.ir", 0.1, 1, time.Second)

	for i := 0; i < 3; i++ {
		l.ReportFailure("flytoday.ir")
	}

	assert.Equal(t, floorRPS, l.CurrentRPS("flytoday.ir"))
}

func TestReportSuccessRestoresAfterStreak(t *testing.T) {
	l := New()
	l.Configure("parto.ir", 4, 4, time.Second)

	l.ReportFailure("parto.ir")
	l.ReportFailure("parto.ir")
	l.ReportFailure("parto.ir")
	require.Equal(t, 2.0, l.CurrentRPS("parto.ir"))

	// Successes inside adaptiveWindow of the halving don't count, so move
	// the halving back past that window before the streak starts.
	b := l.bucketFor("parto.ir")
	b.mu.Lock()
	b.halvedAt = time.Now().Add(-adaptiveWindow - time.Second)
	b.mu.Unlock()

	for i := 0; i < 10; i++ {
		l.ReportSuccess("parto.ir")
	}

	assert.Equal(t, 4.0, l.CurrentRPS("parto.ir"))
}

func TestReportSuccessResetsFailureStreak(t *testing.T) {
	l := New()
	l.Configure("iranair.com", 4, 4, time.Second)

	l.ReportFailure("iranair.com")
	l.ReportFailure("iranair.com")
	l.ReportSuccess("iranair.com")
	l.ReportFailure("iranair.com")
	l.ReportFailure("iranair.com")

	assert.Equal(t, 4.0, l.CurrentRPS("iranair.com"), "streak reset by the intervening success")
}

func TestUnconfiguredHostGetsConservativeDefault(t *testing.T) {
	l := New()
	assert.Equal(t, 1.0, l.CurrentRPS("unknown.example"))
}
