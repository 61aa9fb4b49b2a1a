package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/dataaccess/http"
)

func connectivityErr(code http.ErrorCode) error {
	return http.NewTransportError(code, "send", "https://api.example.com", errors.New("boom"))
}

func TestIsConnectivity(t *testing.T) {
	retryable := []http.ErrorCode{
		http.CodeTimedOut,
		http.CodeCannotFindHost,
		http.CodeCannotConnectToHost,
		http.CodeNetworkConnectionLost,
		http.CodeNotConnectedToInternet,
	}
	for _, code := range retryable {
		assert.True(t, IsConnectivity(connectivityErr(code)), code.String())
		assert.True(t, IsConnectivity(fmt.Errorf("wrapped: %w", connectivityErr(code))), code.String())
	}

	for _, err := range []error{
		nil,
		errors.New("malformed json"),
		connectivityErr(http.CodeCancelled),
		connectivityErr(http.CodeBadServerResponse),
		connectivityErr(http.CodeUnknown),
		context.DeadlineExceeded,
	} {
		assert.False(t, IsConnectivity(err), "%v", err)
	}
}

func TestShouldRetryBoundsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: time.Second}
	state := p.NewState()
	err := connectivityErr(http.CodeNotConnectedToInternet)

	d := p.ShouldRetry(state, err)
	assert.Equal(t, Decision{Retry: true, Delay: time.Second}, d)
	d = p.ShouldRetry(state, err)
	assert.True(t, d.Retry)
	d = p.ShouldRetry(state, err)
	assert.False(t, d.Retry)
	assert.Equal(t, 3, state.Attempts)
}

func TestShouldRetryNonConnectivity(t *testing.T) {
	p := DefaultPolicy()
	state := p.NewState()

	d := p.ShouldRetry(state, errors.New("decode failure"))
	assert.False(t, d.Retry)
	assert.Zero(t, state.Attempts)
	assert.False(t, p.ShouldRetry(nil, connectivityErr(http.CodeTimedOut)).Retry)
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	state := p.NewState()
	assert.Equal(t, DefaultMaxAttempts, state.MaxAttempts)

	calls := 1
	for p.ShouldRetry(state, connectivityErr(http.CodeTimedOut)).Retry {
		calls++
	}
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestZeroPolicyUsesDefaults(t *testing.T) {
	state := Policy{}.NewState()
	assert.Equal(t, DefaultMaxAttempts, state.MaxAttempts)
	assert.Zero(t, state.Delay)
}

func TestSingleAttemptNeverRetries(t *testing.T) {
	p := Policy{MaxAttempts: 1, Delay: time.Second}
	assert.False(t, p.ShouldRetry(p.NewState(), connectivityErr(http.CodeTimedOut)).Retry)
}

func TestExponentialBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 10, Delay: time.Second, Backoff: BackoffExponential, MaxDelay: 5 * time.Second}
	state := p.NewState()
	err := connectivityErr(http.CodeTimedOut)

	var delays []time.Duration
	for range 5 {
		d := p.ShouldRetry(state, err)
		require.True(t, d.Retry)
		delays = append(delays, d.Delay)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, delays)
}

func TestExponentialBackoffLargeAttempt(t *testing.T) {
	p := Policy{Delay: time.Millisecond, Backoff: BackoffExponential}
	assert.Equal(t, DefaultMaxDelay, p.delay(200))
}

func TestJitterStaysWithinBounds(t *testing.T) {
	p := Policy{Delay: 100 * time.Millisecond, Jitter: true}
	for range 50 {
		d := p.delay(1)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 100*time.Millisecond)
	}
}
