// Package retry decides whether a failed transport exchange is attempted again,
// and after how long.
package retry

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	"time"

	"github.com/gaborage/dataaccess/http"
)

// Backoff selects how the delay grows between attempts
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffExponential Backoff = "exponential"
)

const (
	DefaultMaxAttempts = 10
	DefaultDelay       = 3 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// maxShift caps the exponent to avoid overflow when computing the multiplier
const maxShift = 20

// Policy configures retries of connectivity failures.
type Policy struct {
	// MaxAttempts is the total number of transport calls allowed, including the first
	MaxAttempts int
	// Delay is the fixed delay, or the base of the exponential schedule
	Delay   time.Duration
	Backoff Backoff
	// MaxDelay caps exponential delays
	MaxDelay time.Duration
	// Jitter applies full jitter: a random delay in [0, d)
	Jitter bool
}

// DefaultPolicy retries up to 10 calls, 3 seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Backoff:     BackoffFixed,
		MaxDelay:    DefaultMaxDelay,
	}
}

// State tracks the retries of one execution
type State struct {
	Attempts    int
	MaxAttempts int
	Delay       time.Duration
}

// Decision is the result of ShouldRetry
type Decision struct {
	Retry bool
	Delay time.Duration
}

// NewState creates the state for a new execution
func (p Policy) NewState() *State {
	return &State{MaxAttempts: p.maxAttempts(), Delay: p.baseDelay()}
}

// ShouldRetry records a failed attempt and decides whether to retry it.
// Only connectivity failures count as attempts; any other error yields no retry
// and leaves state untouched.
func (p Policy) ShouldRetry(state *State, err error) Decision {
	if state == nil || !IsConnectivity(err) {
		return Decision{}
	}
	if state.MaxAttempts <= 0 {
		state.MaxAttempts = p.maxAttempts()
	}
	state.Attempts++
	if state.Attempts >= state.MaxAttempts {
		return Decision{}
	}
	state.Delay = p.delay(state.Attempts)
	return Decision{Retry: true, Delay: state.Delay}
}

// IsConnectivity reports whether err carries a transport error of the
// connectivity class.
func IsConnectivity(err error) bool {
	var te *http.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return IsConnectivityCode(te.Code)
}

// IsConnectivityCode reports whether code belongs to the retryable class
func IsConnectivityCode(code http.ErrorCode) bool {
	switch code {
	case http.CodeTimedOut,
		http.CodeCannotFindHost,
		http.CodeCannotConnectToHost,
		http.CodeNetworkConnectionLost,
		http.CodeNotConnectedToInternet:
		return true
	default:
		return false
	}
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) baseDelay() time.Duration {
	if p.Delay < 0 {
		return 0
	}
	return p.Delay
}

// delay returns the wait before retry number attempt (1-based)
func (p Policy) delay(attempt int) time.Duration {
	d := p.baseDelay()
	if p.Backoff == BackoffExponential && d > 0 {
		shift := attempt - 1
		if shift > maxShift {
			shift = maxShift
		}
		d *= time.Duration(1 << shift)
		maxDelay := p.MaxDelay
		if maxDelay <= 0 {
			maxDelay = DefaultMaxDelay
		}
		if d > maxDelay {
			d = maxDelay
		}
	}
	if !p.Jitter || d <= 0 {
		return d
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
	if err != nil {
		// On RNG failure, fall back to the full delay
		return d
	}
	return time.Duration(n.Int64())
}
