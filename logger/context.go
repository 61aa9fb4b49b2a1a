package logger

import (
	"context"
	"sync/atomic"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// executionIDKey carries the identifier of the Execution a log line belongs to
	executionIDKey contextKey = "execution_id"
	// attemptCounterKey tracks how many transport attempts an Execution has made
	attemptCounterKey contextKey = "attempt_counter"
)

// WithExecutionID returns a context tagged with the given execution identifier.
func WithExecutionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, executionIDKey, id)
}

// ExecutionIDFromContext returns the execution identifier stored in ctx, if any.
func ExecutionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(executionIDKey).(string)
	return id, ok && id != ""
}

// WithAttemptCounter creates a new context carrying a zeroed attempt counter.
func WithAttemptCounter(ctx context.Context) context.Context {
	counter := int64(0)
	return context.WithValue(ctx, attemptCounterKey, &counter)
}

// IncrementAttempt increments the attempt counter in the context and returns the new value.
func IncrementAttempt(ctx context.Context) int64 {
	if counter, ok := ctx.Value(attemptCounterKey).(*int64); ok && counter != nil {
		return atomic.AddInt64(counter, 1)
	}
	return 0
}

// GetAttemptCount returns the current attempt count from the context
func GetAttemptCount(ctx context.Context) int64 {
	if counter, ok := ctx.Value(attemptCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}
