// Package credentials defines the credential store port used to persist the
// authorization and refresh tokens, with in-memory and OS keyring adapters.
//
// Stores are process-wide shared state. Implementations must be safe for
// concurrent use because concurrent executions may rotate tokens at the same time.
package credentials

import (
	"context"
	"errors"
	"strings"
)

// Well-known keys
const (
	KeyAuthorization = "Authorization"
	KeyRefreshToken  = "Refresh-Token"
)

var (
	// ErrNotFound is returned when no value is stored under a key
	ErrNotFound = errors.New("credential not found")
	// ErrUnavailable is returned when the backing store cannot be reached
	ErrUnavailable = errors.New("credential store unavailable")
)

// Store reads and writes credentials by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// BatchSetter is implemented by stores that can write several keys atomically.
type BatchSetter interface {
	SetAll(ctx context.Context, values map[string]string) error
}

// Rotate persists a fresh authorization/refresh token pair. A "Bearer" prefix
// is stripped from both values before they are stored.
func Rotate(ctx context.Context, store Store, authorization, refreshToken string) error {
	values := map[string]string{
		KeyAuthorization: StripBearer(authorization),
		KeyRefreshToken:  StripBearer(refreshToken),
	}
	if batch, ok := store.(BatchSetter); ok {
		return batch.SetAll(ctx, values)
	}
	if err := store.Set(ctx, KeyRefreshToken, values[KeyRefreshToken]); err != nil {
		return err
	}
	return store.Set(ctx, KeyAuthorization, values[KeyAuthorization])
}

// StripBearer removes a leading "Bearer" scheme and surrounding whitespace.
func StripBearer(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= len("Bearer") && strings.EqualFold(token[:len("Bearer")], "Bearer") {
		token = token[len("Bearer"):]
	}
	return strings.TrimSpace(token)
}

// Token returns the stored authorization token, or "" when none is stored.
func Token(ctx context.Context, store Store) (string, error) {
	if store == nil {
		return "", nil
	}
	token, err := store.Get(ctx, KeyAuthorization)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}
