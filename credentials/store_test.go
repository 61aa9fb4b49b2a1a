package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// setOnlyStore hides SetAll so Rotate falls back to individual writes
type setOnlyStore struct {
	inner *MemoryStore
	sets  []string
}

func (s *setOnlyStore) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, key)
}

func (s *setOnlyStore) Set(ctx context.Context, key, value string) error {
	s.sets = append(s.sets, key)
	return s.inner.Set(ctx, key, value)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) { return "", ErrUnavailable }
func (failingStore) Set(context.Context, string, string) error   { return ErrUnavailable }

func TestStripBearer(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "Bearer abc", expected: "abc"},
		{in: "bearer abc", expected: "abc"},
		{in: "Bearerabc", expected: "abc"},
		{in: "  Bearer   abc  ", expected: "abc"},
		{in: "abc", expected: "abc"},
		{in: "", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripBearer(tt.in))
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, KeyAuthorization)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, KeyAuthorization, "abc"))
	value, err := store.Get(ctx, KeyAuthorization)
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestRotate(t *testing.T) {
	ctx := context.Background()

	t.Run("batch store", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, Rotate(ctx, store, "Bearer new-auth", "Bearer new-refresh"))

		auth, _ := store.Get(ctx, KeyAuthorization)
		refresh, _ := store.Get(ctx, KeyRefreshToken)
		assert.Equal(t, "new-auth", auth)
		assert.Equal(t, "new-refresh", refresh)
	})

	t.Run("plain store writes refresh token first", func(t *testing.T) {
		store := &setOnlyStore{inner: NewMemoryStore()}
		require.NoError(t, Rotate(ctx, store, "a", "r"))
		assert.Equal(t, []string{KeyRefreshToken, KeyAuthorization}, store.sets)
	})

	t.Run("propagates failures", func(t *testing.T) {
		err := Rotate(ctx, failingStore{}, "a", "r")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestToken(t *testing.T) {
	ctx := context.Background()

	token, err := Token(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, token)

	store := NewMemoryStore()
	token, err = Token(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Set(ctx, KeyAuthorization, "abc"))
	token, err = Token(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = Token(ctx, failingStore{})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestMemoryStoreConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := fmt.Sprintf("%d", i)
			assert.NoError(t, Rotate(ctx, store, "Bearer a"+v, "Bearer r"+v))
		}(i)
	}
	wg.Wait()

	auth, _ := store.Get(ctx, KeyAuthorization)
	refresh, _ := store.Get(ctx, KeyRefreshToken)
	// both values come from the same rotation
	assert.Equal(t, auth[1:], refresh[1:])
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	store := NewKeyringStore("")

	_, err := store.Get(ctx, KeyAuthorization)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Rotate(ctx, store, "Bearer k-auth", "k-refresh"))

	auth, err := store.Get(ctx, KeyAuthorization)
	require.NoError(t, err)
	assert.Equal(t, "k-auth", auth)

	refresh, err := store.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "k-refresh", refresh)

	require.NoError(t, store.Delete(ctx, KeyRefreshToken))
	_, err = store.Get(ctx, KeyRefreshToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyringStoreUnavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: connection refused"))
	t.Cleanup(keyring.MockInit)

	_, err := NewKeyringStore("svc").Get(context.Background(), KeyAuthorization)
	assert.ErrorIs(t, err, ErrUnavailable)
}
