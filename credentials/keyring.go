package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the service name used for keyring entries.
const DefaultKeyringService = "dataaccess"

// KeyringStore persists credentials in the operating system keyring
// (macOS Keychain, Secret Service on Linux, Windows Credential Manager).
type KeyringStore struct {
	service string
	// keyring writes are not transactional; the mutex keeps a rotation pair consistent
	mu sync.Mutex
}

var (
	_ Store       = (*KeyringStore)(nil)
	_ BatchSetter = (*KeyringStore)(nil)
)

// NewKeyringStore creates a store scoped to service. An empty service selects DefaultKeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(_ context.Context, key string) (string, error) {
	value, err := keyring.Get(s.service, key)
	if err != nil {
		return "", s.wrap(key, err)
	}
	return value, nil
}

func (s *KeyringStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := keyring.Set(s.service, key, value); err != nil {
		return s.wrap(key, err)
	}
	return nil
}

// SetAll writes the values one by one while holding the store lock
func (s *KeyringStore) SetAll(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		if err := keyring.Set(s.service, key, value); err != nil {
			return s.wrap(key, err)
		}
	}
	return nil
}

// Delete removes a key from the keyring
func (s *KeyringStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := keyring.Delete(s.service, key); err != nil {
		return s.wrap(key, err)
	}
	return nil
}

func (s *KeyringStore) wrap(key string, err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if isKeyringUnavailableError(err) {
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	return fmt.Errorf("keyring error: %w", err)
}

// isKeyringUnavailableError checks if an error indicates the keyring is locked or inaccessible.
func isKeyringUnavailableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"locked",
		"cannot access",
		"permission denied",
		"failed to unlock",
		"secret service",
		"dbus",
		"user canceled",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}
