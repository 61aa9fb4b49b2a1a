package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/dataaccess/credentials"
)

// MockCredentialStore provides a testify-based mock implementation of credentials.Store.
//
// Example usage:
//
//	store := &mocks.MockCredentialStore{}
//	store.ExpectGet(credentials.KeyAuthorization, "token", nil)
//	store.ExpectSet(credentials.KeyAuthorization, "fresh", nil)
type MockCredentialStore struct {
	mock.Mock
}

var _ credentials.Store = (*MockCredentialStore)(nil)

// Get implements credentials.Store
func (m *MockCredentialStore) Get(ctx context.Context, key string) (string, error) {
	arguments := m.Called(ctx, key)
	return arguments.String(0), arguments.Error(1)
}

// Set implements credentials.Store
func (m *MockCredentialStore) Set(ctx context.Context, key, value string) error {
	arguments := m.Called(ctx, key, value)
	return arguments.Error(0)
}

// ExpectGet sets up a Get expectation for key
func (m *MockCredentialStore) ExpectGet(key, value string, err error) *mock.Call {
	return m.On("Get", mock.Anything, key).Return(value, err)
}

// ExpectSet sets up a Set expectation for key and value
func (m *MockCredentialStore) ExpectSet(key, value string, err error) *mock.Call {
	return m.On("Set", mock.Anything, key, value).Return(err)
}
