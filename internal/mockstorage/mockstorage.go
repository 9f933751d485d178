// Package mockstorage provides a testify-based mock implementation
// of the storage interfaces used by the service package.
// It lets service and router tests assert which storage calls were (or were not) made.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/usersapi/internal/user"
)

// StorageMock is a testify mock that implements all storage operations
// the service relies on.
type StorageMock struct {
	mock.Mock
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ListUsers mocks fetching every stored user.
func (m *StorageMock) ListUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]user.User)
	return users, args.Error(1)
}

// GetUser mocks a lookup by ID.
func (m *StorageMock) GetUser(ctx context.Context, id string) (user.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Bool(1), args.Error(2)
}

// AddUser mocks storing a new user.
func (m *StorageMock) AddUser(
	ctx context.Context,
	username string,
	age float64,
	hobbies []string,
) (user.User, error) {
	args := m.Called(ctx, username, age, hobbies)
	return args.Get(0).(user.User), args.Error(1)
}

// ReplaceUser mocks a full overwrite of an existing user.
func (m *StorageMock) ReplaceUser(
	ctx context.Context,
	id string,
	username string,
	age float64,
	hobbies []string,
) (user.User, bool, error) {
	args := m.Called(ctx, id, username, age, hobbies)
	return args.Get(0).(user.User), args.Bool(1), args.Error(2)
}

// RemoveUser mocks a deletion by ID.
func (m *StorageMock) RemoveUser(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
