// Package memorystorage keeps user records in process memory.
// Records are indexed by ID and listed in insertion order; nothing survives a restart.
package memorystorage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/patric-chuzhbe/usersapi/internal/user"
)

// TriesToGenerateUniqueID bounds the attempts to find an ID that was never issued.
const TriesToGenerateUniqueID = 10

// ErrIDGenerationExhausted is returned by AddUser when every generated ID collided with an issued one.
var ErrIDGenerationExhausted = errors.New("the number of attempts to generate a unique user ID has been exceeded")

// MemoryStorage is a mutex-guarded, insertion-ordered user collection.
type MemoryStorage struct {
	mu         sync.RWMutex
	users      *orderedmap.OrderedMap[string, user.User]
	issued     map[string]struct{} // every ID ever handed out, removed records included
	generateID func() (string, error)
}

// Option customizes a MemoryStorage.
type Option func(*MemoryStorage)

// WithIDGenerator replaces the default v4 UUID generator.
func WithIDGenerator(generate func() (string, error)) Option {
	return func(storage *MemoryStorage) {
		storage.generateID = generate
	}
}

func newUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New returns an empty storage.
func New(options ...Option) (*MemoryStorage, error) {
	storage := &MemoryStorage{
		users:      orderedmap.New[string, user.User](),
		issued:     make(map[string]struct{}),
		generateID: newUUID,
	}
	for _, option := range options {
		option(storage)
	}

	return storage, nil
}

func (theStorage *MemoryStorage) ListUsers(ctx context.Context) ([]user.User, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	result := make([]user.User, 0, theStorage.users.Len())
	for pair := theStorage.users.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value.Clone())
	}

	return result, nil
}

func (theStorage *MemoryStorage) GetUser(ctx context.Context, id string) (user.User, bool, error) {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	usr, found := theStorage.users.Get(id)
	if !found {
		return user.User{}, false, nil
	}

	return usr.Clone(), true, nil
}

func (theStorage *MemoryStorage) generateUniqueID() (string, error) {
	for i := 0; i < TriesToGenerateUniqueID; i++ {
		id, err := theStorage.generateID()
		if err != nil {
			return "", fmt.Errorf("in internal/db/memorystorage/memorystorage.go/generateUniqueID(): error while generating an ID: %w", err)
		}
		if _, taken := theStorage.issued[id]; !taken {
			return id, nil
		}
	}

	return "", ErrIDGenerationExhausted
}

// AddUser stores a new record under a freshly generated ID and returns it.
func (theStorage *MemoryStorage) AddUser(
	ctx context.Context,
	username string,
	age float64,
	hobbies []string,
) (user.User, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	id, err := theStorage.generateUniqueID()
	if err != nil {
		return user.User{}, err
	}

	usr := user.User{
		ID:       id,
		Username: username,
		Age:      age,
		Hobbies:  hobbies,
	}.Clone()
	theStorage.users.Set(id, usr)
	theStorage.issued[id] = struct{}{}

	return usr.Clone(), nil
}

// ReplaceUser overwrites every field except the ID. The record keeps its position in the list.
func (theStorage *MemoryStorage) ReplaceUser(
	ctx context.Context,
	id string,
	username string,
	age float64,
	hobbies []string,
) (user.User, bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	if _, found := theStorage.users.Get(id); !found {
		return user.User{}, false, nil
	}

	usr := user.User{
		ID:       id,
		Username: username,
		Age:      age,
		Hobbies:  hobbies,
	}.Clone()
	theStorage.users.Set(id, usr)

	return usr.Clone(), true, nil
}

func (theStorage *MemoryStorage) RemoveUser(ctx context.Context, id string) (bool, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	_, removed := theStorage.users.Delete(id)

	return removed, nil
}

// Count returns the number of stored records.
func (theStorage *MemoryStorage) Count() int {
	theStorage.mu.RLock()
	defer theStorage.mu.RUnlock()

	return theStorage.users.Len()
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
