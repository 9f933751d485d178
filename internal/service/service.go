// Package service holds the user CRUD rules that sit between the HTTP router and the storage:
// identifier format checks, required-field checks and the mapping of storage results onto
// the errors declared in the models package.
package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/usersapi/internal/models"
	"github.com/patric-chuzhbe/usersapi/internal/user"
)

type usersReader interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id string) (user.User, bool, error)
}

type usersWriter interface {
	AddUser(ctx context.Context, username string, age float64, hobbies []string) (user.User, error)
	ReplaceUser(ctx context.Context, id string, username string, age float64, hobbies []string) (user.User, bool, error)
	RemoveUser(ctx context.Context, id string) (bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	usersReader
	usersWriter
	pinger
}

type Service struct {
	db       storage
	validate *validator.Validate
}

var (
	ErrInvalidUUID           = models.ErrInvalidUUID
	ErrUserNotFound          = models.ErrUserNotFound
	ErrMissingRequiredFields = models.ErrMissingRequiredFields
)

func New(db storage) *Service {
	return &Service{
		db:       db,
		validate: validator.New(),
	}
}

// ValidateUserID reports ErrInvalidUUID unless id is a canonical version 4 UUID
// (36 characters, RFC 4122 variant).
func (s *Service) ValidateUserID(id string) error {
	if len(id) != 36 {
		return ErrInvalidUUID
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		return ErrInvalidUUID
	}

	return nil
}

func (s *Service) validatePayload(payload models.UserPayload) error {
	if err := s.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingRequiredFields, err.Error())
	}

	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.db.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (user.User, error) {
	if err := s.ValidateUserID(id); err != nil {
		return user.User{}, err
	}

	usr, found, err := s.db.GetUser(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if !found {
		return user.User{}, ErrUserNotFound
	}

	return usr, nil
}

// CreateUser checks the payload and stores a new user.
func (s *Service) CreateUser(ctx context.Context, payload models.UserPayload) (user.User, error) {
	if err := s.validatePayload(payload); err != nil {
		return user.User{}, err
	}

	return s.db.AddUser(ctx, payload.Username, payload.Age, payload.Hobbies)
}

// ReplaceUser overwrites all fields of an existing user. There is no partial update.
func (s *Service) ReplaceUser(ctx context.Context, id string, payload models.UserPayload) (user.User, error) {
	if err := s.ValidateUserID(id); err != nil {
		return user.User{}, err
	}

	if err := s.validatePayload(payload); err != nil {
		return user.User{}, err
	}

	usr, found, err := s.db.ReplaceUser(ctx, id, payload.Username, payload.Age, payload.Hobbies)
	if err != nil {
		return user.User{}, err
	}
	if !found {
		return user.User{}, ErrUserNotFound
	}

	return usr, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.ValidateUserID(id); err != nil {
		return err
	}

	removed, err := s.db.RemoveUser(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrUserNotFound
	}

	return nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
