// Package router maps the /api/users HTTP surface onto the user service.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usersapi/internal/logger"
	"github.com/patric-chuzhbe/usersapi/internal/models"
	"github.com/patric-chuzhbe/usersapi/internal/user"
)

// Plain-text bodies of the error responses.
const (
	BodyNotFound              = "Not Found"
	BodyUserNotFound          = "User not found"
	BodyInvalidUUID           = "Invalid UUID"
	BodyMissingRequiredFields = "Missing required fields"
	BodyInvalidJSON           = "Invalid JSON"
	BodyInternalServerError   = "Internal Server Error"
)

type userService interface {
	ValidateUserID(id string) error
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	CreateUser(ctx context.Context, payload models.UserPayload) (user.User, error)
	ReplaceUser(ctx context.Context, id string, payload models.UserPayload) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Router struct {
	users userService
}

func writePlainText(res http.ResponseWriter, statusCode int, body string) {
	res.WriteHeader(statusCode)
	if _, err := res.Write([]byte(body)); err != nil {
		logger.Log.Debugln("Error writing the response body:", zap.Error(err))
	}
}

func writeJSON(res http.ResponseWriter, statusCode int, payload interface{}) {
	responseBody, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorln("Error marshaling the response:", zap.Error(err))
		writePlainText(res, http.StatusInternalServerError, BodyInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if _, err := res.Write(responseBody); err != nil {
		logger.Log.Debugln("Error writing the response body:", zap.Error(err))
	}
}

func writeError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidUUID):
		writePlainText(res, http.StatusBadRequest, BodyInvalidUUID)
	case errors.Is(err, models.ErrInvalidJSON):
		writePlainText(res, http.StatusBadRequest, BodyInvalidJSON)
	case errors.Is(err, models.ErrMissingRequiredFields):
		writePlainText(res, http.StatusBadRequest, BodyMissingRequiredFields)
	case errors.Is(err, models.ErrUserNotFound):
		writePlainText(res, http.StatusNotFound, BodyUserNotFound)
	default:
		logger.Log.Errorln("Unexpected error while handling the request:", zap.Error(err))
		writePlainText(res, http.StatusInternalServerError, BodyInternalServerError)
	}
}

// decodeUserPayload reads only the exact keys username, age and hobbies.
// encoding/json matches struct fields case-insensitively, so the object is
// split into raw fields first and every other key, "Username" included, is ignored.
func decodeUserPayload(body []byte) (models.UserPayload, error) {
	var payload models.UserPayload

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return payload, err
	}

	targets := map[string]interface{}{
		"username": &payload.Username,
		"age":      &payload.Age,
		"hobbies":  &payload.Hobbies,
	}
	for key, target := range targets {
		raw, found := fields[key]
		if !found {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return payload, fmt.Errorf("field %q: %w", key, err)
		}
	}

	return payload, nil
}

// getUserPayload buffers the whole request body and only then decodes it.
func getUserPayload(req *http.Request) (models.UserPayload, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return models.UserPayload{}, err
	}

	payload, err := decodeUserPayload(body)
	if err != nil {
		logger.Log.Debugln("Error decoding the user payload:", zap.Error(err))
		return models.UserPayload{}, models.ErrInvalidJSON
	}

	return payload, nil
}

// GetApiusers handles GET /api/users.
func (router *Router) GetApiusers(res http.ResponseWriter, req *http.Request) {
	users, err := router.users.ListUsers(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// GetApiusersID handles GET /api/users/{id}.
func (router *Router) GetApiusersID(res http.ResponseWriter, req *http.Request) {
	usr, err := router.users.GetUser(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

// PostApiusers handles POST /api/users.
func (router *Router) PostApiusers(res http.ResponseWriter, req *http.Request) {
	payload, err := getUserPayload(req)
	if err != nil {
		writeError(res, err)
		return
	}

	usr, err := router.users.CreateUser(req.Context(), payload)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, usr)
}

// PutApiusersID handles PUT /api/users/{id}. The ID is checked before the body is read.
func (router *Router) PutApiusersID(res http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "id")
	if err := router.users.ValidateUserID(userID); err != nil {
		writeError(res, err)
		return
	}

	payload, err := getUserPayload(req)
	if err != nil {
		writeError(res, err)
		return
	}

	usr, err := router.users.ReplaceUser(req.Context(), userID, payload)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, usr)
}

// DeleteApiusersID handles DELETE /api/users/{id}.
func (router *Router) DeleteApiusersID(res http.ResponseWriter, req *http.Request) {
	if err := router.users.DeleteUser(req.Context(), chi.URLParam(req, "id")); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

func notFound(res http.ResponseWriter, req *http.Request) {
	writePlainText(res, http.StatusNotFound, BodyNotFound)
}

// New builds the chi router. Every path under /api/users/ is dispatched on its
// third segment, whatever follows it. Unknown paths and unsupported methods get 404.
func New(
	users userService,
	middlewares ...func(http.Handler) http.Handler,
) *chi.Mux {
	myRouter := Router{
		users: users,
	}

	router := chi.NewRouter()
	router.Use(middlewares...)
	router.NotFound(notFound)
	router.MethodNotAllowed(notFound)

	router.Get(`/api/users`, myRouter.GetApiusers)
	router.Post(`/api/users`, myRouter.PostApiusers)

	for _, pattern := range []string{`/api/users/`, `/api/users/{id}`, `/api/users/{id}/*`} {
		router.Get(pattern, myRouter.GetApiusersID)
		router.Put(pattern, myRouter.PutApiusersID)
		router.Delete(pattern, myRouter.DeleteApiusersID)
	}

	return router
}
