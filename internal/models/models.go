package models

import "errors"

// UserPayload is the body of the create and replace requests.
//
// The validation tags reproduce a "falsy" presence check: an empty username,
// a zero age and a missing or empty hobbies list are all treated as missing.
type UserPayload struct {
	Username string   `json:"username" validate:"required"`
	Age      float64  `json:"age" validate:"required"`
	Hobbies  []string `json:"hobbies" validate:"required,min=1"`
}

var (
	ErrInvalidUUID           = errors.New("the user ID is not a valid v4 UUID")
	ErrUserNotFound          = errors.New("user not found")
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrInvalidJSON           = errors.New("the request body is not a valid user JSON object")
)
