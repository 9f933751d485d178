// Package user defines the user record kept by the storage layer
// and returned by the HTTP API.
package user

import "slices"

// User represents a single stored user record.
type User struct {
	// ID is the unique identifier of the user, a version 4 UUID generated on creation.
	ID string `json:"id"`

	Username string   `json:"username"`
	Age      float64  `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

// Clone returns a copy of the user that does not share the hobbies slice.
func (u User) Clone() User {
	u.Hobbies = slices.Clone(u.Hobbies)
	if u.Hobbies == nil {
		u.Hobbies = []string{}
	}
	return u
}
