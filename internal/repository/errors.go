// Package repository defines error types that are reused across the store
// implementations. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting raw driver errors.
package repository

import "errors"

// ErrEmailExists is returned when an insert violates the unique index on
// users.email. Handlers should translate this into an HTTP 409 response.
// It is the only arbiter for concurrent registrations with the same email;
// there is deliberately no application-level pre-check.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user row matches the given id or
// email. Handlers should translate this into an HTTP 404 response (or 401
// on the authentication path, where revealing existence is unwanted).
var ErrUserNotFound = errors.New("user not found")
