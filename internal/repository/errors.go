// Package repository implements the MySQL persistence layer. It
// defines sentinel error values reused across repositories so that
// higher layers such as services and handlers can branch on failure
// kinds without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Services
// translate it into their own uniform failure signals; handlers
// into HTTP 404 where disclosure is harmless.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert violates the unique
// email constraint. Handlers translate this into an HTTP 409
// response; disclosing it on registration is a deliberate,
// documented exception to the enumeration-prevention policy.
var ErrEmailExists = errors.New("email already exists")
