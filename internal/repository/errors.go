// Package repository defines the storage contract shared by every backend
// together with the error values reused across implementations.  These
// sentinel values allow higher layers such as services and handlers to
// distinguish between failure scenarios without knowing which backend is
// active.  For example, ErrNotFound maps to HTTP 404 while ErrConflict
// signals that an operation cannot proceed because dependent records exist
// (e.g. deleting a zone that still has spaces).
package repository

import "errors"

// ErrNotFound is returned when a lookup by key matches no record.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a create would reuse an existing natural
// key or violate a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as removing a space that still has
// reservations or pointing a row at a parent that does not exist.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
