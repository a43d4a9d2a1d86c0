// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the requested state transition is not allowed
// from the entity's current state.
var ErrConflict = errors.New("conflict: invalid state transition")
