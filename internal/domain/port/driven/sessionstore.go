package driven

import (
	"context"
	"errors"
)

// ErrNotPaired is returned when an operation needs a linked device and the
// session store holds none.
var ErrNotPaired = errors.New("no linked device in session store")

// SessionStore defines the driven port for linked-device credential
// persistence. The credentials themselves are opaque to the domain.
type SessionStore interface {
	// Persist writes the current credentials. It is called on every
	// credential update and must complete before the caller proceeds.
	Persist(ctx context.Context) error

	// Linked reports whether stored credentials belong to a paired device.
	Linked(ctx context.Context) (bool, error)

	// Clear removes all stored credentials. Relinking is required afterwards.
	Clear(ctx context.Context) error
}
