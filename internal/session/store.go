// Package session keeps per-conversation state between webhook calls.
//
// A Store maps a session id to a value of type T. The checkout flow stores a
// Record; the review flow stores its own draft type. Callers serialize turns
// for one session id with a Locker, so Upsert only has to be atomic with
// respect to a single process.
package session

import "context"

// Store is a keyed session store.
type Store[T any] interface {
	// Get returns the value for id and whether it exists.
	Get(ctx context.Context, id string) (T, bool, error)
	// Upsert loads the value for id (the zero value when absent), applies
	// mutate and saves the result. If mutate returns an error nothing is saved
	// and the error is returned.
	Upsert(ctx context.Context, id string, mutate func(*T) error) error
	// Delete removes id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
