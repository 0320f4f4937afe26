package store

import "context"

// Store is the shared content-addressed chunk store. Upsert has
// insert-or-replace semantics keyed on (owner, content); the store does not
// implement its own conflict resolution beyond that.
type Store interface {
	Upsert(ctx context.Context, ownerId string, content string, metadata map[string]any, vector []float32, scope string) error
	Search(ctx context.Context, ownerId string, vector []float32, limit int) ([]Record, error)
	List(ctx context.Context, ownerId string, source string) ([]Record, error)
}

// TokenSource resolves a user's inbox credential. The token lives in the
// store, not in process environment.
type TokenSource interface {
	GmailToken(ctx context.Context, ownerId string) (string, error)
}
