// Package kvstore provides the abstract key/value surface the
// Credential Store persists through (spec's "host-control surface" kvStore:
// async get/set/remove over string keys). Two implementations are
// provided: an in-memory store for tests and ephemeral daemon runs, and
// a modernc.org/sqlite-backed store for a real on-disk credential cache
// (grounded in jwulff-steno, the only pack repo that ships a pure-Go
// sqlite dependency).
package kvstore

import "context"

// Store is the abstract key/value surface. All operations are
// idempotent from the caller's point of view: Delete on a missing key
// is not an error, Get on a missing key returns ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys returns all keys with the given prefix, used by remove() to
	// delete every entry associated with a credential.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "kvstore: key not found" }
