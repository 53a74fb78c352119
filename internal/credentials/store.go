// Package credentials persists the local login credentials the session
// monitor derives identity from, and reports when they change.
package credentials

import "context"

// Store is a local key/value credential store.
//
// Lookup never fails: a value that cannot be read is reported as absent.
// Watch blocks until ctx is done, calling onChange with the key whenever a
// credential changes, possibly from another process. Stores without a
// change source only return on cancellation.
//
// Set and Delete are used by the login flow outside this client, which
// writes the credentials on log in and removes them on log out; the client
// itself only reads them.
type Store interface {
	Lookup(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Watch(ctx context.Context, onChange func(key string)) error
}
