// Package keyfile defines the abstract capability the session state
// machine consumes to read and write keyfiles: exists/get/set/delete over
// an opaque bytes-to-bytes mapping, plus an exclusive-lock entry point for
// the multi-step ChangeKey/ReplaceKeyFile sequences. The core never
// inspects the engine behind Store; it only reacts to KeyNotFound vs. every
// other failure.
package keyfile

import "context"

// Store is the shared, connection-outliving handle to the keyfile mapping.
// Implementations serialize mutation behind a single-writer/many-reader
// discipline; Get/Exists may run concurrently with each other but never
// concurrently with a Set/Delete/Atomic call.
type Store interface {
	// Exists reports whether key is present.
	Exists(ctx context.Context, key []byte) (bool, error)

	// Get returns the bytes stored under key, or a *Error with
	// Code == ErrKeyNotFound if absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores value under key, creating or overwriting the binding.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes key, returning a *Error with Code == ErrKeyNotFound
	// if it was not present.
	Delete(ctx context.Context, key []byte) error

	// Atomic runs fn under a single exclusive write lock, so that a
	// read-delete-set sequence (ChangeKey, ReplaceKeyFile) is never
	// interleaved with another writer. fn must use only the Tx passed to
	// it, not the enclosing Store, to stay inside the lock.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	// Close releases resources held by the store (file handles, etc).
	Close() error
}

// Tx is the restricted view of Store available inside an Atomic callback.
type Tx interface {
	Exists(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}
