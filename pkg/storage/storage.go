// Package storage is the persistent key-value boundary underneath the cache
// store. Backends may be synchronous (in-memory) or backed by real I/O (files);
// both sit behind the same Store contract and the cache never touches the
// medium directly.
package storage

import (
	"errors"
)

// storage errors surfaced to the cache layer
var (
	// ErrKeyNotFound - the key has no value in the backend
	ErrKeyNotFound = errors.New("storage key not found")
	// ErrUnavailable - the backend cannot be used at all, e.g. the medium is
	// missing or access was denied
	ErrUnavailable = errors.New("storage is unavailable")
	// ErrQuotaExceeded - the backend refused the write for capacity reasons
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey - the key cannot be used with this backend, e.g. it
	// would escape a file-backed store's directory
	ErrInvalidKey = errors.New("storage key is invalid")
)

// Store - contract for a namespaced string-keyed persistent store
type Store interface {
	// Get returns the raw value for key, or ErrKeyNotFound
	Get(key string) ([]byte, error)
	// Set writes value under key, replacing any previous value wholesale
	Set(key string, value []byte) error
	// Remove deletes key; removing an absent key is not an error
	Remove(key string) error
	// Keys enumerates every stored key with the given prefix
	Keys(prefix string) ([]string, error)
}
