package storage

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned by Get for a key that was never written.
	// Callers treat it as the normal first-run condition, not a failure.
	ErrKeyNotFound = errors.New("key not found in store")

	// ErrKeyExists is returned by PutIfAbsent when another writer created
	// the key first.
	ErrKeyExists = errors.New("key already exists in store")
)

// BlobStore is an opaque durable key→JSON mapping. The roster document is
// one value under one key; the store knows nothing about its shape.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error

	// PutIfAbsent creates the key only if it does not exist yet, so
	// concurrent first-run initializers cannot clobber each other.
	PutIfAbsent(ctx context.Context, key string, data []byte) error
}
