// Package objectstore declares the storage abstraction templates and account
// snapshots are read from, kept independent of any particular backend so
// fan-out and dispatch logic can be tested against an in-memory fake.
package objectstore

import "context"

// ObjectStore lists and fetches objects from a bucket/prefix namespace.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}
