// Package store persists typed records in logical tables over a pluggable
// key-value backend (memory, Redis or DynamoDB).
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrConflict = errors.New("store: concurrent update conflict")
)

// maxRetries bounds optimistic retries in the Redis and DynamoDB backends.
const maxRetries = 8

// Record is implemented by every persisted type.
type Record interface {
	RecordID() string
}

// Mutation is applied by a backend inside its atomic section. It receives
// the stored bytes (nil when absent) and returns the bytes and index values
// to write. Returning errSkip leaves the row untouched.
type Mutation func(old []byte, exists bool) (data []byte, idx map[string]string, err error)

// Backend stores opaque rows with secondary index values.
type Backend interface {
	Get(ctx context.Context, table, id string) ([]byte, error)
	Mutate(ctx context.Context, table, id string, fn Mutation) error
	Scan(ctx context.Context, table string) ([][]byte, error)
	ListBy(ctx context.Context, table, index, value string) ([][]byte, error)
	Delete(ctx context.Context, table, id string) error
	Close() error
}

var errSkip = errors.New("store: skip write")
