package localcache

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = errors.New("local cache store is closed")

// Store is durable key-value persistence scoped to this app.
//
// Update is the only way to mutate a key: fn receives the current value (nil
// when the key is missing) and returns the replacement. Implementations run
// the read, fn and the write as one atomic step, so concurrent updates never
// overwrite each other's changes.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Close() error
}
