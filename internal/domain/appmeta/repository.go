package appmeta

import "context"

type Repository interface {
	// Set upserts one key, stamping the write time.
	Set(ctx context.Context, key, value string) error
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) (Entry, error)
}
