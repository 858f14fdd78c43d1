// Package cache defines the read-projection cache port and its Redis and
// in-memory implementations.
package cache

import "context"

// Cache is a minimal string cache used for read-heavy projections.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
