// Package cache provides the TTL caches used for rendered month summaries.
// Two implementations exist: an in-process LRU and a Redis-backed cache for
// deployments that share state between replicas.
package cache

import "context"

// Cache stores serialized responses under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Delete(ctx context.Context, key string)

	// DeletePrefix drops every key starting with prefix. Used to
	// invalidate all of one owner's summaries after a write.
	DeletePrefix(ctx context.Context, prefix string)
}
