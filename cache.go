package exocore

import (
	"context"
	"strconv"
	"time"
)

// Cache is the interface for caching values across requests:
// context-provider lookups that are expensive to
// recompute (e.g. a remote OIDC JWKS fetch), or query result pages. Users
// supply an implementation (in-memory, Redis, …); exocore only depends on
// this interface.
type Cache interface {
	// Get retrieves a value from the cache. Returns nil, nil if the key
	// doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL. If ttl is 0,
	// the value does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// PlanCacheKey identifies a compiled GraphQL plan for a given image
// version, operation name and variable shape, letting the planner (§4.4
// "planning is deterministic") skip re-lowering an operation it has seen
// before with the same document.
type PlanCacheKey struct {
	ImageVersion uint32
	OperationKey string
}

// String returns the cache key's string representation.
func (k PlanCacheKey) String() string {
	return k.OperationKey + "@" + strconv.FormatUint(uint64(k.ImageVersion), 10)
}
