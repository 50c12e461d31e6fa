package access

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// cachedAccess is the wire form of a resolved access entry
type cachedAccess struct {
	Permissions PermissionSet `json:"permissions"`
	IsOwner     bool          `json:"is_owner"`
}

// Cache stores resolved capability sets in Redis with a TTL. Entries are
// invalidated on role writes; a stale entry can otherwise live at most one
// TTL, which bounds how long a revoked capability lingers.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a new access cache
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(tenantID, userID uuid.UUID) string {
	return fmt.Sprintf("access:%s:%s", tenantID, userID)
}

// Get retrieves a cached access entry; a miss returns nil without error
func (c *Cache) Get(ctx context.Context, tenantID, userID uuid.UUID) (*Access, error) {
	data, err := c.client.Get(ctx, cacheKey(tenantID, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read access cache: %w", err)
	}

	var entry cachedAccess
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode access cache entry: %w", err)
	}

	access := AccessFromSet(entry.Permissions, entry.IsOwner)
	return &access, nil
}

// Set stores a resolved access entry
func (c *Cache) Set(ctx context.Context, tenantID, userID uuid.UUID, access Access) error {
	data, err := json.Marshal(cachedAccess{
		Permissions: access.Permissions(),
		IsOwner:     access.IsOwner,
	})
	if err != nil {
		return fmt.Errorf("failed to encode access cache entry: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(tenantID, userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write access cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for a tenant/user pair
func (c *Cache) Invalidate(ctx context.Context, tenantID, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(tenantID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate access cache: %w", err)
	}
	return nil
}
