package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// Checker resolves a user's effective access within a tenant, consulting
// the cache before the membership store. It is the single entry point the
// surrounding application uses for authorization decisions.
type Checker struct {
	store   Store
	cache   *Cache
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewChecker creates a new access checker. The cache is optional; pass nil
// to resolve against the store on every call.
func NewChecker(store Store, cache *Cache, logger *observability.Logger) *Checker {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Checker{store: store, cache: cache, logger: logger}
}

// WithMetrics attaches metrics counters for cache hits, misses, and
// permission check decisions
func (c *Checker) WithMetrics(m *observability.Metrics) *Checker {
	c.metrics = m
	return c
}

// ResolveUser returns the user's effective access within the tenant.
// Cache faults fall through to the store; only a store fault or a missing
// membership is surfaced.
func (c *Checker) ResolveUser(ctx context.Context, tenantID, userID uuid.UUID) (Access, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, tenantID, userID)
		if err != nil {
			c.logger.WithError(err).Warn("access cache read failed, falling back to store")
		} else if cached != nil {
			if c.metrics != nil {
				c.metrics.AccessCacheHitsTotal.Inc()
			}
			return *cached, nil
		}
		if c.metrics != nil {
			c.metrics.AccessCacheMissesTotal.Inc()
		}
	}

	membership, err := c.store.GetMembership(ctx, tenantID, userID)
	if err != nil {
		return Access{}, err
	}

	access := NewAccess(membership)

	if c.cache != nil {
		if err := c.cache.Set(ctx, tenantID, userID, access); err != nil {
			c.logger.WithError(err).Warn("access cache write failed")
		}
	}

	return access, nil
}

// SetRole writes the membership role and optional override, then drops the
// cached entry so the next check observes the new capabilities.
func (c *Checker) SetRole(ctx context.Context, tenantID, userID uuid.UUID, role Role, override *PermissionSet) error {
	if err := c.store.SetMembershipRole(ctx, tenantID, userID, role, override); err != nil {
		return err
	}

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, tenantID, userID); err != nil {
			c.logger.WithError(err).Warn("access cache invalidation failed")
		}
	}

	return nil
}
