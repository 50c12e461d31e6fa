package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// fakeStore is an in-memory Store for tests
type fakeStore struct {
	memberships map[string]*Membership
	getCalls    int
	getErr      error
	setErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{memberships: make(map[string]*Membership)}
}

func (s *fakeStore) key(tenantID, userID uuid.UUID) string {
	return tenantID.String() + "/" + userID.String()
}

func (s *fakeStore) add(m *Membership) {
	s.memberships[s.key(m.TenantID, m.UserID)] = m
}

func (s *fakeStore) GetMembership(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	m, ok := s.memberships[s.key(tenantID, userID)]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

func (s *fakeStore) SetMembershipRole(ctx context.Context, tenantID, userID uuid.UUID, role Role, override *PermissionSet) error {
	if s.setErr != nil {
		return s.setErr
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	s.memberships[s.key(tenantID, userID)] = &Membership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		Override: override,
	}
	return nil
}

func TestCheckerResolveUser(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves from store without cache", func(t *testing.T) {
		store := newFakeStore()
		tenantID := uuid.New()
		userID := uuid.New()
		store.add(&Membership{TenantID: tenantID, UserID: userID, Role: RoleManager})

		checker := NewChecker(store, nil, nil)

		access, err := checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.True(t, access.CanManage(ResourceAthletes))
		assert.False(t, access.CanManage(ResourceMonthlyFees))
	})

	t.Run("missing membership surfaces sentinel", func(t *testing.T) {
		checker := NewChecker(newFakeStore(), nil, nil)

		_, err := checker.ResolveUser(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("cache short-circuits the store", func(t *testing.T) {
		store := newFakeStore()
		tenantID := uuid.New()
		userID := uuid.New()
		store.add(&Membership{TenantID: tenantID, UserID: userID, Role: RoleAdmin})

		cache, _ := setupCache(t, time.Minute)
		checker := NewChecker(store, cache, nil)

		_, err := checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, store.getCalls)

		access, err := checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, store.getCalls, "second resolve should hit the cache")
		assert.True(t, access.CanManage(ResourceUsers))
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = errors.New("connection refused")

		checker := NewChecker(store, nil, nil)

		_, err := checker.ResolveUser(ctx, uuid.New(), uuid.New())
		assert.Error(t, err)
	})

	t.Run("counts cache hits and misses", func(t *testing.T) {
		store := newFakeStore()
		tenantID := uuid.New()
		userID := uuid.New()
		store.add(&Membership{TenantID: tenantID, UserID: userID, Role: RoleMember})

		cache, _ := setupCache(t, time.Minute)
		metrics := observability.NewMetrics(prometheus.NewRegistry())
		checker := NewChecker(store, cache, nil).WithMetrics(metrics)

		_, err := checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		_, err = checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AccessCacheMissesTotal))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AccessCacheHitsTotal))
	})
}

func TestCheckerSetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("write invalidates the cached entry", func(t *testing.T) {
		store := newFakeStore()
		tenantID := uuid.New()
		userID := uuid.New()
		store.add(&Membership{TenantID: tenantID, UserID: userID, Role: RoleMember})

		cache, _ := setupCache(t, time.Minute)
		checker := NewChecker(store, cache, nil)

		access, err := checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.False(t, access.CanManage(ResourceAthletes))

		require.NoError(t, checker.SetRole(ctx, tenantID, userID, RoleManager, nil))

		access, err = checker.ResolveUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.True(t, access.CanManage(ResourceAthletes), "new role visible after invalidation")
	})

	t.Run("store failure does not touch the cache", func(t *testing.T) {
		store := newFakeStore()
		store.setErr = errors.New("write failed")

		checker := NewChecker(store, nil, nil)
		err := checker.SetRole(ctx, uuid.New(), uuid.New(), RoleManager, nil)
		assert.Error(t, err)
	})
}
