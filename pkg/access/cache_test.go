package access

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupCache(t, time.Minute)

	tenantID := uuid.New()
	userID := uuid.New()
	access := AccessFromSet(PermissionSet{ViewMonthlyFees: true, ManageMonthlyFees: true}, false)

	require.NoError(t, cache.Set(ctx, tenantID, userID, access))

	got, err := cache.Get(ctx, tenantID, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, access.Permissions(), got.Permissions())
	assert.False(t, got.IsOwner)
	assert.True(t, got.CanManage(ResourceMonthlyFees))
	assert.False(t, got.CanManage(ResourceFinance))
}

func TestCacheOwnerFlagSurvives(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupCache(t, time.Minute)

	tenantID := uuid.New()
	userID := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantID, userID, AccessFromSet(AllCapabilities(), true)))

	got, err := cache.Get(ctx, tenantID, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsOwner)
	assert.True(t, got.CanManage(ResourceSettings))
}

func TestCacheMissReturnsNil(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupCache(t, time.Minute)

	got, err := cache.Get(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupCache(t, time.Minute)

	tenantID := uuid.New()
	userID := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantID, userID, AccessFromSet(AllCapabilities(), false)))
	require.NoError(t, cache.Invalidate(ctx, tenantID, userID))

	got, err := cache.Get(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheEntriesExpire(t *testing.T) {
	ctx := context.Background()
	cache, mr := setupCache(t, time.Minute)

	tenantID := uuid.New()
	userID := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantID, userID, AccessFromSet(AllCapabilities(), false)))

	mr.FastForward(2 * time.Minute)

	got, err := cache.Get(ctx, tenantID, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheKeysAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	cache, _ := setupCache(t, time.Minute)

	userID := uuid.New()
	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantA, userID, AccessFromSet(AllCapabilities(), true)))

	got, err := cache.Get(ctx, tenantB, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
