package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(newTestEngine(t), client, time.Minute, nil), mr
}

func TestCache_GetPermissions(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	perms := cache.GetPermissions(ctx, "hr_manager")
	assert.True(t, perms.Allows(ActionSign))
	assert.False(t, perms.Allows(ActionManage))

	// Second read comes from Redis and matches.
	assert.True(t, mr.Exists("quill:rbac:perms:hr_manager"))
	again := cache.GetPermissions(ctx, "hr_manager")
	assert.Equal(t, perms, again)
}

func TestCache_FallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	mr.Close()

	// Resolution stays total even with the cache unreachable.
	perms := cache.GetPermissions(ctx, "customer")
	require.Len(t, perms, len(Actions()))
	assert.True(t, perms.Allows(ActionSign))
	assert.False(t, perms.Allows(ActionCreate))
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)

	cache.GetPermissions(ctx, "auditor")
	require.True(t, mr.Exists("quill:rbac:perms:auditor"))

	require.NoError(t, cache.Invalidate(ctx, "auditor"))
	assert.False(t, mr.Exists("quill:rbac:perms:auditor"))
}

func TestCache_HasPermission(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	assert.True(t, cache.HasPermission(ctx, "employee", ActionCreate))
	assert.False(t, cache.HasPermission(ctx, "customer", ActionCreate))
}
