package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache wraps an Engine with a Redis-backed permission cache so that fleets
// of API nodes resolving the same handful of roles do not each recompute and
// so cached results survive across processes. Cache failures degrade to the
// underlying engine: resolution stays total.
type Cache struct {
	engine *Engine
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Entry
}

// NewCache creates a permission cache in front of an engine.
func NewCache(engine *Engine, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		engine: engine,
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "rbac-cache"),
	}
}

// GetPermissions resolves a role through the cache, falling back to the
// engine on any miss or Redis failure.
func (c *Cache) GetPermissions(ctx context.Context, role string) PermissionSet {
	key := c.key(role)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var perms PermissionSet
		if jsonErr := json.Unmarshal(data, &perms); jsonErr == nil {
			return perms.normalize()
		}
	} else if err != redis.Nil {
		c.logger.WithError(err).Debug("permission cache read failed")
	}

	perms := c.engine.GetPermissions(role)
	if data, err := json.Marshal(perms); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Debug("permission cache write failed")
		}
	}
	return perms
}

// HasPermission reports whether the role permits the action, using the cache.
func (c *Cache) HasPermission(ctx context.Context, role string, action Action) bool {
	return c.GetPermissions(ctx, role).Allows(action)
}

// Invalidate drops the cached entry for a role. Call after registering or
// removing a custom role of the same name.
func (c *Cache) Invalidate(ctx context.Context, role string) error {
	return c.client.Del(ctx, c.key(role)).Err()
}

func (c *Cache) key(role string) string {
	return "quill:rbac:perms:" + normalizeRoleName(role)
}
