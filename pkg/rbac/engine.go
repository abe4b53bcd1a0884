package rbac

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Engine resolves role strings to permission sets and produces authorization
// decisions. It is safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	custom map[string]PermissionSet

	store  RoleStore
	logger *logrus.Entry
}

// EngineConfig configures an Engine. All fields are optional.
type EngineConfig struct {
	// Store persists custom roles across restarts. When nil, custom roles
	// live in process memory only and are lost on restart.
	Store RoleStore

	// Logger receives structured log output. Defaults to the standard
	// logrus logger.
	Logger *logrus.Logger
}

// NewEngine creates a permission engine. When cfg.Store is set, previously
// persisted custom roles are loaded before the engine is returned.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		custom: make(map[string]PermissionSet),
		store:  cfg.Store,
		logger: logger.WithField("component", "rbac"),
	}

	if cfg.Store != nil {
		persisted, err := cfg.Store.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted custom roles: %w", err)
		}
		for name, perms := range persisted {
			e.custom[normalizeRoleName(name)] = perms.normalize()
		}
		e.logger.WithField("count", len(persisted)).Info("loaded persisted custom roles")
	}

	return e, nil
}

// GetPermissions resolves a role string to a complete permission set. It is a
// total function: every input, including the empty string and unknown names,
// yields a valid set.
//
// Resolution order, first match wins: custom roles, built-in base roles, the
// keyword classifier, and finally the employee default.
func (e *Engine) GetPermissions(role string) PermissionSet {
	name := normalizeRoleName(role)

	e.mu.RLock()
	custom, ok := e.custom[name]
	e.mu.RUnlock()
	if ok {
		return custom.Clone()
	}

	if ps, ok := basePermissions()[RoleName(name)]; ok {
		return ps.Clone()
	}

	return BasePermissions(Classify(role))
}

// HasPermission reports whether the role permits the action.
func (e *Engine) HasPermission(role string, action Action) bool {
	return e.GetPermissions(role).Allows(action)
}

// RegisterCustomRole installs or replaces a custom role with an explicit
// permission map. Missing actions are treated as denied. When a RoleStore is
// configured the role is also persisted; a persistence failure is returned but
// the in-memory registration still takes effect, so the running process stays
// consistent with what the caller asked for.
func (e *Engine) RegisterCustomRole(ctx context.Context, name string, perms PermissionSet) error {
	key := normalizeRoleName(name)
	if key == "" {
		return fmt.Errorf("custom role name must not be empty")
	}
	normalized := perms.normalize()

	e.mu.Lock()
	e.custom[key] = normalized
	e.mu.Unlock()

	e.logger.WithField("role", key).Info("registered custom role")

	if e.store != nil {
		if err := e.store.Save(ctx, key, normalized); err != nil {
			return fmt.Errorf("failed to persist custom role %q: %w", key, err)
		}
	}
	return nil
}

// RemoveCustomRole deletes a custom role. Removing an unknown role is a
// no-op. After removal the name resolves through the base table and classifier
// again.
func (e *Engine) RemoveCustomRole(ctx context.Context, name string) error {
	key := normalizeRoleName(name)

	e.mu.Lock()
	delete(e.custom, key)
	e.mu.Unlock()

	e.logger.WithField("role", key).Info("removed custom role")

	if e.store != nil {
		if err := e.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete persisted custom role %q: %w", key, err)
		}
	}
	return nil
}

// CustomRoles returns a snapshot of the registered custom roles.
func (e *Engine) CustomRoles() map[string]PermissionSet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]PermissionSet, len(e.custom))
	for name, perms := range e.custom {
		out[name] = perms.Clone()
	}
	return out
}

// ReplaceCustomRoles atomically swaps the whole custom role table. Used by the
// role file watcher so a reload never exposes a half-applied table.
func (e *Engine) ReplaceCustomRoles(roles map[string]PermissionSet) {
	next := make(map[string]PermissionSet, len(roles))
	for name, perms := range roles {
		next[normalizeRoleName(name)] = perms.normalize()
	}

	e.mu.Lock()
	e.custom = next
	e.mu.Unlock()

	e.logger.WithField("count", len(next)).Info("replaced custom role table")
}

func normalizeRoleName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
