package rbac

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// RoleStore persists custom roles so they survive process restarts. The
// default engine configuration runs without one, accepting that runtime
// registrations are lost on restart.
type RoleStore interface {
	// LoadAll returns every persisted custom role.
	LoadAll(ctx context.Context) (map[string]PermissionSet, error)

	// Save installs or replaces one custom role.
	Save(ctx context.Context, name string, perms PermissionSet) error

	// Delete removes one custom role. Deleting an unknown role is a no-op.
	Delete(ctx context.Context, name string) error
}

// PostgresRoleStore keeps custom roles in the shared control database,
// alongside the tenant registry.
type PostgresRoleStore struct {
	db *sql.DB
}

// NewPostgresRoleStore creates a role store over an existing control-database
// connection.
func NewPostgresRoleStore(db *sql.DB) *PostgresRoleStore {
	return &PostgresRoleStore{db: db}
}

// RoleStoreSchema is the DDL for the custom_roles table.
const RoleStoreSchema = `
	CREATE TABLE IF NOT EXISTS custom_roles (
		name VARCHAR(255) PRIMARY KEY,
		permissions JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
`

// Migrate creates the custom_roles table if it does not exist.
func (s *PostgresRoleStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, RoleStoreSchema); err != nil {
		return fmt.Errorf("failed to migrate custom role store: %w", err)
	}
	return nil
}

// LoadAll returns every persisted custom role.
func (s *PostgresRoleStore) LoadAll(ctx context.Context) (map[string]PermissionSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, permissions FROM custom_roles`)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom roles: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]PermissionSet)
	for rows.Next() {
		var name string
		var permsJSON []byte
		if err := rows.Scan(&name, &permsJSON); err != nil {
			return nil, err
		}

		var perms PermissionSet
		if err := json.Unmarshal(permsJSON, &perms); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions for role %q: %w", name, err)
		}
		roles[name] = perms
	}
	return roles, rows.Err()
}

// Save installs or replaces one custom role.
func (s *PostgresRoleStore) Save(ctx context.Context, name string, perms PermissionSet) error {
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO custom_roles (name, permissions, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name)
		DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, name, permsJSON); err != nil {
		return fmt.Errorf("failed to save custom role %q: %w", name, err)
	}
	return nil
}

// Delete removes one custom role.
func (s *PostgresRoleStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_roles WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete custom role %q: %w", name, err)
	}
	return nil
}
