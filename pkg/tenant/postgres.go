package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresRegistry implements Registry backed by the shared control database.
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry creates a registry over an existing control-database
// connection.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// RegistrySchema is the DDL for the tenants table in the control database.
const RegistrySchema = `
	CREATE TABLE IF NOT EXISTS tenants (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		descriptor JSONB NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_tenants_active ON tenants(active);
`

// Migrate creates the tenants table if it does not exist.
func (r *PostgresRegistry) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, RegistrySchema); err != nil {
		return fmt.Errorf("failed to migrate tenant registry: %w", err)
	}
	return nil
}

// ListActiveTenants returns all active tenants ordered by id.
func (r *PostgresRegistry) ListActiveTenants(ctx context.Context) ([]Tenant, error) {
	query := `
		SELECT id, name, descriptor, active, created_at
		FROM tenants
		WHERE active = TRUE
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

// GetTenant returns the tenant with the given id, active or not.
func (r *PostgresRegistry) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	query := `
		SELECT id, name, descriptor, active, created_at
		FROM tenants
		WHERE id = $1
	`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant %q: %w", id, err)
	}
	return t, nil
}

// CreateTenant registers a new tenant. Re-creating an existing tenant with the
// same descriptor is a no-op; changing the descriptor is rejected.
func (r *PostgresRegistry) CreateTenant(ctx context.Context, t *Tenant) error {
	if err := t.Descriptor.Validate(); err != nil {
		return err
	}

	existing, err := r.GetTenant(ctx, t.ID)
	if err == nil {
		if existing.Descriptor != t.Descriptor {
			return ErrDescriptorImmutable
		}
		return nil
	}
	if err != ErrTenantNotFound {
		return err
	}

	descJSON, err := json.Marshal(t.Descriptor)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	query := `
		INSERT INTO tenants (id, name, descriptor, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, t.ID, t.Name, descJSON, t.Active).Scan(&t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create tenant %q: %w", t.ID, err)
	}
	return nil
}

// DeactivateTenant soft-deletes a tenant.
func (r *PostgresRegistry) DeactivateTenant(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tenants SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tenant %q: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// scanTenant scans a tenant from a database row.
func scanTenant(scanner interface {
	Scan(dest ...interface{}) error
}) (*Tenant, error) {
	var t Tenant
	var descJSON []byte

	err := scanner.Scan(&t.ID, &t.Name, &descJSON, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(descJSON, &t.Descriptor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal descriptor for tenant %q: %w", t.ID, err)
	}
	return &t, nil
}
