package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/quillhq/quill/pkg/tenant"
)

// Directory is an identity -> tenant index maintained in the control
// database, updated whenever a principal is created or removed. It replaces
// the per-login tenant scan.
type Directory interface {
	Lookup(ctx context.Context, identity string) (tenantID string, err error)
	Put(ctx context.Context, identity, tenantID string) error
	Delete(ctx context.Context, identity string) error
}

// MemoryDirectory is an in-memory Directory for tests and single-node
// deployments.
type MemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{entries: make(map[string]string)}
}

// Lookup returns the owning tenant for an identity.
func (d *MemoryDirectory) Lookup(ctx context.Context, identity string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tenantID, ok := d.entries[identity]
	if !ok {
		return "", tenant.ErrPrincipalNotFound
	}
	return tenantID, nil
}

// Put records an identity's owning tenant.
func (d *MemoryDirectory) Put(ctx context.Context, identity, tenantID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[identity] = tenantID
	return nil
}

// Delete removes an identity from the index.
func (d *MemoryDirectory) Delete(ctx context.Context, identity string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, identity)
	return nil
}

// PostgresDirectory implements Directory in the control database.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory over an existing control-database
// connection.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// DirectorySchema is the DDL for the identity directory table.
const DirectorySchema = `
	CREATE TABLE IF NOT EXISTS identity_directory (
		identity VARCHAR(255) PRIMARY KEY,
		tenant_id VARCHAR(255) NOT NULL REFERENCES tenants(id)
	);

	CREATE INDEX IF NOT EXISTS idx_identity_directory_tenant ON identity_directory(tenant_id);
`

// Migrate creates the identity_directory table if it does not exist.
func (d *PostgresDirectory) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, DirectorySchema); err != nil {
		return fmt.Errorf("failed to migrate identity directory: %w", err)
	}
	return nil
}

// Lookup returns the owning tenant for an identity.
func (d *PostgresDirectory) Lookup(ctx context.Context, identity string) (string, error) {
	var tenantID string
	err := d.db.QueryRowContext(ctx,
		`SELECT tenant_id FROM identity_directory WHERE identity = $1`, identity).Scan(&tenantID)
	if err == sql.ErrNoRows {
		return "", tenant.ErrPrincipalNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up identity %q: %w", identity, err)
	}
	return tenantID, nil
}

// Put records an identity's owning tenant.
func (d *PostgresDirectory) Put(ctx context.Context, identity, tenantID string) error {
	query := `
		INSERT INTO identity_directory (identity, tenant_id)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
	`
	if _, err := d.db.ExecContext(ctx, query, identity, tenantID); err != nil {
		return fmt.Errorf("failed to index identity %q: %w", identity, err)
	}
	return nil
}

// Delete removes an identity from the index.
func (d *PostgresDirectory) Delete(ctx context.Context, identity string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM identity_directory WHERE identity = $1`, identity); err != nil {
		return fmt.Errorf("failed to unindex identity %q: %w", identity, err)
	}
	return nil
}

// DirectoryResolver resolves identities through the directory index instead
// of scanning tenant databases. Same interface, O(1) in tenant count.
type DirectoryResolver struct {
	directory Directory
	registry  tenant.Registry
	system    SystemDirectory
}

// NewDirectoryResolver creates an index-based resolver.
func NewDirectoryResolver(directory Directory, registry tenant.Registry, system SystemDirectory) *DirectoryResolver {
	if system == nil {
		system = StaticSystemDirectory{}
	}
	return &DirectoryResolver{directory: directory, registry: registry, system: system}
}

// ResolveIdentity resolves one identity via the index. Entries pointing at
// deactivated tenants resolve to not-found, matching the scan behavior.
func (r *DirectoryResolver) ResolveIdentity(ctx context.Context, identity string) (Resolution, error) {
	if p, err := r.system.FindSystemPrincipal(ctx, identity); err == nil {
		return Resolution{System: true, Principal: p}, nil
	} else if !errors.Is(err, tenant.ErrPrincipalNotFound) {
		return Resolution{}, fmt.Errorf("failed to check system directory: %w", err)
	}

	tenantID, err := r.directory.Lookup(ctx, identity)
	if err != nil {
		return Resolution{}, err
	}

	t, err := r.registry.GetTenant(ctx, tenantID)
	if err != nil {
		return Resolution{}, err
	}
	if !t.Active {
		return Resolution{}, tenant.ErrPrincipalNotFound
	}
	return Resolution{TenantID: tenantID}, nil
}
