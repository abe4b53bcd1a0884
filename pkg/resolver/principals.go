package resolver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quillhq/quill/pkg/pool"
	"github.com/quillhq/quill/pkg/tenant"
)

// PrincipalStore finds principals inside one tenant's database, reached
// through a handle provided by the pool manager. Identity uniqueness within a
// tenant is the store's contract.
type PrincipalStore interface {
	// FindByIdentity returns the principal with the given identity, or
	// tenant.ErrPrincipalNotFound.
	FindByIdentity(ctx context.Context, h *pool.Handle, identity string) (*tenant.Principal, error)
}

// SQLPrincipalStore reads the principals table provisioned by
// pool.TenantSchema.
type SQLPrincipalStore struct{}

// NewSQLPrincipalStore creates the default principal store.
func NewSQLPrincipalStore() *SQLPrincipalStore {
	return &SQLPrincipalStore{}
}

// FindByIdentity looks up one principal by identity.
func (s *SQLPrincipalStore) FindByIdentity(ctx context.Context, h *pool.Handle, identity string) (*tenant.Principal, error) {
	query := `SELECT identity, role FROM principals WHERE identity = $1`
	if h.Descriptor.Driver == "sqlite3" {
		query = `SELECT identity, role FROM principals WHERE identity = ?`
	}

	p := &tenant.Principal{Scope: tenant.ScopeTenant, TenantID: h.TenantID}
	err := h.DB.QueryRowContext(ctx, query, identity).Scan(&p.Identity, &p.Role)
	if err == sql.ErrNoRows {
		return nil, tenant.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query principal %q in tenant %q: %w", identity, h.TenantID, err)
	}
	return p, nil
}
