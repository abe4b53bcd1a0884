package tenant

import (
	"fmt"
	"strings"
	"time"
)

// Descriptor describes how to reach one tenant's database.
// It is immutable once the tenant's database has been provisioned.
type Descriptor struct {
	// Driver is the database/sql driver name ("postgres", "sqlite3").
	Driver string `json:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `json:"dsn"`

	// PoolSize is the base number of pooled connections. Zero means the
	// pool manager default.
	PoolSize int `json:"pool_size,omitempty"`

	// MaxOverflow is the number of connections allowed beyond PoolSize
	// under load. Zero means the pool manager default.
	MaxOverflow int `json:"max_overflow,omitempty"`
}

// Validate checks that the descriptor can plausibly open a connection.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Driver) == "" {
		return &ConfigurationError{Reason: "descriptor driver is empty"}
	}
	if strings.TrimSpace(d.DSN) == "" {
		return &ConfigurationError{Reason: "descriptor DSN is empty"}
	}
	if d.PoolSize < 0 || d.MaxOverflow < 0 {
		return &ConfigurationError{Reason: "descriptor pool bounds must be non-negative"}
	}
	return nil
}

// Tenant represents one isolated customer organization.
type Tenant struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Descriptor Descriptor `json:"descriptor"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Scope indicates whether a principal spans all tenants or belongs to one.
type Scope string

const (
	// ScopeSystem marks principals with global authority; they are never
	// resolved to a tenant database.
	ScopeSystem Scope = "system"

	// ScopeTenant marks principals that belong to exactly one tenant.
	ScopeTenant Scope = "tenant"
)

// Principal represents an authenticated actor.
type Principal struct {
	// Identity is the username or email, unique within the owning tenant
	// (or within the system scope).
	Identity string `json:"identity"`

	// Scope distinguishes system-scoped from tenant-scoped principals.
	Scope Scope `json:"scope"`

	// TenantID is the owning tenant; empty for system-scoped principals.
	TenantID string `json:"tenant_id,omitempty"`

	// Role is the role claim consumed by the permission engine. It is a
	// free-form string; pkg/rbac resolves any value.
	Role string `json:"role"`
}

// IsSystem reports whether the principal carries global authority.
func (p Principal) IsSystem() bool {
	return p.Scope == ScopeSystem
}

func (p Principal) String() string {
	if p.IsSystem() {
		return fmt.Sprintf("%s (system)", p.Identity)
	}
	return fmt.Sprintf("%s (tenant %s)", p.Identity, p.TenantID)
}
