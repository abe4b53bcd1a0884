// Package tenant defines the core multi-tenancy model: tenants, principals,
// connection descriptors, and the durable tenant registry.
//
// # Overview
//
// Every customer organization is a tenant with its own isolated relational
// database, described by a connection Descriptor. The Registry is the durable,
// read-mostly store of tenant metadata consumed by the connection pool manager
// (pkg/pool) and the tenant resolver (pkg/resolver).
//
// # Tenants
//
// Tenants are created once during onboarding and soft-deleted (deactivated)
// rather than removed, because live connection handles may still reference
// them. A tenant's Descriptor is immutable once its database has been
// provisioned.
//
//	t := tenant.Tenant{
//		ID:         "acme",
//		Name:       "Acme Corp",
//		Descriptor: tenant.Descriptor{Driver: "postgres", DSN: "postgres://..."},
//		Active:     true,
//	}
//
// # Principals
//
// A Principal is an authenticated actor. System-scoped principals carry global
// authority and belong to no tenant; tenant-scoped principals belong to
// exactly one tenant and are identified by a username or email unique within
// that tenant. Every principal carries a role string consumed by pkg/rbac.
//
// # Registries
//
// Two Registry implementations ship: MemoryRegistry for tests and small
// single-node deployments, and PostgresRegistry backed by a shared control
// database.
//
// # Related Packages
//
//   - pkg/pool: per-tenant connection handle cache
//   - pkg/resolver: identity to tenant resolution
//   - pkg/rbac: role and permission resolution
package tenant
