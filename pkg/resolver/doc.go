// Package resolver determines which tenant, if any, owns an authenticated
// identity.
//
// # Overview
//
// Identities are unique within a tenant but the platform receives bare
// identities at login, so something must map an identity to its owning
// tenant. Two implementations ship behind the same Resolver interface:
//
// ScanResolver checks the system directory first (system-scoped principals
// never touch a tenant database), then walks the active tenants in registry
// order, opening each tenant's handle and probing its principal store for the
// identity. The first match wins; probe connections return to their pools
// immediately. This is O(number of active tenants) per resolution, a
// documented tradeoff for deployments with tens of tenants, softened here by
// a bounded identity-to-tenant memo cache.
//
// DirectoryResolver replaces the scan with a lookup against an identity
// directory maintained in the control database, the recommended shape once
// tenant counts grow. Keeping both behind one interface lets deployments
// switch without touching callers.
//
// # Error Semantics
//
// An identity found nowhere yields tenant.ErrPrincipalNotFound. If any tenant
// could not be probed and no match was found elsewhere, the resolver returns
// a connectivity error instead: it cannot prove absence, and callers must not
// confuse "unknown identity" with "a tenant database was down".
package resolver
