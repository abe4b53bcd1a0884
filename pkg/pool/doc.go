// Package pool manages the per-tenant database connection handle cache.
//
// # Overview
//
// Each tenant's database is reached through a Handle: a bounded *sql.DB pool
// created lazily on first access and cached by tenant id. The Manager
// guarantees at most one live handle per tenant: concurrent first accesses
// for the same unseen tenant construct exactly one underlying pool
// (singleflight plus a lock-guarded map).
//
//	handle, err := mgr.GetOrCreate(ctx, t.ID, t.Descriptor)
//	if err != nil {
//		return err
//	}
//	rows, err := handle.DB.QueryContext(ctx, ...)
//
// # Lifecycle
//
// Handles are created on demand, disposed and evicted on explicit removal,
// and never proactively expired. Removal is best-effort-but-always-evicts:
// even when closing the pool errors, the cache entry is gone, so a stale
// unusable handle is never served. Removal may race with in-flight operations
// against the same tenant; those operations may fail with a closed
// connection, which is accepted behavior.
//
// Capacity note for operators: the handle cache grows with the number of
// distinct tenants accessed over the process lifetime. There is no built-in
// eviction beyond explicit removal, so size process fleets for the tenant
// count they will serve.
//
// # Schema Provisioning
//
// ProvisionSchema is idempotent and diff-based: it inspects the tenant
// database's existing tables and creates only what is missing from the
// expected schema, so it is safe to call on every access and doubles as an
// incremental migration mechanism. A provisioning failure is logged and
// surfaced as a SchemaDriftError; the next access retries.
//
// # Concurrency
//
// Pool bounds apply per tenant: exhausting tenant A's pool blocks only
// operations against tenant A. No operation defines its own cancellation
// beyond the caller's context; pool acquisition timeouts come from the
// database/sql layer.
//
// # Related Packages
//
//   - pkg/tenant: descriptors, registry, and the error taxonomy
//   - pkg/resolver: identity resolution probing handles from this cache
package pool
