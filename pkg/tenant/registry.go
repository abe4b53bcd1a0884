package tenant

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Registry is the durable store of tenant metadata. It is read-mostly: rows
// are created during onboarding and deactivated (never hard-deleted) while
// connection handles may still reference them.
type Registry interface {
	// ListActiveTenants returns all active tenants. Iteration order is
	// unspecified but stable within a call.
	ListActiveTenants(ctx context.Context) ([]Tenant, error)

	// GetTenant returns the tenant with the given id, active or not.
	// Returns ErrTenantNotFound for unknown ids.
	GetTenant(ctx context.Context, id string) (*Tenant, error)

	// CreateTenant registers a new tenant.
	CreateTenant(ctx context.Context, t *Tenant) error

	// DeactivateTenant soft-deletes a tenant. The row remains so that
	// existing references stay resolvable.
	DeactivateTenant(ctx context.Context, id string) error
}

// MemoryRegistry is an in-memory Registry for tests and single-node
// deployments.
type MemoryRegistry struct {
	mu      sync.RWMutex
	tenants map[string]Tenant
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		tenants: make(map[string]Tenant),
	}
}

// ListActiveTenants returns active tenants sorted by id so that scan order is
// stable within and across calls.
func (r *MemoryRegistry) ListActiveTenants(ctx context.Context) ([]Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetTenant returns the tenant with the given id.
func (r *MemoryRegistry) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]
	if !ok {
		return nil, ErrTenantNotFound
	}
	cp := t
	return &cp, nil
}

// CreateTenant registers a new tenant.
func (r *MemoryRegistry) CreateTenant(ctx context.Context, t *Tenant) error {
	if err := t.Descriptor.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tenants[t.ID]; ok {
		// Descriptors are immutable once the tenant exists.
		if existing.Descriptor != t.Descriptor {
			return ErrDescriptorImmutable
		}
		return nil
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.tenants[t.ID] = *t
	return nil
}

// DeactivateTenant soft-deletes a tenant.
func (r *MemoryRegistry) DeactivateTenant(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tenants[id]
	if !ok {
		return ErrTenantNotFound
	}
	t.Active = false
	r.tenants[id] = t
	return nil
}
