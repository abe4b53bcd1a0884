package resolver

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/quillhq/quill/pkg/pool"
	"github.com/quillhq/quill/pkg/tenant"
)

// Resolution is the outcome of resolving an identity.
type Resolution struct {
	// System is true for system-scoped principals; TenantID is empty.
	System bool

	// TenantID is the owning tenant for tenant-scoped principals.
	TenantID string

	// Principal is the matched principal, when one was loaded.
	Principal *tenant.Principal
}

// Resolver maps an authenticated identity to its scope.
type Resolver interface {
	ResolveIdentity(ctx context.Context, identity string) (Resolution, error)
}

// SystemDirectory answers whether an identity belongs to a system-scoped
// principal. System principals live outside any tenant database.
type SystemDirectory interface {
	FindSystemPrincipal(ctx context.Context, identity string) (*tenant.Principal, error)
}

// StaticSystemDirectory is a fixed identity -> role table of system
// principals, suitable for configuration-driven deployments.
type StaticSystemDirectory map[string]string

// FindSystemPrincipal returns the system principal for an identity, or
// tenant.ErrPrincipalNotFound.
func (d StaticSystemDirectory) FindSystemPrincipal(ctx context.Context, identity string) (*tenant.Principal, error) {
	role, ok := d[identity]
	if !ok {
		return nil, tenant.ErrPrincipalNotFound
	}
	return &tenant.Principal{Identity: identity, Scope: tenant.ScopeSystem, Role: role}, nil
}

// ScanResolverConfig configures a ScanResolver.
type ScanResolverConfig struct {
	Registry   tenant.Registry
	Pool       *pool.Manager
	Principals PrincipalStore
	System     SystemDirectory

	// CacheSize bounds the identity -> tenant memo cache. Zero disables
	// memoization.
	CacheSize int

	Logger *logrus.Logger
}

// ScanResolver resolves identities by scanning every active tenant's
// principal store. O(active tenants) per uncached resolution.
type ScanResolver struct {
	registry   tenant.Registry
	pool       *pool.Manager
	principals PrincipalStore
	system     SystemDirectory
	cache      *lru.Cache[string, string]
	logger     *logrus.Entry
}

// NewScanResolver creates a scanning resolver.
func NewScanResolver(cfg ScanResolverConfig) (*ScanResolver, error) {
	if cfg.Registry == nil || cfg.Pool == nil {
		return nil, fmt.Errorf("scan resolver requires a registry and a pool manager")
	}
	if cfg.Principals == nil {
		cfg.Principals = NewSQLPrincipalStore()
	}
	if cfg.System == nil {
		cfg.System = StaticSystemDirectory{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := &ScanResolver{
		registry:   cfg.Registry,
		pool:       cfg.Pool,
		principals: cfg.Principals,
		system:     cfg.System,
		logger:     logger.WithField("component", "resolver"),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, string](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create resolver cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// ResolveIdentity resolves one identity. System principals short-circuit
// before any tenant database is touched.
func (r *ScanResolver) ResolveIdentity(ctx context.Context, identity string) (Resolution, error) {
	if p, err := r.system.FindSystemPrincipal(ctx, identity); err == nil {
		return Resolution{System: true, Principal: p}, nil
	} else if !errors.Is(err, tenant.ErrPrincipalNotFound) {
		return Resolution{}, fmt.Errorf("failed to check system directory: %w", err)
	}

	if r.cache != nil {
		if tenantID, ok := r.cache.Get(identity); ok {
			res, err := r.probeTenant(ctx, tenantID, identity)
			if err == nil {
				return res, nil
			}
			// Stale memo: fall through to a full scan.
			r.cache.Remove(identity)
		}
	}

	tenants, err := r.registry.ListActiveTenants(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to list active tenants: %w", err)
	}

	var probeErr error
	for _, t := range tenants {
		res, err := r.probeTenant(ctx, t.ID, identity)
		if err == nil {
			if r.cache != nil {
				r.cache.Add(identity, t.ID)
			}
			return res, nil
		}
		if errors.Is(err, tenant.ErrPrincipalNotFound) {
			continue
		}
		// A tenant we could not probe: remember and keep scanning, a
		// later tenant may still match.
		r.logger.WithError(err).WithField("tenant", t.ID).Warn("tenant probe failed during identity scan")
		if probeErr == nil {
			probeErr = err
		}
	}

	if probeErr != nil {
		// Absence is unproven while any tenant was unreachable.
		return Resolution{}, probeErr
	}
	return Resolution{}, tenant.ErrPrincipalNotFound
}

// probeTenant opens the tenant's handle and looks the identity up in its
// principal store. The probe connection goes straight back to the pool.
func (r *ScanResolver) probeTenant(ctx context.Context, tenantID, identity string) (Resolution, error) {
	t, err := r.registry.GetTenant(ctx, tenantID)
	if err != nil {
		return Resolution{}, err
	}
	if !t.Active {
		return Resolution{}, tenant.ErrPrincipalNotFound
	}

	h, err := r.pool.GetOrCreate(ctx, t.ID, t.Descriptor)
	if err != nil {
		return Resolution{}, err
	}

	p, err := r.principals.FindByIdentity(ctx, h, identity)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{TenantID: t.ID, Principal: p}, nil
}
