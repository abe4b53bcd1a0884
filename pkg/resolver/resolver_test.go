package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/pkg/pool"
	"github.com/quillhq/quill/pkg/tenant"
)

var dsnSeq int

func newTestPool() *pool.Manager {
	return pool.NewManager(pool.ManagerConfig{Metrics: pool.NewMetrics(prometheus.NewRegistry())})
}

// seedTenant registers a tenant backed by an in-memory database, provisions
// its schema, and inserts the given principals.
func seedTenant(t *testing.T, reg tenant.Registry, m *pool.Manager, id string, principals map[string]string) {
	t.Helper()
	ctx := context.Background()

	dsnSeq++
	desc := tenant.Descriptor{
		Driver: "sqlite3",
		DSN:    fmt.Sprintf("file:resolver_%s_%d?mode=memory&cache=shared", id, dsnSeq),
	}
	require.NoError(t, reg.CreateTenant(ctx, &tenant.Tenant{ID: id, Name: id, Descriptor: desc, Active: true}))
	require.NoError(t, m.ProvisionSchema(ctx, id, desc, pool.TenantSchema()))

	h, err := m.GetOrCreate(ctx, id, desc)
	require.NoError(t, err)
	for identity, role := range principals {
		_, err := h.DB.ExecContext(ctx, `INSERT INTO principals (identity, role) VALUES (?, ?)`, identity, role)
		require.NoError(t, err)
	}
}

// countingStore wraps a PrincipalStore and counts probes.
type countingStore struct {
	inner  PrincipalStore
	probes int
}

func (c *countingStore) FindByIdentity(ctx context.Context, h *pool.Handle, identity string) (*tenant.Principal, error) {
	c.probes++
	return c.inner.FindByIdentity(ctx, h, identity)
}

// TestScanResolver_EndToEnd resolves an identity present only in the middle
// tenant of three, verifying the scan probes and releases without error.
func TestScanResolver_EndToEnd(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	seedTenant(t, reg, m, "alpha", map[string]string{"amy@alpha.test": "employee"})
	seedTenant(t, reg, m, "beta", map[string]string{"alice": "hr_manager"})
	seedTenant(t, reg, m, "gamma", nil)

	r, err := NewScanResolver(ScanResolverConfig{Registry: reg, Pool: m})
	require.NoError(t, err)

	res, err := r.ResolveIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, res.System)
	assert.Equal(t, "beta", res.TenantID)
	require.NotNil(t, res.Principal)
	assert.Equal(t, "hr_manager", res.Principal.Role)
	assert.Equal(t, "beta", res.Principal.TenantID)
}

func TestScanResolver_SystemShortCircuit(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	require.NoError(t, reg.CreateTenant(ctx, &tenant.Tenant{
		ID:         "alpha",
		Descriptor: tenant.Descriptor{Driver: "sqlite3", DSN: "file:syscheck?mode=memory&cache=shared"},
		Active:     true,
	}))

	r, err := NewScanResolver(ScanResolverConfig{
		Registry: reg,
		Pool:     m,
		System:   StaticSystemDirectory{"root@quill": "system_admin"},
	})
	require.NoError(t, err)

	res, err := r.ResolveIdentity(ctx, "root@quill")
	require.NoError(t, err)
	assert.True(t, res.System)
	assert.Empty(t, res.TenantID)
	assert.Equal(t, "system_admin", res.Principal.Role)
	assert.EqualValues(t, 0, m.ConstructionCount(), "system resolution must not touch tenant databases")
}

func TestScanResolver_NotFound(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	seedTenant(t, reg, m, "alpha", nil)
	seedTenant(t, reg, m, "beta", nil)

	r, err := NewScanResolver(ScanResolverConfig{Registry: reg, Pool: m})
	require.NoError(t, err)

	_, err = r.ResolveIdentity(ctx, "nobody")
	assert.ErrorIs(t, err, tenant.ErrPrincipalNotFound)
}

// TestScanResolver_UnreachableTenant pins the error distinction: with a
// tenant down and no match elsewhere, the resolver must not claim NotFound.
func TestScanResolver_UnreachableTenant(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	require.NoError(t, reg.CreateTenant(ctx, &tenant.Tenant{
		ID:         "broken",
		Descriptor: tenant.Descriptor{Driver: "sqlite3", DSN: t.TempDir() + "/missing/tenant.db"},
		Active:     true,
	}))
	seedTenant(t, reg, m, "zeta", map[string]string{"alice": "employee"})

	r, err := NewScanResolver(ScanResolverConfig{Registry: reg, Pool: m})
	require.NoError(t, err)

	// A later tenant still matches despite the earlier failure.
	res, err := r.ResolveIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "zeta", res.TenantID)

	// No match anywhere: the probe failure surfaces, not NotFound.
	_, err = r.ResolveIdentity(ctx, "nobody")
	require.Error(t, err)
	assert.NotErrorIs(t, err, tenant.ErrPrincipalNotFound)
	var connErr *tenant.ConnectivityError
	assert.ErrorAs(t, err, &connErr)
}

func TestScanResolver_MemoCacheSkipsScan(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	seedTenant(t, reg, m, "alpha", nil)
	seedTenant(t, reg, m, "beta", map[string]string{"alice": "employee"})
	seedTenant(t, reg, m, "gamma", nil)

	store := &countingStore{inner: NewSQLPrincipalStore()}
	r, err := NewScanResolver(ScanResolverConfig{
		Registry:   reg,
		Pool:       m,
		Principals: store,
		CacheSize:  128,
	})
	require.NoError(t, err)

	_, err = r.ResolveIdentity(ctx, "alice")
	require.NoError(t, err)
	scanned := store.probes
	require.GreaterOrEqual(t, scanned, 2, "first resolution scans")

	res, err := r.ResolveIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "beta", res.TenantID)
	assert.Equal(t, scanned+1, store.probes, "memoized resolution probes only the owning tenant")
}

func TestScanResolver_DeactivatedTenantSkipped(t *testing.T) {
	ctx := context.Background()
	reg := tenant.NewMemoryRegistry()
	m := newTestPool()
	defer m.Close()

	seedTenant(t, reg, m, "alpha", map[string]string{"alice": "employee"})
	require.NoError(t, reg.DeactivateTenant(ctx, "alpha"))

	r, err := NewScanResolver(ScanResolverConfig{Registry: reg, Pool: m})
	require.NoError(t, err)

	_, err = r.ResolveIdentity(ctx, "alice")
	assert.ErrorIs(t, err, tenant.ErrPrincipalNotFound)
}
