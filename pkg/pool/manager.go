package pool

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver for tests and single-node deployments
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/quillhq/quill/pkg/tenant"
)

const (
	// DefaultPoolSize is the base number of pooled connections per tenant.
	DefaultPoolSize = 5

	// DefaultMaxOverflow is the number of extra connections allowed beyond
	// the base pool size under load.
	DefaultMaxOverflow = 10
)

// Handle is the cached connection pair for one tenant's database.
type Handle struct {
	TenantID   string
	DB         *sql.DB
	Descriptor tenant.Descriptor
	CreatedAt  time.Time
}

// ManagerConfig configures a Manager. All fields are optional.
type ManagerConfig struct {
	Logger  *logrus.Logger
	Metrics *Metrics

	// Pool bounds applied when a descriptor leaves them unset.
	DefaultPoolSize    int
	DefaultMaxOverflow int

	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Manager owns the tenant id -> Handle cache. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	handles map[string]*Handle

	group   singleflight.Group
	cfg     ManagerConfig
	logger  *logrus.Entry
	metrics *Metrics

	constructions atomic.Int64
}

// NewManager creates an empty connection pool manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.DefaultPoolSize <= 0 {
		cfg.DefaultPoolSize = DefaultPoolSize
	}
	if cfg.DefaultMaxOverflow <= 0 {
		cfg.DefaultMaxOverflow = DefaultMaxOverflow
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	return &Manager{
		handles: make(map[string]*Handle),
		cfg:     cfg,
		logger:  logger.WithField("component", "pool"),
		metrics: metrics,
	}
}

// GetOrCreate returns the cached handle for a tenant, constructing it on
// first access. Concurrent first accesses for the same unseen tenant produce
// exactly one underlying pool. Descriptor and connectivity errors are fatal
// for the calling operation and propagate.
func (m *Manager) GetOrCreate(ctx context.Context, tenantID string, desc tenant.Descriptor) (*Handle, error) {
	if h := m.lookup(tenantID); h != nil {
		if h.Descriptor != desc {
			return nil, tenant.ErrDescriptorImmutable
		}
		return h, nil
	}

	v, err, _ := m.group.Do(tenantID, func() (interface{}, error) {
		// Re-check under the flight: a racing caller may have finished
		// construction between our fast-path miss and now.
		if h := m.lookup(tenantID); h != nil {
			return h, nil
		}
		return m.construct(ctx, tenantID, desc)
	})
	if err != nil {
		return nil, err
	}

	h := v.(*Handle)
	if h.Descriptor != desc {
		return nil, tenant.ErrDescriptorImmutable
	}
	return h, nil
}

func (m *Manager) lookup(tenantID string) *Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handles[tenantID]
}

func (m *Manager) construct(ctx context.Context, tenantID string, desc tenant.Descriptor) (*Handle, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(desc.Driver, desc.DSN)
	if err != nil {
		return nil, &tenant.ConfigurationError{
			Reason: fmt.Sprintf("cannot open %s pool for tenant %q: %v", desc.Driver, tenantID, err),
		}
	}

	poolSize := desc.PoolSize
	if poolSize <= 0 {
		poolSize = m.cfg.DefaultPoolSize
	}
	overflow := desc.MaxOverflow
	if overflow <= 0 {
		overflow = m.cfg.DefaultMaxOverflow
	}

	// Base pool of idle connections, overflow on top of it under load.
	db.SetMaxIdleConns(poolSize)
	db.SetMaxOpenConns(poolSize + overflow)
	db.SetConnMaxLifetime(m.cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(m.cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &tenant.ConnectivityError{TenantID: tenantID, Err: err}
	}

	h := &Handle{
		TenantID:   tenantID,
		DB:         db,
		Descriptor: desc,
		CreatedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	m.handles[tenantID] = h
	active := len(m.handles)
	m.mu.Unlock()

	m.constructions.Add(1)
	m.metrics.PoolConstructionsTotal.WithLabelValues(tenantID).Inc()
	m.metrics.HandlesActive.Set(float64(active))
	m.logger.WithFields(logrus.Fields{
		"tenant":    tenantID,
		"driver":    desc.Driver,
		"pool_size": poolSize,
		"overflow":  overflow,
	}).Info("constructed tenant connection pool")

	return h, nil
}

// Remove disposes a tenant's pool and evicts the cache entry. Eviction is
// unconditional: even when closing the pool errors, the entry is gone, so a
// stale handle is never served again. Removing an unknown tenant is a no-op.
func (m *Manager) Remove(tenantID string) error {
	m.mu.Lock()
	h, ok := m.handles[tenantID]
	delete(m.handles, tenantID)
	active := len(m.handles)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	m.metrics.PoolEvictionsTotal.WithLabelValues(tenantID).Inc()
	m.metrics.HandlesActive.Set(float64(active))

	if err := h.DB.Close(); err != nil {
		m.logger.WithError(err).WithField("tenant", tenantID).Warn("pool disposal failed after eviction")
		return fmt.Errorf("failed to dispose pool for tenant %q: %w", tenantID, err)
	}
	m.logger.WithField("tenant", tenantID).Info("removed tenant handle")
	return nil
}

// Test issues a trivial liveness probe against a tenant's cached handle. It
// returns false on any failure, including an uncached tenant, and never
// errors.
func (m *Manager) Test(ctx context.Context, tenantID string) bool {
	m.mu.RLock()
	h, ok := m.handles[tenantID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	var one int
	if err := h.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		m.metrics.ProbeFailuresTotal.WithLabelValues(tenantID).Inc()
		return false
	}
	return one == 1
}

// ProvisionSchema diffs the tenant database against the expected schema and
// creates only the missing tables. It is idempotent and safe to call on every
// access. Handle creation failures propagate; provisioning failures return a
// SchemaDriftError that callers may treat as non-fatal, since the next access
// retries.
func (m *Manager) ProvisionSchema(ctx context.Context, tenantID string, desc tenant.Descriptor, expected Schema) error {
	h, err := m.GetOrCreate(ctx, tenantID, desc)
	if err != nil {
		return err
	}

	m.metrics.ProvisionsTotal.WithLabelValues(tenantID).Inc()

	existing, err := existingTables(ctx, h.DB, desc.Driver)
	if err != nil {
		return m.driftError(tenantID, nil, err)
	}

	var created []string
	for _, table := range expected.Tables {
		if existing[table.Name] {
			continue
		}
		if _, err := h.DB.ExecContext(ctx, table.DDL); err != nil {
			return m.driftError(tenantID, []string{table.Name}, err)
		}
		created = append(created, table.Name)
	}

	// Verify: everything expected must exist now.
	existing, err = existingTables(ctx, h.DB, desc.Driver)
	if err != nil {
		return m.driftError(tenantID, nil, err)
	}
	var missing []string
	for _, name := range expected.TableNames() {
		if !existing[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return m.driftError(tenantID, missing, nil)
	}

	if len(created) > 0 {
		m.logger.WithFields(logrus.Fields{
			"tenant": tenantID,
			"tables": created,
		}).Info("provisioned missing schema objects")
	}
	return nil
}

func (m *Manager) driftError(tenantID string, missing []string, err error) error {
	drift := &tenant.SchemaDriftError{TenantID: tenantID, Missing: missing, Err: err}
	m.metrics.ProvisionErrorsTotal.WithLabelValues(tenantID).Inc()
	m.logger.WithError(drift).WithField("tenant", tenantID).Warn("schema provisioning failed, will retry on next access")
	return drift
}

// TenantIDs returns the ids of all cached handles, sorted.
func (m *Manager) TenantIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of cached handles.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

// ConstructionCount returns the number of pools constructed over the manager
// lifetime.
func (m *Manager) ConstructionCount() int64 {
	return m.constructions.Load()
}

// Close disposes every cached handle. Used at process shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	var firstErr error
	for id, h := range handles {
		if err := h.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to dispose pool for tenant %q: %w", id, err)
		}
	}
	m.metrics.HandlesActive.Set(0)
	return firstErr
}
