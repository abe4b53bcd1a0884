package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Janitor periodically probes every cached handle and records the results as
// metrics. It never evicts: handles have no proactive expiry, and removal
// stays an explicit operation. The sweep exists so operators see a dead
// tenant database before the next request does.
type Janitor struct {
	manager *Manager
	cron    *cron.Cron
	logger  *logrus.Entry
	timeout time.Duration
}

// NewJanitor creates a liveness sweeper over a manager's handle cache.
func NewJanitor(manager *Manager, probeTimeout time.Duration, logger *logrus.Logger) *Janitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Janitor{
		manager: manager,
		cron:    cron.New(),
		logger:  logger.WithField("component", "pool-janitor"),
		timeout: probeTimeout,
	}
}

// Start schedules the sweep with a cron spec such as "@every 1m" and begins
// running it in the background.
func (j *Janitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return fmt.Errorf("failed to schedule liveness sweep: %w", err)
	}
	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep probes every cached handle once and updates the live-handle gauge.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	ids := j.manager.TenantIDs()
	live := 0
	for _, id := range ids {
		if j.manager.Test(ctx, id) {
			live++
		} else {
			j.logger.WithField("tenant", id).Warn("liveness probe failed")
		}
	}

	j.manager.metrics.HandlesLive.Set(float64(live))
	j.logger.WithFields(logrus.Fields{"cached": len(ids), "live": live}).Debug("liveness sweep complete")
}
