package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Maintainer refreshes the query planner statistics on a cron schedule so
// that filters on large tables keep using the right indexes.
type Maintainer struct {
	store    *Store
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
	lastRun  time.Time
}

// NewMaintainer creates a maintainer running on the store's
// AnalyzeSchedule.
func NewMaintainer(store *Store) *Maintainer {
	return &Maintainer{
		store:    store,
		schedule: store.config.AnalyzeSchedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "storage.sqlite.maintainer"),
	}
}

// Start schedules ANALYZE runs. An empty schedule does nothing.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//
// The maintainer stops when ctx is cancelled.
func (m *Maintainer) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.schedule == "" {
		m.logger.Info("analyze schedule not configured, skipping maintainer")
		return nil
	}

	if _, err := cron.ParseStandard(m.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", m.schedule, err)
	}

	if _, err := m.cron.AddFunc(m.schedule, func() {
		if err := m.Analyze(ctx); err != nil {
			m.logger.Error("scheduled analyze failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule analyze: %w", err)
	}

	m.cron.Start()
	m.running = true
	m.logger.Info("sqlite maintainer started", "schedule", m.schedule)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Analyze runs ANALYZE once.
func (m *Maintainer) Analyze(ctx context.Context) (err error) {
	defer func(start time.Time) { err = m.store.observe("analyze", start, err) }(time.Now())

	if _, err := m.store.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return err
	}

	m.mu.Lock()
	m.lastRun = time.Now()
	m.mu.Unlock()

	m.logger.Debug("analyze completed")
	return nil
}

// Stop stops the schedule and waits for a running ANALYZE to finish.
func (m *Maintainer) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	<-m.cron.Stop().Done()
	m.logger.Info("sqlite maintainer stopped")
}

// IsRunning returns true if the maintainer is scheduled.
func (m *Maintainer) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastRun returns when ANALYZE last completed, zero if never.
func (m *Maintainer) LastRun() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRun
}

// NextRun returns the next scheduled run, or nil when not scheduled.
func (m *Maintainer) NextRun() *time.Time {
	entries := m.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
