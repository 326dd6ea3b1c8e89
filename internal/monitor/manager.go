// Package monitor owns the monitoring-schedule lifecycle: the Manager is
// the only writer of schedules, the Recorder is the price-observation
// consumer of its read path.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"presyotect-monitor/internal/interval"
	"presyotect-monitor/internal/storage"
)

// ErrNoActiveSchedule reports that no schedule exists for the current
// week. Readers must treat it as a rejection; only the Manager creates
// schedules.
var ErrNoActiveSchedule = errors.New("monitor: no schedule for the current week")

// Options tune Manager behaviour.
type Options struct {
	// WeekStart is the configured first day of the monitoring week.
	WeekStart time.Weekday
	// LockKey guards ticks across instances via a postgres advisory
	// lock. Zero disables the guard; correctness does not depend on it.
	LockKey int64
	// Now overrides the wall clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager guarantees exactly one active schedule per calendar week. It is
// safe for concurrent use; every call recomputes the period from the wall
// clock, nothing is cached across ticks.
type Manager struct {
	store     storage.ScheduleStore
	locker    storage.AdvisoryLocker
	weekStart time.Weekday
	lockKey   int64
	now       func() time.Time
	logger    zerolog.Logger
}

// NewManager constructs the schedule manager.
func NewManager(store storage.ScheduleStore, opts Options, logger zerolog.Logger) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Manager{
		store:     store,
		locker:    locker,
		weekStart: opts.WeekStart,
		lockKey:   opts.LockKey,
		now:       now,
		logger:    logger.With().Str("component", "monitor").Logger(),
	}
}

// Tick is the recurring-trigger entry point: one advisory-lock guarded
// ensure pass. Errors propagate to the trigger for its retry policy.
func (m *Manager) Tick(ctx context.Context) error {
	unlock, proceed, err := m.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		m.logger.Debug().Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	_, err = m.EnsureCurrentSchedule(ctx)
	return err
}

// EnsureCurrentSchedule creates the schedule for the week containing the
// current wall-clock time if it does not exist yet, and returns the
// active schedule either way. Calling it any number of times within one
// week leaves exactly one non-deleted schedule for that week.
func (m *Manager) EnsureCurrentSchedule(ctx context.Context) (storage.MonitoringSchedule, error) {
	return m.EnsureScheduleAt(ctx, m.now())
}

// EnsureScheduleAt is EnsureCurrentSchedule for an arbitrary instant,
// used by historical backfill.
func (m *Manager) EnsureScheduleAt(ctx context.Context, at time.Time) (storage.MonitoringSchedule, error) {
	monitoringID := interval.Identifier(at, m.weekStart)

	existing, err := m.store.FindScheduleByIdentifier(ctx, monitoringID)
	if err != nil {
		return storage.MonitoringSchedule{}, fmt.Errorf("find schedule %s: %w", monitoringID, err)
	}
	if existing != nil {
		m.logger.Debug().Str("monitoring_id", monitoringID).Msg("monitoring schedule already exists")
		return *existing, nil
	}

	schedule := storage.MonitoringSchedule{
		MonitoringID: monitoringID,
		StartDate:    interval.StartOf(at, interval.Weekly, m.weekStart),
		EndDate:      interval.EndOf(at, interval.Weekly, m.weekStart),
	}

	created, err := m.store.InsertSchedule(ctx, schedule)
	if err != nil {
		return storage.MonitoringSchedule{}, fmt.Errorf("insert schedule %s: %w", monitoringID, err)
	}

	m.logger.Info().
		Str("monitoring_id", created.MonitoringID).
		Time("start_date", created.StartDate).
		Time("end_date", created.EndDate).
		Msg("monitoring schedule created")
	return created, nil
}

// CurrentSchedule is the read port used when recording prices. It never
// creates: absence surfaces as ErrNoActiveSchedule.
func (m *Manager) CurrentSchedule(ctx context.Context) (storage.MonitoringSchedule, error) {
	monitoringID := interval.Identifier(m.now(), m.weekStart)
	schedule, err := m.store.FindScheduleByIdentifier(ctx, monitoringID)
	if err != nil {
		return storage.MonitoringSchedule{}, fmt.Errorf("find schedule %s: %w", monitoringID, err)
	}
	if schedule == nil {
		return storage.MonitoringSchedule{}, ErrNoActiveSchedule
	}
	return *schedule, nil
}

func (m *Manager) acquireLock(ctx context.Context) (func(), bool, error) {
	if m.lockKey == 0 || m.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := m.locker.TryAdvisoryLock(ctx, m.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
