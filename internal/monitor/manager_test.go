package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"presyotect-monitor/internal/storage"
)

// memStore mimics the postgres repository: unique active identifier,
// winner row returned on conflicting inserts, reads skip deleted rows.
type memStore struct {
	mu        sync.Mutex
	schedules []storage.MonitoringSchedule
	prices    []storage.MonitoredPrice

	findErr   error
	insertErr error
	finds     int
	inserts   int
}

func (m *memStore) FindScheduleByIdentifier(_ context.Context, monitoringID string) (*storage.MonitoringSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	if found := m.activeLocked(monitoringID); found != nil {
		copied := *found
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) InsertSchedule(_ context.Context, schedule storage.MonitoringSchedule) (storage.MonitoringSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErr != nil {
		return storage.MonitoringSchedule{}, m.insertErr
	}
	if existing := m.activeLocked(schedule.MonitoringID); existing != nil {
		return *existing, nil
	}
	schedule.ID = uuid.New()
	schedule.CreatedAt = time.Now()
	m.schedules = append(m.schedules, schedule)
	return schedule, nil
}

func (m *memStore) ListRecentSchedules(_ context.Context, limit int) ([]storage.MonitoringSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.MonitoringSchedule, 0, limit)
	for i := len(m.schedules) - 1; i >= 0 && len(out) < limit; i-- {
		if m.schedules[i].DeletedAt == nil {
			out = append(out, m.schedules[i])
		}
	}
	return out, nil
}

func (m *memStore) SoftDeleteSchedule(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.schedules {
		if m.schedules[i].ID == id && m.schedules[i].DeletedAt == nil {
			now := time.Now()
			m.schedules[i].DeletedAt = &now
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memStore) CountSchedules(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.schedules {
		if s.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertPrice(_ context.Context, price storage.MonitoredPrice) (storage.MonitoredPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price.ID = uuid.New()
	price.CreatedAt = time.Now()
	m.prices = append(m.prices, price)
	return price, nil
}

func (m *memStore) ListPricesBySchedule(_ context.Context, scheduleID uuid.UUID) ([]storage.MonitoredPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.MonitoredPrice
	for _, p := range m.prices {
		if p.MonitoringScheduleID == scheduleID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) activeLocked(monitoringID string) *storage.MonitoringSchedule {
	for i := range m.schedules {
		if m.schedules[i].MonitoringID == monitoringID && m.schedules[i].DeletedAt == nil {
			return &m.schedules[i]
		}
	}
	return nil
}

func (m *memStore) activeCount(monitoringID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.schedules {
		if s.MonitoringID == monitoringID && s.DeletedAt == nil {
			n++
		}
	}
	return n
}

// Wednesday 2024-06-12 15:30, week of Sunday 2024-06-09.
func fixedClock() time.Time {
	return time.Date(2024, time.June, 12, 15, 30, 0, 0, time.UTC)
}

func newTestManager(store storage.ScheduleStore) *Manager {
	return NewManager(store, Options{
		WeekStart: time.Sunday,
		Now:       fixedClock,
	}, zerolog.Nop())
}

func TestEnsureCreatesScheduleWithWeekBounds(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	created, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if created.MonitoringID != "20240609" {
		t.Fatalf("monitoring id = %q, want 20240609", created.MonitoringID)
	}
	wantStart := time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC)
	if !created.StartDate.Equal(wantStart) {
		t.Fatalf("start date = %v, want %v", created.StartDate, wantStart)
	}
	wantEnd := time.Date(2024, time.June, 15, 23, 59, 59, 999e6, time.UTC)
	if !created.EndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v", created.EndDate, wantEnd)
	}
	if created.ID == uuid.Nil {
		t.Fatal("schedule id not assigned")
	}
}

func TestEnsureIsIdempotentWithinWeek(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	first, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	for i := 0; i < 25; i++ {
		again, err := mgr.EnsureCurrentSchedule(context.Background())
		if err != nil {
			t.Fatalf("ensure #%d: %v", i+2, err)
		}
		if again.ID != first.ID {
			t.Fatalf("ensure #%d returned a different schedule: %v vs %v", i+2, again.ID, first.ID)
		}
	}

	if got := store.activeCount("20240609"); got != 1 {
		t.Fatalf("active schedules for week = %d, want 1", got)
	}
	if store.inserts != 1 {
		t.Fatalf("insert attempts = %d, want 1", store.inserts)
	}
}

func TestEnsureSurvivesConcurrentTicks(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := mgr.EnsureCurrentSchedule(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent ensure: %v", err)
	}
	if got := store.activeCount("20240609"); got != 1 {
		t.Fatalf("active schedules for week = %d, want 1", got)
	}
}

func TestEnsureReplacesSoftDeletedSchedule(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	first, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := store.SoftDeleteSchedule(context.Background(), first.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	replacement, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure after delete: %v", err)
	}
	if replacement.ID == first.ID {
		t.Fatal("expected a fresh schedule after soft delete")
	}
	if got := store.activeCount("20240609"); got != 1 {
		t.Fatalf("active schedules for week = %d, want 1", got)
	}
}

func TestEnsurePropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")

	store := &memStore{findErr: storeErr}
	mgr := newTestManager(store)
	if _, err := mgr.EnsureCurrentSchedule(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("find failure not propagated: %v", err)
	}

	store = &memStore{insertErr: storeErr}
	mgr = newTestManager(store)
	if _, err := mgr.EnsureCurrentSchedule(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("insert failure not propagated: %v", err)
	}
	if got := store.activeCount("20240609"); got != 0 {
		t.Fatalf("failed insert left %d schedules", got)
	}
}

func TestEnsureScheduleAtBackfillsDistinctWeeks(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	at := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, err := mgr.EnsureScheduleAt(context.Background(), at); err != nil {
			t.Fatalf("ensure at %v: %v", at, err)
		}
		at = at.AddDate(0, 0, 7)
	}

	count, _ := store.CountSchedules(context.Background())
	if count != 4 {
		t.Fatalf("schedules = %d, want 4", count)
	}
}

func TestCurrentScheduleReadPath(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	if _, err := mgr.CurrentSchedule(context.Background()); !errors.Is(err, ErrNoActiveSchedule) {
		t.Fatalf("expected ErrNoActiveSchedule, got %v", err)
	}

	created, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	current, err := mgr.CurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("current schedule: %v", err)
	}
	if current.ID != created.ID {
		t.Fatalf("current schedule id = %v, want %v", current.ID, created.ID)
	}
}

func TestTickRunsEnsure(t *testing.T) {
	store := &memStore{}
	mgr := newTestManager(store)

	if err := mgr.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := store.activeCount("20240609"); got != 1 {
		t.Fatalf("active schedules after tick = %d, want 1", got)
	}
}
