package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestRecorder(store *memStore) (*Recorder, *Manager) {
	mgr := newTestManager(store)
	return NewRecorder(mgr, store, "pending", zerolog.Nop()), mgr
}

func TestRecordRejectsWithoutSchedule(t *testing.T) {
	store := &memStore{}
	rec, _ := newTestRecorder(store)

	obs := PriceObservation{
		ProductID:       "prod-1",
		EstablishmentID: "est-1",
		Price:           decimal.NewFromFloat(12.50),
	}
	if _, err := rec.Record(context.Background(), obs); !errors.Is(err, ErrNoActiveSchedule) {
		t.Fatalf("expected ErrNoActiveSchedule, got %v", err)
	}
	if len(store.prices) != 0 {
		t.Fatalf("rejected observation was persisted")
	}
	// Rejection must not create a schedule; that is the manager's job.
	if count, _ := store.CountSchedules(context.Background()); count != 0 {
		t.Fatalf("recorder created %d schedules", count)
	}
}

func TestRecordStampsActiveSchedule(t *testing.T) {
	store := &memStore{}
	rec, mgr := newTestRecorder(store)

	schedule, err := mgr.EnsureCurrentSchedule(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	remarks := "shelf price"
	obs := PriceObservation{
		ProductID:       "prod-1",
		PersonnelID:     "pers-1",
		EstablishmentID: "est-1",
		Price:           decimal.NewFromFloat(12.50),
		Remarks:         &remarks,
	}

	recorded, err := rec.Record(context.Background(), obs)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if recorded.MonitoringScheduleID != schedule.ID {
		t.Fatalf("schedule id = %v, want %v", recorded.MonitoringScheduleID, schedule.ID)
	}
	if recorded.MonitoringID != schedule.MonitoringID {
		t.Fatalf("monitoring id = %q, want %q", recorded.MonitoringID, schedule.MonitoringID)
	}
	if recorded.Status != "pending" {
		t.Fatalf("status = %q, want default pending", recorded.Status)
	}

	listed, err := store.ListPricesBySchedule(context.Background(), schedule.ID)
	if err != nil {
		t.Fatalf("list prices: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("prices under schedule = %d, want 1", len(listed))
	}
}

func TestRecordValidatesObservation(t *testing.T) {
	store := &memStore{}
	rec, mgr := newTestRecorder(store)
	if _, err := mgr.EnsureCurrentSchedule(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	cases := []PriceObservation{
		{EstablishmentID: "est-1", Price: decimal.NewFromInt(1)},
		{ProductID: "prod-1", Price: decimal.NewFromInt(1)},
		{ProductID: "prod-1", EstablishmentID: "est-1", Price: decimal.NewFromInt(-1)},
	}
	for i, obs := range cases {
		if _, err := rec.Record(context.Background(), obs); err == nil {
			t.Errorf("case %d: invalid observation accepted", i)
		}
	}
}
