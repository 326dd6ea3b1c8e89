package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonitoringSchedule marks one monitoring period as the active window.
// Rows are insert-only: retiring a schedule sets DeletedAt, never removes
// or rewrites the row.
type MonitoringSchedule struct {
	ID           uuid.UUID
	MonitoringID string
	StartDate    time.Time
	EndDate      time.Time
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Deleted reports whether the schedule has been soft-deleted.
func (s MonitoringSchedule) Deleted() bool {
	return s.DeletedAt != nil
}

// MonitoredPrice is one price observation, stamped at creation with the
// schedule active in its week.
type MonitoredPrice struct {
	ID                   uuid.UUID
	ProductID            string
	PersonnelID          string
	EstablishmentID      string
	Price                decimal.Decimal
	Remarks              *string
	Status               string
	MonitoringScheduleID uuid.UUID
	MonitoringID         string
	CreatedAt            time.Time
	DeletedAt            *time.Time
}
