package monitor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"presyotect-monitor/internal/storage"
)

// PriceObservation is one submitted price reading, before it is stamped
// with the active schedule.
type PriceObservation struct {
	ProductID       string
	PersonnelID     string
	EstablishmentID string
	Price           decimal.Decimal
	Remarks         *string
	Status          string
}

// Recorder stamps price observations with the current week's schedule and
// persists them. It only reads schedules; creation stays with the Manager.
type Recorder struct {
	manager       *Manager
	prices        storage.PriceStore
	defaultStatus string
	logger        zerolog.Logger
}

// NewRecorder constructs the price recorder.
func NewRecorder(manager *Manager, prices storage.PriceStore, defaultStatus string, logger zerolog.Logger) *Recorder {
	return &Recorder{
		manager:       manager,
		prices:        prices,
		defaultStatus: defaultStatus,
		logger:        logger.With().Str("component", "recorder").Logger(),
	}
}

// Record persists one observation under the active weekly schedule.
// When no schedule exists for the current week the observation is
// rejected with ErrNoActiveSchedule.
func (r *Recorder) Record(ctx context.Context, obs PriceObservation) (storage.MonitoredPrice, error) {
	if obs.ProductID == "" {
		return storage.MonitoredPrice{}, fmt.Errorf("product id must not be empty")
	}
	if obs.EstablishmentID == "" {
		return storage.MonitoredPrice{}, fmt.Errorf("establishment id must not be empty")
	}
	if obs.Price.IsNegative() {
		return storage.MonitoredPrice{}, fmt.Errorf("price must not be negative")
	}

	schedule, err := r.manager.CurrentSchedule(ctx)
	if err != nil {
		return storage.MonitoredPrice{}, err
	}

	status := obs.Status
	if status == "" {
		status = r.defaultStatus
	}

	price := storage.MonitoredPrice{
		ProductID:            obs.ProductID,
		PersonnelID:          obs.PersonnelID,
		EstablishmentID:      obs.EstablishmentID,
		Price:                obs.Price,
		Remarks:              obs.Remarks,
		Status:               status,
		MonitoringScheduleID: schedule.ID,
		MonitoringID:         schedule.MonitoringID,
	}

	recorded, err := r.prices.InsertPrice(ctx, price)
	if err != nil {
		return storage.MonitoredPrice{}, fmt.Errorf("record price: %w", err)
	}

	r.logger.Info().
		Str("product_id", recorded.ProductID).
		Str("monitoring_id", recorded.MonitoringID).
		Str("price", recorded.Price.String()).
		Msg("price recorded")
	return recorded, nil
}
