package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"presyotect-monitor/internal/monitor"
)

// Record submits one price observation against the current week's
// schedule. A missing schedule rejects the observation: creation belongs
// to the ensure job alone.
func (a *App) Record(ctx context.Context, opts RecordOptions) error {
	price, err := decimal.NewFromString(opts.Price)
	if err != nil {
		return fmt.Errorf("invalid --price value: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr, err := a.newManager(store)
	if err != nil {
		return err
	}
	recorder := monitor.NewRecorder(mgr, store, a.Config.Recording.DefaultStatus, a.Logger)

	obs := monitor.PriceObservation{
		ProductID:       opts.ProductID,
		PersonnelID:     opts.PersonnelID,
		EstablishmentID: opts.EstablishmentID,
		Price:           price,
		Status:          opts.Status,
	}
	if opts.Remarks != "" {
		remarks := opts.Remarks
		obs.Remarks = &remarks
	}

	recorded, err := recorder.Record(ctx, obs)
	if err != nil {
		if errors.Is(err, monitor.ErrNoActiveSchedule) {
			return fmt.Errorf("no schedule for the current week; run the service or `ensure` first")
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "recorded price %s for product %s under schedule %s (%s)\n",
		recorded.Price.String(), recorded.ProductID, recorded.MonitoringID, recorded.MonitoringScheduleID)
	return nil
}
