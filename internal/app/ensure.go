package app

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Ensure runs one ensure pass for the current week and prints the active
// schedule. Useful for operators and for cron-style deployments without
// the long-running service.
func (a *App) Ensure(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr, err := a.newManager(store)
	if err != nil {
		return err
	}

	schedule, err := mgr.EnsureCurrentSchedule(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "monitoring_id: %s\nstart: %s\nend: %s\nid: %s\n",
		schedule.MonitoringID,
		schedule.StartDate.Format(time.RFC3339),
		schedule.EndDate.Format(time.RFC3339),
		schedule.ID,
	)
	return nil
}
