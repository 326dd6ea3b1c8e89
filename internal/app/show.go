package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints recent monitoring schedules.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	schedules, err := store.ListRecentSchedules(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		fmt.Fprintln(os.Stdout, "no schedules found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Monitoring ID\tStart\tEnd\tCreated\tID")

	for _, schedule := range schedules {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			schedule.MonitoringID,
			schedule.StartDate.Format(time.RFC3339),
			schedule.EndDate.Format(time.RFC3339),
			schedule.CreatedAt.Format(time.RFC3339),
			schedule.ID,
		)
	}

	writer.Flush()
	return nil
}
