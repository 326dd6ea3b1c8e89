package app

import (
	"context"
	"errors"

	"presyotect-monitor/internal/interval"
)

// Backfill generates schedules for every week overlapping the given range.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	weekStart, err := a.Config.Monitoring.WeekStartDay()
	if err != nil {
		return err
	}

	cursor := interval.StartOf(opts.From, interval.Weekly, weekStart)
	if !cursor.Before(opts.To) {
		return errors.New("backfill range is empty; check --from/--to")
	}

	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: nothing will be written")
		for ; cursor.Before(opts.To); cursor = interval.Advance(cursor, interval.Weekly, 1) {
			a.Logger.Info().
				Str("monitoring_id", interval.Identifier(cursor, weekStart)).
				Time("start_date", cursor).
				Time("end_date", interval.EndOf(cursor, interval.Weekly, weekStart)).
				Msg("would ensure schedule")
		}
		return nil
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

	processed := 0
	failed := 0
	for ; cursor.Before(opts.To); cursor = interval.Advance(cursor, interval.Weekly, 1) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := mgr.EnsureScheduleAt(ctx, cursor); err != nil {
			failed++
			a.Logger.Error().Err(err).Time("week", cursor).Msg("backfill week failed")
			continue
		}
		processed++
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("backfill finished")
	if failed > 0 {
		return errors.New("some weeks failed to backfill; check the logs")
	}
	return nil
}
