package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"presyotect-monitor/internal/config"
	"presyotect-monitor/internal/monitor"
	"presyotect-monitor/internal/storage"
	"presyotect-monitor/internal/trigger"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn is not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newManager(store storage.ScheduleStore) (*monitor.Manager, error) {
	weekStart, err := a.Config.Monitoring.WeekStartDay()
	if err != nil {
		return nil, err
	}
	loc, err := a.Config.Monitoring.Location()
	if err != nil {
		return nil, err
	}

	return monitor.NewManager(store, monitor.Options{
		WeekStart: weekStart,
		LockKey:   a.Config.Monitoring.AdvisoryLockKey,
		Now:       func() time.Time { return time.Now().In(loc) },
	}, a.Logger), nil
}

// Run executes the long-running schedule generation service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr, err := a.newManager(store)
	if err != nil {
		return err
	}

	loc, err := a.Config.Monitoring.Location()
	if err != nil {
		return err
	}

	trig := trigger.New(trigger.Options{
		Spec:     a.Config.Monitoring.Cron,
		Location: loc,
	}, a.Logger)

	a.Logger.Info().
		Str("cron", a.Config.Monitoring.Cron).
		Str("week_start", a.Config.Monitoring.WeekStart).
		Msg("starting schedule monitoring service")

	err = trig.Run(ctx, mgr.Tick)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("schedule monitoring service stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// BackfillOptions configure historical schedule generation.
type BackfillOptions struct {
	From   time.Time
	To     time.Time
	DryRun bool
}

// RecordOptions hold one price observation submitted from the CLI.
type RecordOptions struct {
	ProductID       string
	PersonnelID     string
	EstablishmentID string
	Price           string
	Remarks         string
	Status          string
}
