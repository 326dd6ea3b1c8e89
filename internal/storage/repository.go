package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	// The partial unique index on (monitoring_id) WHERE deleted_at IS NULL
	// makes the insert race-safe: a concurrent duplicate resolves to zero
	// rows instead of a second schedule for the same week.
	insertScheduleSQL = `INSERT INTO monitoring_schedules (
        id,
        monitoring_id,
        start_date,
        end_date
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (monitoring_id) WHERE deleted_at IS NULL DO NOTHING
    RETURNING id, monitoring_id, start_date, end_date, created_at, deleted_at;`

	findScheduleSQL = `SELECT
        id,
        monitoring_id,
        start_date,
        end_date,
        created_at,
        deleted_at
    FROM monitoring_schedules
    WHERE monitoring_id = $1
      AND deleted_at IS NULL;`

	listRecentSchedulesSQL = `SELECT
        id,
        monitoring_id,
        start_date,
        end_date,
        created_at,
        deleted_at
    FROM monitoring_schedules
    WHERE deleted_at IS NULL
    ORDER BY start_date DESC
    LIMIT $1;`

	softDeleteScheduleSQL = `UPDATE monitoring_schedules
    SET deleted_at = now()
    WHERE id = $1
      AND deleted_at IS NULL;`

	countSchedulesSQL = `SELECT COUNT(*) FROM monitoring_schedules WHERE deleted_at IS NULL;`

	insertPriceSQL = `INSERT INTO monitored_prices (
        id,
        product_id,
        personnel_id,
        establishment_id,
        price,
        remarks,
        status,
        monitoring_schedule_id,
        monitoring_id
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING created_at;`

	listPricesByScheduleSQL = `SELECT
        id,
        product_id,
        personnel_id,
        establishment_id,
        price,
        remarks,
        status,
        monitoring_schedule_id,
        monitoring_id,
        created_at,
        deleted_at
    FROM monitored_prices
    WHERE monitoring_schedule_id = $1
      AND deleted_at IS NULL
    ORDER BY created_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ScheduleStore defines persistence for monitoring schedules. All reads
// see non-deleted rows only.
type ScheduleStore interface {
	FindScheduleByIdentifier(ctx context.Context, monitoringID string) (*MonitoringSchedule, error)
	InsertSchedule(ctx context.Context, schedule MonitoringSchedule) (MonitoringSchedule, error)
	ListRecentSchedules(ctx context.Context, limit int) ([]MonitoringSchedule, error)
	SoftDeleteSchedule(ctx context.Context, id uuid.UUID) error
	CountSchedules(ctx context.Context) (int64, error)
}

// PriceStore defines persistence for monitored price observations.
type PriceStore interface {
	InsertPrice(ctx context.Context, price MonitoredPrice) (MonitoredPrice, error)
	ListPricesBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]MonitoredPrice, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to schedules and prices over one pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// FindScheduleByIdentifier returns the non-deleted schedule keyed by the
// canonical week identifier, or nil when no such schedule exists.
func (s *Store) FindScheduleByIdentifier(ctx context.Context, monitoringID string) (*MonitoringSchedule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	row := pool.QueryRow(ctx, findScheduleSQL, monitoringID)
	schedule, scanErr := scanSchedule(row)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule %s: %w", monitoringID, scanErr)
	}
	return &schedule, nil
}

// InsertSchedule persists a new schedule, assigning its ID. When a
// concurrent insert for the same identifier wins the race, the winner's
// row is returned instead of an error.
func (s *Store) InsertSchedule(ctx context.Context, schedule MonitoringSchedule) (MonitoringSchedule, error) {
	pool, err := s.getPool()
	if err != nil {
		return MonitoringSchedule{}, err
	}

	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}

	row := pool.QueryRow(ctx, insertScheduleSQL,
		schedule.ID,
		schedule.MonitoringID,
		schedule.StartDate,
		schedule.EndDate,
	)

	inserted, scanErr := scanSchedule(row)
	if scanErr == nil {
		return inserted, nil
	}
	if !errors.Is(scanErr, pgx.ErrNoRows) {
		return MonitoringSchedule{}, fmt.Errorf("insert schedule %s: %w", schedule.MonitoringID, scanErr)
	}

	// Lost the race: the conflicting row is the schedule for this week.
	existing, findErr := s.FindScheduleByIdentifier(ctx, schedule.MonitoringID)
	if findErr != nil {
		return MonitoringSchedule{}, findErr
	}
	if existing == nil {
		return MonitoringSchedule{}, fmt.Errorf("insert schedule %s: conflicting row vanished", schedule.MonitoringID)
	}
	return *existing, nil
}

// ListRecentSchedules lists non-deleted schedules, newest first.
func (s *Store) ListRecentSchedules(ctx context.Context, limit int) ([]MonitoringSchedule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSchedulesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent schedules: %w", queryErr)
	}
	defer rows.Close()

	schedules := make([]MonitoringSchedule, 0, limit)
	for rows.Next() {
		schedule, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		schedules = append(schedules, schedule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return schedules, nil
}

// SoftDeleteSchedule retires a schedule by stamping deleted_at.
func (s *Store) SoftDeleteSchedule(ctx context.Context, id uuid.UUID) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, softDeleteScheduleSQL, id)
	if execErr != nil {
		return fmt.Errorf("soft delete schedule: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountSchedules counts non-deleted schedules.
func (s *Store) CountSchedules(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSchedulesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count schedules: %w", scanErr)
	}
	return count, nil
}

// InsertPrice persists a price observation.
func (s *Store) InsertPrice(ctx context.Context, price MonitoredPrice) (MonitoredPrice, error) {
	pool, err := s.getPool()
	if err != nil {
		return MonitoredPrice{}, err
	}

	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}

	var remarks interface{}
	if price.Remarks != nil {
		remarks = *price.Remarks
	}

	row := pool.QueryRow(ctx, insertPriceSQL,
		price.ID,
		price.ProductID,
		price.PersonnelID,
		price.EstablishmentID,
		price.Price.String(),
		remarks,
		price.Status,
		price.MonitoringScheduleID,
		price.MonitoringID,
	)
	if scanErr := row.Scan(&price.CreatedAt); scanErr != nil {
		return MonitoredPrice{}, fmt.Errorf("insert price: %w", scanErr)
	}
	return price, nil
}

// ListPricesBySchedule lists observations recorded under one schedule.
func (s *Store) ListPricesBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]MonitoredPrice, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPricesByScheduleSQL, scheduleID)
	if queryErr != nil {
		return nil, fmt.Errorf("list prices by schedule: %w", queryErr)
	}
	defer rows.Close()

	prices := make([]MonitoredPrice, 0)
	for rows.Next() {
		price, scanErr := scanPrice(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		prices = append(prices, price)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return prices, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func scanSchedule(row pgx.Row) (MonitoringSchedule, error) {
	var (
		schedule  MonitoringSchedule
		deletedAt *time.Time
	)
	if err := row.Scan(
		&schedule.ID,
		&schedule.MonitoringID,
		&schedule.StartDate,
		&schedule.EndDate,
		&schedule.CreatedAt,
		&deletedAt,
	); err != nil {
		return MonitoringSchedule{}, err
	}
	schedule.DeletedAt = deletedAt
	return schedule, nil
}

func scanPrice(row pgx.Row) (MonitoredPrice, error) {
	var (
		price     MonitoredPrice
		priceStr  string
		remarks   *string
		deletedAt *time.Time
	)
	if err := row.Scan(
		&price.ID,
		&price.ProductID,
		&price.PersonnelID,
		&price.EstablishmentID,
		&priceStr,
		&remarks,
		&price.Status,
		&price.MonitoringScheduleID,
		&price.MonitoringID,
		&price.CreatedAt,
		&deletedAt,
	); err != nil {
		return MonitoredPrice{}, err
	}

	parsed, err := decimal.NewFromString(priceStr)
	if err != nil {
		return MonitoredPrice{}, fmt.Errorf("parse price: %w", err)
	}
	price.Price = parsed
	price.Remarks = remarks
	price.DeletedAt = deletedAt
	return price, nil
}
