// Package database provides PostgreSQL storage for fuel records.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/ustunfatih/oktan/internal/models"
)

// ErrNotFound is returned when a record with the given ID does not exist.
var ErrNotFound = errors.New("record not found")

// amountTolerance is the largest difference at which two liter or price
// values are considered equal by ExistsDuplicate.
const amountTolerance = 0.001

const schema = `
CREATE TABLE IF NOT EXISTS fuel_records (
	id              UUID PRIMARY KEY,
	date            TIMESTAMPTZ NOT NULL,
	odometer_start  DOUBLE PRECISION,
	odometer_end    DOUBLE PRECISION,
	total_liters    DOUBLE PRECISION NOT NULL CHECK (total_liters > 0),
	price_per_liter DOUBLE PRECISION NOT NULL CHECK (price_per_liter > 0),
	gas_station     TEXT NOT NULL DEFAULT 'Unknown',
	drive_mode      TEXT NOT NULL DEFAULT 'Normal',
	is_full_refill  BOOLEAN NOT NULL DEFAULT TRUE,
	notes           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS fuel_records_date_idx ON fuel_records (date);
`

const selectColumns = `id, date, odometer_start, odometer_end, total_liters, price_per_liter, gas_station, drive_mode, is_full_refill, notes`

// DB wraps the PostgreSQL database connection and provides operations for fuel records.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a new database connection.
func New(dsn string, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{
		db:     db,
		logger: logger.With().Str("component", "database").Logger(),
	}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// Migrate creates the fuel_records table if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	d.logger.Debug().Msg("schema up to date")
	return nil
}

// InsertRecord validates and stores a new fuel record.
func (d *DB) InsertRecord(ctx context.Context, r models.FuelRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO fuel_records (id, date, odometer_start, odometer_end, total_liters, price_per_liter, gas_station, drive_mode, is_full_refill, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := d.db.ExecContext(ctx, query,
		r.ID,
		r.Date,
		r.OdometerStart,
		r.OdometerEnd,
		r.TotalLiters,
		r.PricePerLiter,
		r.GasStation,
		string(r.DriveMode),
		r.IsFullRefill,
		r.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	d.logger.Debug().
		Str("id", r.ID.String()).
		Str("date", r.Date.Format("2006-01-02")).
		Float64("liters", r.TotalLiters).
		Msg("inserted fuel record")

	return nil
}

// UpdateRecord validates and replaces the stored record with the same ID.
func (d *DB) UpdateRecord(ctx context.Context, r models.FuelRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE fuel_records SET
			date = $2, odometer_start = $3, odometer_end = $4, total_liters = $5, price_per_liter = $6,
			gas_station = $7, drive_mode = $8, is_full_refill = $9, notes = $10, updated_at = now()
		WHERE id = $1
	`
	res, err := d.db.ExecContext(ctx, query,
		r.ID,
		r.Date,
		r.OdometerStart,
		r.OdometerEnd,
		r.TotalLiters,
		r.PricePerLiter,
		r.GasStation,
		string(r.DriveMode),
		r.IsFullRefill,
		r.Notes,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	return expectOneRow(res, "updating record")
}

// DeleteRecord removes the record with the given ID.
func (d *DB) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM fuel_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return expectOneRow(res, "deleting record")
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// GetRecord returns the record with the given ID.
func (d *DB) GetRecord(ctx context.Context, id uuid.UUID) (models.FuelRecord, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM fuel_records WHERE id = $1", id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FuelRecord{}, fmt.Errorf("getting record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.FuelRecord{}, fmt.Errorf("getting record %s: %w", id, err)
	}
	return r, nil
}

// ListRecords returns all records ordered by date, oldest first.
func (d *DB) ListRecords(ctx context.Context) ([]models.FuelRecord, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM fuel_records ORDER BY date ASC, created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []models.FuelRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return records, nil
}

// ExistsDuplicate reports whether a record with the same calendar day,
// liters and price per liter is already stored.
func (d *DB) ExistsDuplicate(ctx context.Context, date time.Time, liters, pricePerLiter float64) (bool, error) {
	query := `
		SELECT COUNT(*) FROM fuel_records
		WHERE date >= $1 AND date < $2
		AND abs(total_liters - $3) < $5
		AND abs(price_per_liter - $4) < $5
	`

	from, to := DayBounds(date)
	var count int
	err := d.db.QueryRowContext(ctx, query, from, to, liters, pricePerLiter, amountTolerance).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking duplicate: %w", err)
	}

	return count > 0, nil
}

// CountRecords returns the total number of stored records.
func (d *DB) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fuel_records").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// DayBounds returns the start of t's calendar day and the start of the next
// one, both in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.FuelRecord, error) {
	var (
		r          models.FuelRecord
		start, end sql.NullFloat64
		mode       string
		notes      sql.NullString
	)
	err := s.Scan(&r.ID, &r.Date, &start, &end, &r.TotalLiters, &r.PricePerLiter, &r.GasStation, &mode, &r.IsFullRefill, &notes)
	if err != nil {
		return models.FuelRecord{}, err
	}
	// pgx returns TIMESTAMPTZ in the server's local zone; records are kept in UTC.
	r.Date = r.Date.UTC()

	if start.Valid {
		r.OdometerStart = models.Float(start.Float64)
	}
	if end.Valid {
		r.OdometerEnd = models.Float(end.Float64)
	}
	if notes.Valid {
		r.Notes = &notes.String
	}
	r.DriveMode, _ = models.ParseDriveMode(mode)
	return r, nil
}
