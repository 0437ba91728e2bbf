package db

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// FlightRepository handles database operations for generated flights.
type FlightRepository struct {
	db *DB
}

// NewFlightRepository creates a new flight repository.
func NewFlightRepository(db *DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// Flight is a stored flight header.
type Flight struct {
	ID          uuid.UUID
	Plan        trajectory.FlightPlan
	RecordCount int
	CreatedAt   time.Time
}

// recordColumns is the COPY column list for flight_records.
var recordColumns = []string{"flight_id", "t_seconds", "range_m", "azimuth_deg"}

// SaveFlight stores a plan and its records in one transaction and returns
// the new flight ID. Records are bulk loaded with COPY.
func (r *FlightRepository) SaveFlight(ctx context.Context, plan trajectory.FlightPlan, records iter.Seq[trajectory.FlightRecord]) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO flights (
			id, duration_s, start_range_m, start_azimuth, speed_mps, heading_deg
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, plan.DurationS, plan.Start.RangeM, plan.Start.AzimuthDeg,
		plan.Velocity.SpeedMPS, plan.Velocity.HeadingDeg,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert flight: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("flight_records", recordColumns...))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare record copy: %w", err)
	}

	count := 0
	for rec := range records {
		if _, err := stmt.ExecContext(ctx, id, rec.TSeconds, rec.Position.RangeM, rec.Position.AzimuthDeg); err != nil {
			stmt.Close()
			return uuid.Nil, fmt.Errorf("failed to copy record t=%d: %w", rec.TSeconds, err)
		}
		count++
	}
	// An argument-less Exec flushes the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return uuid.Nil, fmt.Errorf("failed to flush records: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to finish record copy: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE flights SET record_count = $2 WHERE id = $1`, id, count,
	); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update record count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit flight: %w", err)
	}
	return id, nil
}

// GetFlight retrieves a flight header by ID. It returns nil, nil when no
// such flight exists.
func (r *FlightRepository) GetFlight(ctx context.Context, id uuid.UUID) (*Flight, error) {
	var f Flight
	err := r.db.QueryRowContext(ctx,
		`SELECT id, duration_s, start_range_m, start_azimuth, speed_mps, heading_deg,
		        record_count, created_at
		 FROM flights
		 WHERE id = $1`,
		id,
	).Scan(
		&f.ID, &f.Plan.DurationS, &f.Plan.Start.RangeM, &f.Plan.Start.AzimuthDeg,
		&f.Plan.Velocity.SpeedMPS, &f.Plan.Velocity.HeadingDeg,
		&f.RecordCount, &f.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}

	return &f, nil
}

// LoadRecords returns the records of a flight in time order.
func (r *FlightRepository) LoadRecords(ctx context.Context, id uuid.UUID) ([]trajectory.FlightRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t_seconds, range_m, azimuth_deg
		 FROM flight_records
		 WHERE flight_id = $1
		 ORDER BY t_seconds`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []trajectory.FlightRecord
	for rows.Next() {
		var (
			rec trajectory.FlightRecord
			pos coordinates.PolarPosition
		)
		if err := rows.Scan(&rec.TSeconds, &pos.RangeM, &pos.AzimuthDeg); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Position = pos
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	return records, nil
}

// ListFlights returns the most recent flights, newest first.
func (r *FlightRepository) ListFlights(ctx context.Context, limit int) ([]Flight, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, duration_s, start_range_m, start_azimuth, speed_mps, heading_deg,
		        record_count, created_at
		 FROM flights
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		if err := rows.Scan(
			&f.ID, &f.Plan.DurationS, &f.Plan.Start.RangeM, &f.Plan.Start.AzimuthDeg,
			&f.Plan.Velocity.SpeedMPS, &f.Plan.Velocity.HeadingDeg,
			&f.RecordCount, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		flights = append(flights, f)
	}

	return flights, rows.Err()
}

// DeleteFlight removes a flight and its records. Deleting a missing flight
// is not an error.
func (r *FlightRepository) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM flights WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete flight: %w", err)
	}
	return nil
}
