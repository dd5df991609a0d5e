package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"droneFlightAuthority/models"
)

// TelemetryRepository appends and reads simulated telemetry samples.
type TelemetryRepository struct {
	db DBTX
}

func NewTelemetryRepository(db DBTX) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

const telemetryColumns = `id, flight_plan_id, drone_id, timestamp, latitude, longitude, altitude_m, speed_mps, heading_degrees, status_message`

func scanTelemetry(s rowScanner) (*models.TelemetrySample, error) {
	var t models.TelemetrySample
	var flight sql.NullInt64
	var speed, heading sql.NullFloat64
	if err := s.Scan(&t.ID, &flight, &t.DroneID, &t.Timestamp, &t.Latitude, &t.Longitude, &t.AltitudeM, &speed, &heading, &t.Status); err != nil {
		return nil, err
	}
	t.FlightPlanID = int64Ptr(flight)
	t.SpeedMPS = floatPtr(speed)
	t.HeadingDeg = floatPtr(heading)
	return &t, nil
}

// Create appends a sample and returns it with its id.
func (r *TelemetryRepository) Create(ctx context.Context, t *models.TelemetrySample) (*models.TelemetrySample, error) {
	if t == nil {
		return nil, errors.New("telemetry sample is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO telemetry_logs
(flight_plan_id, drone_id, timestamp, latitude, longitude, altitude_m, speed_mps, heading_degrees, status_message)
VALUES (?,?,?,?,?,?,?,?,?)`,
		nullableInt64(t.FlightPlanID), t.DroneID, t.Timestamp.UTC(), t.Latitude, t.Longitude, t.AltitudeM,
		nullableFloat(t.SpeedMPS), nullableFloat(t.HeadingDeg), t.Status)
	if err != nil {
		return nil, fmt.Errorf("insert telemetry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out := *t
	out.ID = id
	return &out, nil
}

func (r *TelemetryRepository) GetByID(ctx context.Context, id int64) (*models.TelemetrySample, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	t, err := scanTelemetry(r.db.QueryRowContext(ctx, `SELECT `+telemetryColumns+` FROM telemetry_logs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// ListByFlight returns the samples of a flight in emission order.
func (r *TelemetryRepository) ListByFlight(ctx context.Context, flightPlanID int64) ([]models.TelemetrySample, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+telemetryColumns+` FROM telemetry_logs WHERE flight_plan_id = ? ORDER BY timestamp ASC, id ASC`, flightPlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.TelemetrySample
	for rows.Next() {
		t, err := scanTelemetry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
