package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"droneFlightAuthority/internal/db"
	"droneFlightAuthority/models"
)

// FlightPlanRepository persists flight plans together with their waypoints.
type FlightPlanRepository struct {
	db DBTX
}

// NewFlightPlanRepository creates a new FlightPlanRepository.
func NewFlightPlanRepository(db DBTX) *FlightPlanRepository {
	return &FlightPlanRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *FlightPlanRepository) WithTx(tx *sql.Tx) *FlightPlanRepository {
	return &FlightPlanRepository{db: tx}
}

const flightPlanColumns = `id, user_id, drone_id, organization_id, planned_departure_time, planned_arrival_time,
actual_departure_time, actual_arrival_time, status, notes, rejection_reason,
approved_by_organization_admin_id, approved_by_authority_admin_id, approved_at, created_at, updated_at`

func scanFlightPlan(s rowScanner) (*models.FlightPlan, error) {
	var fp models.FlightPlan
	var status string
	var org, orgApprover, authApprover sql.NullInt64
	var actualDep, actualArr, approvedAt sql.NullTime
	var reason sql.NullString
	if err := s.Scan(&fp.ID, &fp.SubmitterID, &fp.DroneID, &org, &fp.PlannedDeparture, &fp.PlannedArrival,
		&actualDep, &actualArr, &status, &fp.Notes, &reason,
		&orgApprover, &authApprover, &approvedAt, &fp.CreatedAt, &fp.UpdatedAt); err != nil {
		return nil, err
	}
	fp.Status = models.FlightPlanStatus(status)
	fp.OrganizationID = int64Ptr(org)
	fp.ActualDeparture = timePtr(actualDep)
	fp.ActualArrival = timePtr(actualArr)
	fp.RejectionReason = stringPtr(reason)
	fp.OrgApproverID = int64Ptr(orgApprover)
	fp.AuthorityApproverID = int64Ptr(authApprover)
	fp.ApprovedAt = timePtr(approvedAt)
	return &fp, nil
}

// CreateWithWaypoints inserts the flight plan and all of its waypoints as one
// unit. When the repository is not already bound to a transaction it opens one.
func (r *FlightPlanRepository) CreateWithWaypoints(ctx context.Context, fp *models.FlightPlan) (*models.FlightPlan, error) {
	if fp == nil {
		return nil, errors.New("flight plan is nil")
	}
	if conn, ok := r.db.(*sql.DB); ok {
		var out *models.FlightPlan
		err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
			var err error
			out, err = r.WithTx(tx).CreateWithWaypoints(ctx, fp)
			return err
		})
		return out, err
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO flight_plans
(user_id, drone_id, organization_id, planned_departure_time, planned_arrival_time, status, notes, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		fp.SubmitterID, fp.DroneID, nullableInt64(fp.OrganizationID), fp.PlannedDeparture.UTC(), fp.PlannedArrival.UTC(),
		string(fp.Status), fp.Notes, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert flight plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	for _, wp := range fp.Waypoints {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO waypoints (flight_plan_id, latitude, longitude, altitude_m, sequence_order) VALUES (?,?,?,?,?)`,
			id, wp.Latitude, wp.Longitude, wp.AltitudeM, wp.Sequence); err != nil {
			return nil, fmt.Errorf("insert waypoint %d: %w", wp.Sequence, err)
		}
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("created flight plan not found: id=%d", id)
	}
	return created, nil
}

// GetByID fetches a flight plan and its waypoints in sequence order.
func (r *FlightPlanRepository) GetByID(ctx context.Context, id int64) (*models.FlightPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	fp, err := scanFlightPlan(r.db.QueryRowContext(ctx, `SELECT `+flightPlanColumns+` FROM flight_plans WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	wps, err := r.Waypoints(ctx, id)
	if err != nil {
		return nil, err
	}
	fp.Waypoints = wps
	return fp, nil
}

// Waypoints returns the waypoints of a flight plan ordered by sequence.
func (r *FlightPlanRepository) Waypoints(ctx context.Context, flightPlanID int64) ([]models.Waypoint, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, flight_plan_id, latitude, longitude, altitude_m, sequence_order FROM waypoints WHERE flight_plan_id = ? ORDER BY sequence_order ASC`, flightPlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Waypoint, 0, 8)
	for rows.Next() {
		var wp models.Waypoint
		if err := rows.Scan(&wp.ID, &wp.FlightPlanID, &wp.Latitude, &wp.Longitude, &wp.AltitudeM, &wp.Sequence); err != nil {
			return nil, err
		}
		out = append(out, wp)
	}
	return out, rows.Err()
}

// UpdateState writes the mutable lifecycle fields of fp, but only if the row
// is still in state from. It reports false when another writer got there first.
func (r *FlightPlanRepository) UpdateState(ctx context.Context, fp *models.FlightPlan, from models.FlightPlanStatus) (bool, error) {
	if fp == nil {
		return false, errors.New("flight plan is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE flight_plans SET
status = ?, notes = ?, rejection_reason = ?, actual_departure_time = ?, actual_arrival_time = ?,
approved_by_organization_admin_id = ?, approved_by_authority_admin_id = ?, approved_at = ?, updated_at = ?
WHERE id = ? AND status = ? AND deleted_at IS NULL`,
		string(fp.Status), fp.Notes, nullableString(fp.RejectionReason), nullableTime(fp.ActualDeparture), nullableTime(fp.ActualArrival),
		nullableInt64(fp.OrgApproverID), nullableInt64(fp.AuthorityApproverID), nullableTime(fp.ApprovedAt), now,
		fp.ID, string(from))
	if err != nil {
		return false, fmt.Errorf("update flight plan %d: %w", fp.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		fp.UpdatedAt = now
	}
	return n == 1, nil
}

// SoftDelete hides the flight plan from lookups.
func (r *FlightPlanRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE flight_plans SET deleted_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}
