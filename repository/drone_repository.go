package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"droneFlightAuthority/models"
)

type DroneRepository struct {
	db DBTX
}

func NewDroneRepository(db DBTX) *DroneRepository {
	return &DroneRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *DroneRepository) WithTx(tx *sql.Tx) *DroneRepository {
	return &DroneRepository{db: tx}
}

const droneColumns = `id, brand, model, serial_number, organization_id, solo_owner_user_id, current_status, last_seen_at, last_telemetry_id, created_at, updated_at`

func scanDrone(s rowScanner) (*models.Drone, error) {
	var d models.Drone
	var status string
	var org, owner, lastTelemetry sql.NullInt64
	var lastSeen sql.NullTime
	if err := s.Scan(&d.ID, &d.Brand, &d.Model, &d.SerialNumber, &org, &owner, &status, &lastSeen, &lastTelemetry, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Status = models.DroneStatus(status)
	d.OrganizationID = int64Ptr(org)
	d.SoloOwnerID = int64Ptr(owner)
	d.LastSeenAt = timePtr(lastSeen)
	d.LastTelemetryID = int64Ptr(lastTelemetry)
	return &d, nil
}

// Create inserts a new drone. Status defaults to IDLE if empty.
func (r *DroneRepository) Create(ctx context.Context, d *models.Drone) (*models.Drone, error) {
	if d == nil {
		return nil, errors.New("drone is nil")
	}
	if (d.OrganizationID == nil) == (d.SoloOwnerID == nil) {
		return nil, errors.New("drone needs exactly one of organization or solo owner")
	}
	if d.Status == "" {
		d.Status = models.DroneStatusIdle
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO drones (brand, model, serial_number, organization_id, solo_owner_user_id, current_status) VALUES (?,?,?,?,?,?)`,
		d.Brand, d.Model, d.SerialNumber, nullableInt64(d.OrganizationID), nullableInt64(d.SoloOwnerID), string(d.Status))
	if err != nil {
		return nil, fmt.Errorf("insert drone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *DroneRepository) GetByID(ctx context.Context, id int64) (*models.Drone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	d, err := scanDrone(r.db.QueryRowContext(ctx, `SELECT `+droneColumns+` FROM drones WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *DroneRepository) GetBySerial(ctx context.Context, serial string) (*models.Drone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	d, err := scanDrone(r.db.QueryRowContext(ctx, `SELECT `+droneColumns+` FROM drones WHERE serial_number = ? AND deleted_at IS NULL`, serial))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *DroneRepository) UpdateStatus(ctx context.Context, id int64, status models.DroneStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE drones SET current_status = ?, updated_at = ? WHERE id = ?`, string(status), time.Now().UTC(), id)
	return err
}

// RecordTelemetry stores the drone's most recent sample reference and sighting time.
func (r *DroneRepository) RecordTelemetry(ctx context.Context, id, sampleID int64, seenAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE drones SET last_telemetry_id = ?, last_seen_at = ?, updated_at = ? WHERE id = ?`,
		sampleID, seenAt.UTC(), time.Now().UTC(), id)
	return err
}

// SoftDelete hides the drone from lookups. Telemetry history is kept.
func (r *DroneRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE drones SET deleted_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// ListDronesAdminParams contains filters and pagination for admin drone listings.
type ListDronesAdminParams struct {
	Status         *models.DroneStatus
	OrganizationID *int64
	SoloOwnerID    *int64
	SerialContains *string
	PageSize       int
	AfterID        int64
}

// ListAdmin returns drones matching filters ordered by id asc with keyset pagination by id.
func (r *DroneRepository) ListAdmin(ctx context.Context, p ListDronesAdminParams) ([]models.Drone, error) {
	p.PageSize = clampPageSize(p.PageSize)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	where := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 6)

	if p.Status != nil {
		where = append(where, "current_status = ?")
		args = append(args, string(*p.Status))
	}
	if p.OrganizationID != nil {
		where = append(where, "organization_id = ?")
		args = append(args, *p.OrganizationID)
	}
	if p.SoloOwnerID != nil {
		where = append(where, "solo_owner_user_id = ?")
		args = append(args, *p.SoloOwnerID)
	}
	if p.SerialContains != nil && strings.TrimSpace(*p.SerialContains) != "" {
		where = append(where, "serial_number LIKE ?")
		args = append(args, "%"+strings.TrimSpace(*p.SerialContains)+"%")
	}
	if p.AfterID > 0 {
		where = append(where, "id > ?")
		args = append(args, p.AfterID)
	}

	query := "SELECT " + droneColumns + " FROM drones WHERE " + strings.Join(where, " AND ") + " ORDER BY id ASC LIMIT ?"
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Drone
	for rows.Next() {
		d, err := scanDrone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
