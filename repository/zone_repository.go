package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"droneFlightAuthority/models"
)

// ZoneRepository persists restricted (no-fly) zones.
type ZoneRepository struct {
	db DBTX
}

func NewZoneRepository(db DBTX) *ZoneRepository {
	return &ZoneRepository{db: db}
}

const zoneColumns = `id, name, description, geometry_type, definition_json, min_altitude_m, max_altitude_m, is_active, created_by_authority_id, created_at, updated_at`

func scanZone(s rowScanner) (*models.RestrictedZone, error) {
	var z models.RestrictedZone
	var kind, def string
	var minAlt, maxAlt sql.NullFloat64
	if err := s.Scan(&z.ID, &z.Name, &z.Description, &kind, &def, &minAlt, &maxAlt, &z.IsActive, &z.CreatedBy, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	z.Geometry = models.GeometryKind(kind)
	if err := json.Unmarshal([]byte(def), &z.Definition); err != nil {
		return nil, fmt.Errorf("zone %d definition: %w", z.ID, err)
	}
	z.MinAltitudeM = floatPtr(minAlt)
	z.MaxAltitudeM = floatPtr(maxAlt)
	return &z, nil
}

func (r *ZoneRepository) Create(ctx context.Context, z *models.RestrictedZone) (*models.RestrictedZone, error) {
	if z == nil {
		return nil, errors.New("zone is nil")
	}
	def, err := json.Marshal(z.Definition)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `INSERT INTO restricted_zones
(name, description, geometry_type, definition_json, min_altitude_m, max_altitude_m, is_active, created_by_authority_id, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		z.Name, z.Description, string(z.Geometry), string(def), nullableFloat(z.MinAltitudeM), nullableFloat(z.MaxAltitudeM),
		z.IsActive, z.CreatedBy, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert zone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ZoneRepository) GetByID(ctx context.Context, id int64) (*models.RestrictedZone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	z, err := scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM restricted_zones WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return z, nil
}

// GetByName looks a zone up by its exact name among non-deleted zones.
func (r *ZoneRepository) GetByName(ctx context.Context, name string) (*models.RestrictedZone, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	z, err := scanZone(r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM restricted_zones WHERE name = ? AND deleted_at IS NULL LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return z, nil
}

// ListActive returns every active, non-deleted zone.
func (r *ZoneRepository) ListActive(ctx context.Context) ([]models.RestrictedZone, error) {
	active := true
	return r.List(ctx, &active)
}

// List returns non-deleted zones, optionally filtered on the active flag.
func (r *ZoneRepository) List(ctx context.Context, active *bool) ([]models.RestrictedZone, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	query := `SELECT ` + zoneColumns + ` FROM restricted_zones WHERE deleted_at IS NULL`
	var args []any
	if active != nil {
		query += ` AND is_active = ?`
		args = append(args, *active)
	}
	query += ` ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RestrictedZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

// Update writes every editable field of z.
func (r *ZoneRepository) Update(ctx context.Context, z *models.RestrictedZone) error {
	if z == nil {
		return errors.New("zone is nil")
	}
	def, err := json.Marshal(z.Definition)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err = r.db.ExecContext(ctx, `UPDATE restricted_zones SET
name = ?, description = ?, geometry_type = ?, definition_json = ?, min_altitude_m = ?, max_altitude_m = ?, is_active = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`,
		z.Name, z.Description, string(z.Geometry), string(def), nullableFloat(z.MinAltitudeM), nullableFloat(z.MaxAltitudeM),
		z.IsActive, time.Now().UTC(), z.ID)
	return err
}

// SoftDelete deactivates the zone and hides it from lookups.
func (r *ZoneRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE restricted_zones SET is_active = 0, deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}
