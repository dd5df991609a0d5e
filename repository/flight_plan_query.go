package repository

import (
	"context"
	"database/sql"
	"strings"

	"droneFlightAuthority/models"
)

// ListFlightPlansParams represents filters and pagination for List.
type ListFlightPlansParams struct {
	SubmitterID    *int64
	OrganizationID *int64
	DroneID        *int64
	Statuses       []models.FlightPlanStatus
	PageSize       int
	AfterID        int64 // keyset cursor: rows with id < AfterID
}

// List returns flight plans matching filters, newest first, with keyset
// pagination on id. Waypoints are not loaded.
func (r *FlightPlanRepository) List(ctx context.Context, p ListFlightPlansParams) ([]models.FlightPlan, error) {
	p.PageSize = clampPageSize(p.PageSize)
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	where := []string{"deleted_at IS NULL"}
	var args []any

	if p.SubmitterID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *p.SubmitterID)
	}
	if p.OrganizationID != nil {
		where = append(where, "organization_id = ?")
		args = append(args, *p.OrganizationID)
	}
	if p.DroneID != nil {
		where = append(where, "drone_id = ?")
		args = append(args, *p.DroneID)
	}
	if len(p.Statuses) > 0 {
		placeholders := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if p.AfterID > 0 {
		where = append(where, "id < ?")
		args = append(args, p.AfterID)
	}

	query := `SELECT ` + flightPlanColumns + ` FROM flight_plans WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, p.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlightPlanRows(rows)
}

// ListActive returns every flight currently in the ACTIVE state.
func (r *FlightPlanRepository) ListActive(ctx context.Context) ([]models.FlightPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+flightPlanColumns+` FROM flight_plans WHERE status = ? AND deleted_at IS NULL ORDER BY id ASC`, string(models.FlightActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFlightPlanRows(rows)
}

func scanFlightPlanRows(rows *sql.Rows) ([]models.FlightPlan, error) {
	var out []models.FlightPlan
	for rows.Next() {
		fp, err := scanFlightPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
