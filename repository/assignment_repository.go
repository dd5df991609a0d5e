package repository

import (
	"context"
	"fmt"
	"time"
)

// AssignmentRepository stores which organization pilots may fly which drones.
type AssignmentRepository struct {
	db DBTX
}

func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign records the assignment. Assigning twice is not an error.
func (r *AssignmentRepository) Assign(ctx context.Context, userID, droneID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_drone_assignments (user_id, drone_id, assigned_at) VALUES (?,?,?)`,
		userID, droneID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign drone %d to user %d: %w", droneID, userID, err)
	}
	return nil
}

// Unassign removes the assignment and reports whether one existed.
func (r *AssignmentRepository) Unassign(ctx context.Context, userID, droneID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_drone_assignments WHERE user_id = ? AND drone_id = ?`, userID, droneID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *AssignmentRepository) Exists(ctx context.Context, userID, droneID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_drone_assignments WHERE user_id = ? AND drone_id = ?`, userID, droneID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DroneIDsForUser lists the drones assigned to a pilot.
func (r *AssignmentRepository) DroneIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT drone_id FROM user_drone_assignments WHERE user_id = ? ORDER BY drone_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
