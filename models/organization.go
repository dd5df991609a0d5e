package models

import "time"

// Organization groups admins, pilots and drones under one operator.
type Organization struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserDroneAssignment grants an organization pilot the right to fly a drone.
type UserDroneAssignment struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	DroneID    int64     `db:"drone_id" json:"drone_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}
