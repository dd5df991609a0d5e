package models

import "time"

// DroneStatus represents the operational status of a drone.
type DroneStatus string

const (
	DroneStatusIdle        DroneStatus = "IDLE"
	DroneStatusActive      DroneStatus = "ACTIVE"
	DroneStatusMaintenance DroneStatus = "MAINTENANCE"
	DroneStatusUnknown     DroneStatus = "UNKNOWN"
)

// OwnerType tells whether a drone belongs to an organization or a solo pilot.
type OwnerType string

const (
	OwnerOrganization OwnerType = "ORGANIZATION"
	OwnerSoloPilot    OwnerType = "SOLO_PILOT"
)

// Drone represents a physical vehicle. Exactly one of OrganizationID and
// SoloOwnerID is set.
type Drone struct {
	ID              int64       `db:"id" json:"id"`
	Brand           string      `db:"brand" json:"brand"`
	Model           string      `db:"model" json:"model"`
	SerialNumber    string      `db:"serial_number" json:"serial_number"`
	OrganizationID  *int64      `db:"organization_id" json:"organization_id,omitempty"`
	SoloOwnerID     *int64      `db:"solo_owner_user_id" json:"solo_owner_user_id,omitempty"`
	Status          DroneStatus `db:"current_status" json:"current_status"`
	LastSeenAt      *time.Time  `db:"last_seen_at" json:"last_seen_at,omitempty"`
	LastTelemetryID *int64      `db:"last_telemetry_id" json:"last_telemetry_id,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// OwnerType derives the ownership mode from the owner fields.
func (d *Drone) OwnerType() OwnerType {
	if d.OrganizationID != nil {
		return OwnerOrganization
	}
	return OwnerSoloPilot
}
