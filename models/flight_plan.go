package models

import "time"

// FlightPlanStatus is a state of the flight plan lifecycle.
type FlightPlanStatus string

const (
	FlightPendingOrgApproval       FlightPlanStatus = "PENDING_ORG_APPROVAL"
	FlightPendingAuthorityApproval FlightPlanStatus = "PENDING_AUTHORITY_APPROVAL"
	FlightApproved                 FlightPlanStatus = "APPROVED"
	FlightRejectedByOrg            FlightPlanStatus = "REJECTED_BY_ORG"
	FlightRejectedByAuthority      FlightPlanStatus = "REJECTED_BY_AUTHORITY"
	FlightActive                   FlightPlanStatus = "ACTIVE"
	FlightCompleted                FlightPlanStatus = "COMPLETED"
	FlightCancelledByPilot         FlightPlanStatus = "CANCELLED_BY_PILOT"
	FlightCancelledByAdmin         FlightPlanStatus = "CANCELLED_BY_ADMIN"
)

// Valid reports whether s is a known state.
func (s FlightPlanStatus) Valid() bool {
	switch s {
	case FlightPendingOrgApproval, FlightPendingAuthorityApproval, FlightApproved,
		FlightRejectedByOrg, FlightRejectedByAuthority, FlightActive, FlightCompleted,
		FlightCancelledByPilot, FlightCancelledByAdmin:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s FlightPlanStatus) Terminal() bool {
	switch s {
	case FlightCompleted, FlightRejectedByOrg, FlightRejectedByAuthority,
		FlightCancelledByPilot, FlightCancelledByAdmin:
		return true
	}
	return false
}

// Waypoint is one ordered 3D point of a flight plan.
type Waypoint struct {
	ID           int64   `db:"id" json:"id"`
	FlightPlanID int64   `db:"flight_plan_id" json:"flight_plan_id"`
	Latitude     float64 `db:"latitude" json:"latitude"`
	Longitude    float64 `db:"longitude" json:"longitude"`
	AltitudeM    float64 `db:"altitude_m" json:"altitude_m"`
	Sequence     int     `db:"sequence_order" json:"sequence_order"`
}

// FlightPlan is one proposed or executed flight.
type FlightPlan struct {
	ID                  int64            `db:"id" json:"id"`
	SubmitterID         int64            `db:"user_id" json:"user_id"`
	DroneID             int64            `db:"drone_id" json:"drone_id"`
	OrganizationID      *int64           `db:"organization_id" json:"organization_id,omitempty"`
	PlannedDeparture    time.Time        `db:"planned_departure_time" json:"planned_departure_time"`
	PlannedArrival      time.Time        `db:"planned_arrival_time" json:"planned_arrival_time"`
	ActualDeparture     *time.Time       `db:"actual_departure_time" json:"actual_departure_time,omitempty"`
	ActualArrival       *time.Time       `db:"actual_arrival_time" json:"actual_arrival_time,omitempty"`
	Status              FlightPlanStatus `db:"status" json:"status"`
	Notes               string           `db:"notes" json:"notes"`
	RejectionReason     *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	OrgApproverID       *int64           `db:"approved_by_organization_admin_id" json:"approved_by_organization_admin_id,omitempty"`
	AuthorityApproverID *int64           `db:"approved_by_authority_admin_id" json:"approved_by_authority_admin_id,omitempty"`
	ApprovedAt          *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
	Waypoints           []Waypoint       `json:"waypoints"`
}
