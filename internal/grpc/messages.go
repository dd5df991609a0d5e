package grpcserver

import (
	"time"

	"droneFlightAuthority/models"
)

// Wire messages of the utm.v1 services. Field names follow the JSON codec.

type Empty struct{}

type Waypoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AltitudeM float64 `json:"altitude_m"`
	Sequence  int     `json:"sequence_order"`
}

type FlightPlan struct {
	ID                  int64      `json:"id"`
	SubmitterID         int64      `json:"submitter_user_id"`
	DroneID             int64      `json:"drone_id"`
	OrganizationID      *int64     `json:"organization_id,omitempty"`
	Status              string     `json:"status"`
	PlannedDeparture    time.Time  `json:"planned_departure_time"`
	PlannedArrival      time.Time  `json:"planned_arrival_time"`
	ActualDeparture     *time.Time `json:"actual_departure_time,omitempty"`
	ActualArrival       *time.Time `json:"actual_arrival_time,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	RejectionReason     *string    `json:"rejection_reason,omitempty"`
	OrgApproverID       *int64     `json:"approved_by_organization_admin_id,omitempty"`
	AuthorityApproverID *int64     `json:"approved_by_authority_admin_id,omitempty"`
	ApprovedAt          *time.Time `json:"approved_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Waypoints           []Waypoint `json:"waypoints,omitempty"`
}

type TelemetrySample struct {
	ID         int64     `json:"id"`
	DroneID    int64     `json:"drone_id"`
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AltitudeM  float64   `json:"altitude_m"`
	SpeedMPS   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_degrees,omitempty"`
	Status     string    `json:"status_message"`
}

type RestrictedZone struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Geometry     string                `json:"geometry_type"`
	Definition   models.ZoneDefinition `json:"definition"`
	MinAltitudeM *float64              `json:"min_altitude_m,omitempty"`
	MaxAltitudeM *float64              `json:"max_altitude_m,omitempty"`
	IsActive     bool                  `json:"is_active"`
	CreatedBy    int64                 `json:"created_by_authority_id"`
}

type Organization struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name,omitempty"`
	Role           string `json:"role"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type Drone struct {
	ID             int64      `json:"id"`
	Brand          string     `json:"brand,omitempty"`
	Model          string     `json:"model,omitempty"`
	SerialNumber   string     `json:"serial_number"`
	OrganizationID *int64     `json:"organization_id,omitempty"`
	SoloOwnerID    *int64     `json:"solo_owner_user_id,omitempty"`
	Status         string     `json:"current_status"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
}

// FlightService

type SubmitFlightPlanRequest struct {
	DroneID          int64      `json:"drone_id"`
	PlannedDeparture time.Time  `json:"planned_departure_time"`
	PlannedArrival   time.Time  `json:"planned_arrival_time"`
	Notes            string     `json:"notes,omitempty"`
	Waypoints        []Waypoint `json:"waypoints"`
}

type TransitionFlightPlanRequest struct {
	FlightID     int64  `json:"flight_plan_id"`
	TargetStatus string `json:"target_status"`
	Reason       string `json:"reason,omitempty"`
}

type FlightPlanID struct {
	FlightID int64 `json:"flight_plan_id"`
}

type CancelFlightRequest struct {
	FlightID int64  `json:"flight_plan_id"`
	Reason   string `json:"reason,omitempty"`
}

type ListFlightPlansRequest struct {
	Statuses  []string `json:"statuses,omitempty"`
	DroneID   *int64   `json:"drone_id,omitempty"`
	PageSize  int32    `json:"page_size,omitempty"`
	PageToken string   `json:"page_token,omitempty"`
}

type ListFlightPlansResponse struct {
	FlightPlans   []FlightPlan `json:"flight_plans"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

type FlightHistory struct {
	FlightPlan FlightPlan        `json:"flight_plan"`
	Telemetry  []TelemetrySample `json:"telemetry"`
}

// AdminService

type CreateRestrictedZoneRequest struct {
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Geometry     string                `json:"geometry_type"`
	Definition   models.ZoneDefinition `json:"definition"`
	MinAltitudeM *float64              `json:"min_altitude_m,omitempty"`
	MaxAltitudeM *float64              `json:"max_altitude_m,omitempty"`
}

type UpdateRestrictedZoneRequest struct {
	ZoneID       int64    `json:"zone_id"`
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	MinAltitudeM *float64 `json:"min_altitude_m,omitempty"`
	MaxAltitudeM *float64 `json:"max_altitude_m,omitempty"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

type ZoneID struct {
	ZoneID int64 `json:"zone_id"`
}

type ListRestrictedZonesRequest struct {
	ActiveOnly bool `json:"active_only,omitempty"`
}

type ListRestrictedZonesResponse struct {
	Zones []RestrictedZone `json:"zones"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type CreateUserRequest struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name,omitempty"`
	Role           string `json:"role"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
}

type SetUserActiveRequest struct {
	UserID   int64 `json:"user_id"`
	IsActive bool  `json:"is_active"`
}

type RegisterDroneRequest struct {
	Brand          string `json:"brand,omitempty"`
	Model          string `json:"model,omitempty"`
	SerialNumber   string `json:"serial_number"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	SoloOwnerID    *int64 `json:"solo_owner_user_id,omitempty"`
}

type PilotAssignment struct {
	DroneID int64 `json:"drone_id"`
	PilotID int64 `json:"pilot_user_id"`
}

type AssignmentResponse struct {
	Changed bool `json:"changed"`
}

type ListDronesRequest struct {
	Status         string `json:"status,omitempty"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	SoloOwnerID    *int64 `json:"solo_owner_user_id,omitempty"`
	SerialContains string `json:"serial_contains,omitempty"`
	PageSize       int32  `json:"page_size,omitempty"`
	PageToken      string `json:"page_token,omitempty"`
}

type ListDronesResponse struct {
	Drones        []Drone `json:"drones"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

type SetDroneStatusRequest struct {
	DroneID int64  `json:"drone_id"`
	Status  string `json:"status"`
}

type DroneID struct {
	DroneID int64 `json:"drone_id"`
}

// TelemetryService

type SubscribeRequest struct {
	FlightID int64 `json:"flight_plan_id,omitempty"` // 0 streams every flight
}

func toFlightPlan(fp *models.FlightPlan) FlightPlan {
	out := FlightPlan{
		ID:                  fp.ID,
		SubmitterID:         fp.SubmitterID,
		DroneID:             fp.DroneID,
		OrganizationID:      fp.OrganizationID,
		Status:              string(fp.Status),
		PlannedDeparture:    fp.PlannedDeparture,
		PlannedArrival:      fp.PlannedArrival,
		ActualDeparture:     fp.ActualDeparture,
		ActualArrival:       fp.ActualArrival,
		Notes:               fp.Notes,
		RejectionReason:     fp.RejectionReason,
		OrgApproverID:       fp.OrgApproverID,
		AuthorityApproverID: fp.AuthorityApproverID,
		ApprovedAt:          fp.ApprovedAt,
		CreatedAt:           fp.CreatedAt,
		UpdatedAt:           fp.UpdatedAt,
	}
	for _, wp := range fp.Waypoints {
		out.Waypoints = append(out.Waypoints, Waypoint{Latitude: wp.Latitude, Longitude: wp.Longitude, AltitudeM: wp.AltitudeM, Sequence: wp.Sequence})
	}
	return out
}

func fromWaypoints(in []Waypoint) []models.Waypoint {
	out := make([]models.Waypoint, 0, len(in))
	for _, wp := range in {
		out = append(out, models.Waypoint{Latitude: wp.Latitude, Longitude: wp.Longitude, AltitudeM: wp.AltitudeM, Sequence: wp.Sequence})
	}
	return out
}

func toTelemetry(t *models.TelemetrySample) TelemetrySample {
	return TelemetrySample{
		ID:         t.ID,
		DroneID:    t.DroneID,
		Timestamp:  t.Timestamp,
		Latitude:   t.Latitude,
		Longitude:  t.Longitude,
		AltitudeM:  t.AltitudeM,
		SpeedMPS:   t.SpeedMPS,
		HeadingDeg: t.HeadingDeg,
		Status:     t.Status,
	}
}

func toZone(z *models.RestrictedZone) RestrictedZone {
	return RestrictedZone{
		ID:           z.ID,
		Name:         z.Name,
		Description:  z.Description,
		Geometry:     string(z.Geometry),
		Definition:   z.Definition,
		MinAltitudeM: z.MinAltitudeM,
		MaxAltitudeM: z.MaxAltitudeM,
		IsActive:     z.IsActive,
		CreatedBy:    z.CreatedBy,
	}
}

func toUser(u *models.User) User {
	return User{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: string(u.Role), OrganizationID: u.OrganizationID, IsActive: u.IsActive}
}

func toDrone(d *models.Drone) Drone {
	return Drone{
		ID:             d.ID,
		Brand:          d.Brand,
		Model:          d.Model,
		SerialNumber:   d.SerialNumber,
		OrganizationID: d.OrganizationID,
		SoloOwnerID:    d.SoloOwnerID,
		Status:         string(d.Status),
		LastSeenAt:     d.LastSeenAt,
	}
}
