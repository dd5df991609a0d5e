package models

import "time"

// Status annotations written on telemetry samples and status events.
const (
	TelemetryOnSchedule  = "ON_SCHEDULE"
	TelemetryAlertNFZ    = "ALERT_NFZ"
	TelemetryInterrupted = "FLIGHT_INTERRUPTED"
	TelemetryCompleted   = "FLIGHT_COMPLETED"
	TelemetryFault       = "SIMULATION_FAULT"
)

// TelemetrySample is one simulated observation. FlightPlanID becomes nil if
// the flight plan row is removed.
type TelemetrySample struct {
	ID           int64     `db:"id" json:"id"`
	FlightPlanID *int64    `db:"flight_plan_id" json:"flight_plan_id,omitempty"`
	DroneID      int64     `db:"drone_id" json:"drone_id"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	AltitudeM    float64   `db:"altitude_m" json:"altitude_m"`
	SpeedMPS     *float64  `db:"speed_mps" json:"speed_mps,omitempty"`
	HeadingDeg   *float64  `db:"heading_degrees" json:"heading_degrees,omitempty"`
	Status       string    `db:"status_message" json:"status_message"`
}
