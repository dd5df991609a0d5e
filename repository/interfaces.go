package repository

import (
	"context"
	"time"

	"droneFlightAuthority/models"
)

// UserRepositoryI defines operations on User entities.
type UserRepositoryI interface {
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// FlightPlanRepositoryI defines operations on FlightPlan entities.
type FlightPlanRepositoryI interface {
	CreateWithWaypoints(ctx context.Context, fp *models.FlightPlan) (*models.FlightPlan, error)
	GetByID(ctx context.Context, id int64) (*models.FlightPlan, error)
	UpdateState(ctx context.Context, fp *models.FlightPlan, from models.FlightPlanStatus) (bool, error)
	List(ctx context.Context, p ListFlightPlansParams) ([]models.FlightPlan, error)
}

// DroneRepositoryI defines operations on Drone entities.
type DroneRepositoryI interface {
	Create(ctx context.Context, d *models.Drone) (*models.Drone, error)
	GetByID(ctx context.Context, id int64) (*models.Drone, error)
	GetBySerial(ctx context.Context, serial string) (*models.Drone, error)
	UpdateStatus(ctx context.Context, id int64, status models.DroneStatus) error
	RecordTelemetry(ctx context.Context, id, sampleID int64, seenAt time.Time) error
}

// ZoneRepositoryI defines operations on RestrictedZone entities.
type ZoneRepositoryI interface {
	Create(ctx context.Context, z *models.RestrictedZone) (*models.RestrictedZone, error)
	GetByID(ctx context.Context, id int64) (*models.RestrictedZone, error)
	ListActive(ctx context.Context) ([]models.RestrictedZone, error)
	Update(ctx context.Context, z *models.RestrictedZone) error
}

// TelemetryRepositoryI defines operations on TelemetrySample entities.
type TelemetryRepositoryI interface {
	Create(ctx context.Context, t *models.TelemetrySample) (*models.TelemetrySample, error)
	ListByFlight(ctx context.Context, flightPlanID int64) ([]models.TelemetrySample, error)
}

var (
	_ UserRepositoryI       = (*UserRepository)(nil)
	_ FlightPlanRepositoryI = (*FlightPlanRepository)(nil)
	_ DroneRepositoryI      = (*DroneRepository)(nil)
	_ ZoneRepositoryI       = (*ZoneRepository)(nil)
	_ TelemetryRepositoryI  = (*TelemetryRepository)(nil)
)
