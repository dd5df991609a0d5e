// Package lifecycle implements the flight plan approval state machine and
// ties its start and cancel transitions to the simulation engine.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/db"
	"droneFlightAuthority/internal/geo"
	"droneFlightAuthority/internal/geofence"
	"droneFlightAuthority/internal/simulation"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

// Simulator runs flight simulations.
type Simulator interface {
	Start(ctx context.Context, fp *models.FlightPlan) (*simulation.Task, error)
	Stop(flightID int64) bool
}

// ZoneSource provides the currently active restricted zones.
type ZoneSource interface {
	Active(ctx context.Context) ([]models.RestrictedZone, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	DB        *sql.DB
	Zones     ZoneSource
	Simulator Simulator
	Logger    *slog.Logger
}

// Service is the flight plan lifecycle.
type Service struct {
	db          *sql.DB
	flights     *repository.FlightPlanRepository
	drones      *repository.DroneRepository
	assignments *repository.AssignmentRepository
	telemetry   *repository.TelemetryRepository
	zones       ZoneSource
	sim         Simulator
	log         *slog.Logger
	locks       *keyedMutex
	now         func() time.Time
}

// NewService creates a Service backed by deps.DB.
func NewService(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:          deps.DB,
		flights:     repository.NewFlightPlanRepository(deps.DB),
		drones:      repository.NewDroneRepository(deps.DB),
		assignments: repository.NewAssignmentRepository(deps.DB),
		telemetry:   repository.NewTelemetryRepository(deps.DB),
		zones:       deps.Zones,
		sim:         deps.Simulator,
		log:         log.With("component", "lifecycle"),
		locks:       newKeyedMutex(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput is a new flight plan proposed by a pilot.
type SubmitInput struct {
	DroneID          int64
	PlannedDeparture time.Time
	PlannedArrival   time.Time
	Notes            string
	Waypoints        []models.Waypoint
}

// Submit validates and stores a new flight plan. Paths crossing an active
// restricted zone are refused.
func (s *Service) Submit(ctx context.Context, actor *models.User, in SubmitInput) (*models.FlightPlan, error) {
	if actor == nil || !actor.IsActive {
		return nil, apperr.Forbidden("inactive_actor", "an active user is required")
	}
	if !actor.Role.IsPilot() {
		return nil, apperr.Forbidden("role", "role %s cannot submit flight plans", actor.Role)
	}
	if err := validateWaypoints(in.Waypoints); err != nil {
		return nil, err
	}
	if in.PlannedDeparture.IsZero() || in.PlannedArrival.IsZero() {
		return nil, apperr.Validation("schedule_required", "planned departure and arrival are required")
	}
	if !in.PlannedArrival.After(in.PlannedDeparture) {
		return nil, apperr.Validation("schedule_order", "planned arrival must be after planned departure")
	}

	drone, err := s.drones.GetByID(ctx, in.DroneID)
	if err != nil {
		return nil, fmt.Errorf("get drone: %w", err)
	}
	if drone == nil {
		return nil, apperr.NotFound("drone", in.DroneID)
	}

	var initial models.FlightPlanStatus
	var orgID *int64
	switch actor.Role {
	case models.RoleSoloPilot:
		if drone.SoloOwnerID == nil || *drone.SoloOwnerID != actor.ID {
			return nil, apperr.Forbidden("drone_ownership", "drone %d is not owned by you", drone.ID)
		}
		initial = models.FlightPendingAuthorityApproval
	case models.RoleOrganizationPilot:
		if !actor.InOrganization(drone.OrganizationID) {
			return nil, apperr.Forbidden("organization_mismatch", "drone %d does not belong to your organization", drone.ID)
		}
		assigned, err := s.assignments.Exists(ctx, actor.ID, drone.ID)
		if err != nil {
			return nil, fmt.Errorf("check assignment: %w", err)
		}
		if !assigned {
			return nil, apperr.Forbidden("drone_assignment", "drone %d is not assigned to you", drone.ID)
		}
		initial = models.FlightPendingOrgApproval
		orgID = drone.OrganizationID
	}

	zones, err := s.zones.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active zones: %w", err)
	}
	if names := geofence.CheckPath(in.Waypoints, zones); len(names) > 0 {
		s.log.Info("submission blocked by geofence", "user_id", actor.ID, "drone_id", drone.ID, "zones", names)
		return nil, apperr.GeofenceViolation(names)
	}

	created, err := s.flights.CreateWithWaypoints(ctx, &models.FlightPlan{
		SubmitterID:      actor.ID,
		DroneID:          drone.ID,
		OrganizationID:   orgID,
		PlannedDeparture: in.PlannedDeparture,
		PlannedArrival:   in.PlannedArrival,
		Status:           initial,
		Notes:            in.Notes,
		Waypoints:        in.Waypoints,
	})
	if err != nil {
		return nil, fmt.Errorf("create flight plan: %w", err)
	}
	s.log.Info("flight plan submitted", "flight_id", created.ID, "user_id", actor.ID, "drone_id", drone.ID, "status", created.Status)
	return created, nil
}

func validateWaypoints(wps []models.Waypoint) error {
	if len(wps) == 0 {
		return apperr.Validation("waypoints_required", "at least one waypoint is required")
	}
	seen := make(map[int]struct{}, len(wps))
	for i, wp := range wps {
		if _, dup := seen[wp.Sequence]; dup {
			return apperr.Validation("waypoint_sequence_duplicate", "waypoint sequence %d appears more than once", wp.Sequence)
		}
		seen[wp.Sequence] = struct{}{}
		if wp.Sequence != i {
			return apperr.Validation("waypoint_sequence", "waypoint %d has sequence %d; sequences must run 0..%d in order", i, wp.Sequence, len(wps)-1)
		}
		if !geo.ValidLatLon(wp.Latitude, wp.Longitude) {
			return apperr.Validation("waypoint_coordinates", "waypoint %d coordinates (%v, %v) are out of range", i, wp.Latitude, wp.Longitude)
		}
		if wp.AltitudeM < 0 || math.IsNaN(wp.AltitudeM) || math.IsInf(wp.AltitudeM, 0) {
			return apperr.Validation("waypoint_altitude", "waypoint %d altitude must be zero or more", i)
		}
	}
	return nil
}

// Transition applies an approval or rejection decision.
func (s *Service) Transition(ctx context.Context, actor *models.User, flightID int64, to models.FlightPlanStatus, reason string) (*models.FlightPlan, error) {
	if !to.Valid() {
		return nil, apperr.Validation("target_state", "unknown flight plan state %q", to)
	}
	return s.apply(ctx, actor, flightID, opReview, to, reason)
}

// Start moves an approved flight to ACTIVE and launches its simulation.
func (s *Service) Start(ctx context.Context, actor *models.User, flightID int64) (*models.FlightPlan, error) {
	return s.apply(ctx, actor, flightID, opStart, models.FlightActive, "")
}

// Cancel cancels a flight. Pilots cancel as pilots; admins as admins.
func (s *Service) Cancel(ctx context.Context, actor *models.User, flightID int64, reason string) (*models.FlightPlan, error) {
	to := models.FlightCancelledByAdmin
	if actor != nil && actor.Role.IsPilot() {
		to = models.FlightCancelledByPilot
	}
	return s.apply(ctx, actor, flightID, opCancel, to, reason)
}

// Complete marks a finished ACTIVE flight COMPLETED. The simulation engine
// calls it when a task runs through all waypoints.
func (s *Service) Complete(ctx context.Context, flightID int64) error {
	_, err := s.apply(ctx, systemActor, flightID, opComplete, models.FlightCompleted, "")
	return err
}

func (s *Service) apply(ctx context.Context, actor *models.User, flightID int64, op operation, to models.FlightPlanStatus, reason string) (*models.FlightPlan, error) {
	unlock := s.locks.Lock(flightID)
	defer unlock()

	fp, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("get flight plan: %w", err)
	}
	if fp == nil {
		return nil, apperr.NotFound("flight plan", flightID)
	}
	r, err := authorize(actor, fp, op, to, reason)
	if err != nil {
		return nil, err
	}

	from := fp.Status
	next := *fp
	s.applyEffect(&next, actor, r, reason)

	switch {
	case r.effect == effectStart:
		err = s.startFlight(ctx, &next)
	case r.effect == effectCancel && from == models.FlightActive:
		err = s.cancelActive(ctx, &next)
	default:
		err = s.commit(ctx, s.flights, &next, from)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("flight plan transition", "flight_id", fp.ID, "from", from, "to", next.Status, "op", op.String(), "actor_id", actor.ID)
	return &next, nil
}

func (s *Service) applyEffect(fp *models.FlightPlan, actor *models.User, r rule, reason string) {
	now := s.now()
	fp.Status = r.to
	switch r.effect {
	case effectOrgApproval:
		id := actor.ID
		fp.OrgApproverID = &id
		fp.RejectionReason = nil
	case effectApprove:
		id := actor.ID
		fp.AuthorityApproverID = &id
		fp.ApprovedAt = &now
		fp.RejectionReason = nil
	case effectReject:
		why := strings.TrimSpace(reason)
		fp.RejectionReason = &why
		fp.ApprovedAt = nil
		fp.OrgApproverID = nil
		fp.AuthorityApproverID = nil
	case effectStart:
		fp.ActualDeparture = &now
	case effectCancel:
		if why := strings.TrimSpace(reason); why != "" {
			if fp.Notes != "" {
				fp.Notes += "\n"
			}
			fp.Notes += "Cancellation reason: " + why
		}
	case effectComplete:
		fp.ActualArrival = &now
	}
}

// commit writes next if the stored row is still in state from.
func (s *Service) commit(ctx context.Context, flights *repository.FlightPlanRepository, next *models.FlightPlan, from models.FlightPlanStatus) error {
	ok, err := flights.UpdateState(ctx, next, from)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("flight plan %d changed concurrently; it is no longer %s", next.ID, from)
	}
	return nil
}

func (s *Service) startFlight(ctx context.Context, next *models.FlightPlan) error {
	drone, err := s.drones.GetByID(ctx, next.DroneID)
	if err != nil {
		return fmt.Errorf("get drone: %w", err)
	}
	if drone == nil {
		return apperr.NotFound("drone", next.DroneID)
	}
	if drone.Status == models.DroneStatusActive || drone.Status == models.DroneStatusMaintenance {
		return apperr.InvalidState("drone %d is %s and cannot start a flight", drone.ID, drone.Status)
	}
	if err := s.commit(ctx, s.flights, next, models.FlightApproved); err != nil {
		return err
	}
	if _, err := s.sim.Start(ctx, next); err != nil {
		s.sim.Stop(next.ID)
		revert := *next
		revert.Status = models.FlightApproved
		revert.ActualDeparture = nil
		if _, rerr := s.flights.UpdateState(ctx, &revert, models.FlightActive); rerr != nil {
			s.log.Error("revert failed start", "flight_id", next.ID, "error", rerr)
		}
		return fmt.Errorf("start simulation: %w", err)
	}
	return nil
}

// cancelActive commits the cancellation and the drone reset as one unit, then
// signals the running simulation.
func (s *Service) cancelActive(ctx context.Context, next *models.FlightPlan) error {
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.commit(ctx, s.flights.WithTx(tx), next, models.FlightActive); err != nil {
			return err
		}
		return s.drones.WithTx(tx).UpdateStatus(ctx, next.DroneID, models.DroneStatusIdle)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("cancel active flight: %w", err)
	}
	s.sim.Stop(next.ID)
	return nil
}
