package lifecycle

import (
	"context"
	"fmt"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

// canView reports whether actor may read fp.
func canView(actor *models.User, fp *models.FlightPlan) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	switch actor.Role {
	case models.RoleAuthorityAdmin:
		return true
	case models.RoleOrganizationAdmin:
		return actor.InOrganization(fp.OrganizationID)
	}
	return fp.SubmitterID == actor.ID
}

// Get returns a flight plan the actor may see.
func (s *Service) Get(ctx context.Context, actor *models.User, flightID int64) (*models.FlightPlan, error) {
	fp, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("get flight plan: %w", err)
	}
	if fp == nil {
		return nil, apperr.NotFound("flight plan", flightID)
	}
	if !canView(actor, fp) {
		return nil, apperr.Forbidden("not_visible", "you may not view flight plan %d", flightID)
	}
	return fp, nil
}

// ListParams filters a flight plan listing.
type ListParams struct {
	Statuses []models.FlightPlanStatus
	DroneID  *int64
	PageSize int
	AfterID  int64
}

// List returns the flight plans visible to actor, newest first. Authority
// admins see all plans, organization admins their organization's and pilots
// their own.
func (s *Service) List(ctx context.Context, actor *models.User, p ListParams) ([]models.FlightPlan, error) {
	if actor == nil || !actor.IsActive {
		return nil, apperr.Forbidden("inactive_actor", "an active user is required")
	}
	for _, st := range p.Statuses {
		if !st.Valid() {
			return nil, apperr.Validation("status_filter", "unknown flight plan state %q", st)
		}
	}
	q := repository.ListFlightPlansParams{Statuses: p.Statuses, DroneID: p.DroneID, PageSize: p.PageSize, AfterID: p.AfterID}
	switch actor.Role {
	case models.RoleAuthorityAdmin:
	case models.RoleOrganizationAdmin:
		if actor.OrganizationID == nil {
			return nil, apperr.Forbidden("organization_required", "organization admin %d has no organization", actor.ID)
		}
		q.OrganizationID = actor.OrganizationID
	default:
		id := actor.ID
		q.SubmitterID = &id
	}
	out, err := s.flights.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list flight plans: %w", err)
	}
	return out, nil
}

// History is a flight plan with everything its simulation recorded.
type History struct {
	Plan      *models.FlightPlan
	Telemetry []models.TelemetrySample
}

// History returns the plan, its waypoints and its telemetry samples.
func (s *Service) History(ctx context.Context, actor *models.User, flightID int64) (*History, error) {
	fp, err := s.Get(ctx, actor, flightID)
	if err != nil {
		return nil, err
	}
	samples, err := s.telemetry.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("list telemetry: %w", err)
	}
	return &History{Plan: fp, Telemetry: samples}, nil
}

// ActiveFlight is a flight currently in the air with its drone.
type ActiveFlight struct {
	Plan  models.FlightPlan
	Drone *models.Drone
}

// ActiveFlights lists ACTIVE flights and their drones for public display.
func (s *Service) ActiveFlights(ctx context.Context) ([]ActiveFlight, error) {
	plans, err := s.flights.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active flights: %w", err)
	}
	out := make([]ActiveFlight, 0, len(plans))
	for _, fp := range plans {
		d, err := s.drones.GetByID(ctx, fp.DroneID)
		if err != nil {
			return nil, fmt.Errorf("get drone %d: %w", fp.DroneID, err)
		}
		out = append(out, ActiveFlight{Plan: fp, Drone: d})
	}
	return out, nil
}
