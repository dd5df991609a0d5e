package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/lifecycle"
	"droneFlightAuthority/models"
)

// FlightServer implements utm.v1.FlightService on top of the lifecycle.
// Role checks live in the lifecycle; this layer only resolves the caller.
type FlightServer struct {
	Users   auth.UserLookup
	Flights *lifecycle.Service
}

var _ FlightServiceServer = (*FlightServer)(nil)

func (s *FlightServer) SubmitFlightPlan(ctx context.Context, req *SubmitFlightPlanRequest) (*FlightPlan, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	fp, err := s.Flights.Submit(ctx, actor, lifecycle.SubmitInput{
		DroneID:          req.DroneID,
		PlannedDeparture: req.PlannedDeparture,
		PlannedArrival:   req.PlannedArrival,
		Notes:            strings.TrimSpace(req.Notes),
		Waypoints:        fromWaypoints(req.Waypoints),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	out := toFlightPlan(fp)
	return &out, nil
}

func (s *FlightServer) TransitionFlightPlan(ctx context.Context, req *TransitionFlightPlanRequest) (*FlightPlan, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	to := models.FlightPlanStatus(strings.ToUpper(strings.TrimSpace(req.TargetStatus)))
	fp, err := s.Flights.Transition(ctx, actor, req.FlightID, to, req.Reason)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toFlightPlan(fp)
	return &out, nil
}

func (s *FlightServer) StartFlight(ctx context.Context, req *FlightPlanID) (*FlightPlan, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	fp, err := s.Flights.Start(ctx, actor, req.FlightID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toFlightPlan(fp)
	return &out, nil
}

func (s *FlightServer) CancelFlight(ctx context.Context, req *CancelFlightRequest) (*FlightPlan, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	fp, err := s.Flights.Cancel(ctx, actor, req.FlightID, req.Reason)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toFlightPlan(fp)
	return &out, nil
}

func (s *FlightServer) GetFlightPlan(ctx context.Context, req *FlightPlanID) (*FlightPlan, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	fp, err := s.Flights.Get(ctx, actor, req.FlightID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toFlightPlan(fp)
	return &out, nil
}

// ListFlightPlans lists visible plans, newest first, with cursor pagination.
func (s *FlightServer) ListFlightPlans(ctx context.Context, req *ListFlightPlansRequest) (*ListFlightPlansResponse, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	afterID, err := decodeCursor(req.PageToken)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
	}
	size := pageSize(req.PageSize)
	var statuses []models.FlightPlanStatus
	for _, st := range req.Statuses {
		statuses = append(statuses, models.FlightPlanStatus(strings.ToUpper(strings.TrimSpace(st))))
	}

	list, err := s.Flights.List(ctx, actor, lifecycle.ListParams{
		Statuses: statuses,
		DroneID:  req.DroneID,
		PageSize: size,
		AfterID:  afterID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListFlightPlansResponse{FlightPlans: make([]FlightPlan, 0, len(list))}
	for i := range list {
		resp.FlightPlans = append(resp.FlightPlans, toFlightPlan(&list[i]))
	}
	if len(list) == size {
		resp.NextPageToken = encodeCursor(list[len(list)-1].ID)
	}
	return resp, nil
}

func (s *FlightServer) GetFlightHistory(ctx context.Context, req *FlightPlanID) (*FlightHistory, error) {
	actor, err := auth.ResolveActor(ctx, s.Users)
	if err != nil {
		return nil, err
	}
	h, err := s.Flights.History(ctx, actor, req.FlightID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &FlightHistory{FlightPlan: toFlightPlan(h.Plan), Telemetry: make([]TelemetrySample, 0, len(h.Telemetry))}
	for i := range h.Telemetry {
		out.Telemetry = append(out.Telemetry, toTelemetry(&h.Telemetry[i]))
	}
	return out, nil
}
