package grpcserver

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/geofence"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

// ZoneInvalidator drops cached zone lists after a zone write.
type ZoneInvalidator interface {
	Invalidate()
}

// AdminServer implements utm.v1.AdminService.
type AdminServer struct {
	Users       *repository.UserRepository
	Orgs        *repository.OrganizationRepository
	Drones      *repository.DroneRepository
	Assignments *repository.AssignmentRepository
	Zones       *repository.ZoneRepository
	ZoneCache   ZoneInvalidator
	Log         *slog.Logger
}

var _ AdminServiceServer = (*AdminServer)(nil)

func (s *AdminServer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *AdminServer) invalidateZones() {
	if s.ZoneCache != nil {
		s.ZoneCache.Invalidate()
	}
}

func (s *AdminServer) requireAuthority(ctx context.Context) (*models.User, error) {
	return auth.RequireRole(ctx, s.Users, models.RoleAuthorityAdmin)
}

func (s *AdminServer) requireAdmin(ctx context.Context) (*models.User, error) {
	return auth.RequireRole(ctx, s.Users, models.RoleAuthorityAdmin, models.RoleOrganizationAdmin)
}

func (s *AdminServer) CreateRestrictedZone(ctx context.Context, req *CreateRestrictedZoneRequest) (*RestrictedZone, error) {
	actor, err := s.requireAuthority(ctx)
	if err != nil {
		return nil, err
	}
	z := &models.RestrictedZone{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Geometry:     models.GeometryKind(strings.ToUpper(req.Geometry)),
		Definition:   req.Definition,
		MinAltitudeM: req.MinAltitudeM,
		MaxAltitudeM: req.MaxAltitudeM,
		IsActive:     true,
		CreatedBy:    actor.ID,
	}
	if err := geofence.ValidateZone(z); err != nil {
		return nil, toStatus(err)
	}
	created, err := s.Zones.Create(ctx, z)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create zone: %v", err)
	}
	s.invalidateZones()
	s.logger().Info("restricted zone created", "zone_id", created.ID, "name", created.Name, "actor_id", actor.ID)
	out := toZone(created)
	return &out, nil
}

// UpdateRestrictedZone changes the descriptive fields, the altitude band or
// the active flag. Geometry is immutable; replace the zone to move it.
func (s *AdminServer) UpdateRestrictedZone(ctx context.Context, req *UpdateRestrictedZoneRequest) (*RestrictedZone, error) {
	actor, err := s.requireAuthority(ctx)
	if err != nil {
		return nil, err
	}
	z, err := s.Zones.GetByID(ctx, req.ZoneID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get zone: %v", err)
	}
	if z == nil {
		return nil, toStatus(apperr.NotFound("restricted zone", req.ZoneID))
	}
	if req.Name != nil {
		z.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		z.Description = *req.Description
	}
	if req.MinAltitudeM != nil {
		z.MinAltitudeM = req.MinAltitudeM
	}
	if req.MaxAltitudeM != nil {
		z.MaxAltitudeM = req.MaxAltitudeM
	}
	if req.IsActive != nil {
		z.IsActive = *req.IsActive
	}
	if err := geofence.ValidateZone(z); err != nil {
		return nil, toStatus(err)
	}
	if err := s.Zones.Update(ctx, z); err != nil {
		return nil, status.Errorf(codes.Internal, "update zone: %v", err)
	}
	s.invalidateZones()
	s.logger().Info("restricted zone updated", "zone_id", z.ID, "active", z.IsActive, "actor_id", actor.ID)
	out := toZone(z)
	return &out, nil
}

func (s *AdminServer) DeleteRestrictedZone(ctx context.Context, req *ZoneID) (*Empty, error) {
	actor, err := s.requireAuthority(ctx)
	if err != nil {
		return nil, err
	}
	z, err := s.Zones.GetByID(ctx, req.ZoneID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get zone: %v", err)
	}
	if z == nil {
		return nil, toStatus(apperr.NotFound("restricted zone", req.ZoneID))
	}
	if err := s.Zones.SoftDelete(ctx, z.ID); err != nil {
		return nil, status.Errorf(codes.Internal, "delete zone: %v", err)
	}
	s.invalidateZones()
	s.logger().Info("restricted zone deleted", "zone_id", z.ID, "actor_id", actor.ID)
	return &Empty{}, nil
}

func (s *AdminServer) ListRestrictedZones(ctx context.Context, req *ListRestrictedZonesRequest) (*ListRestrictedZonesResponse, error) {
	if _, err := s.requireAuthority(ctx); err != nil {
		return nil, err
	}
	var active *bool
	if req.ActiveOnly {
		t := true
		active = &t
	}
	zones, err := s.Zones.List(ctx, active)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list zones: %v", err)
	}
	resp := &ListRestrictedZonesResponse{Zones: make([]RestrictedZone, 0, len(zones))}
	for i := range zones {
		resp.Zones = append(resp.Zones, toZone(&zones[i]))
	}
	return resp, nil
}

func (s *AdminServer) CreateOrganization(ctx context.Context, req *CreateOrganizationRequest) (*Organization, error) {
	if _, err := s.requireAuthority(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "organization name is required")
	}
	org, err := s.Orgs.Create(ctx, name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create organization: %v", err)
	}
	return &Organization{ID: org.ID, Name: org.Name}, nil
}

// CreateUser registers a user. Organization roles need an existing
// organization; the other roles must not name one.
func (s *AdminServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if _, err := s.requireAuthority(ctx); err != nil {
		return nil, err
	}
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", req.Role)
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is required")
	}
	inOrg := role == models.RoleOrganizationAdmin || role == models.RoleOrganizationPilot
	switch {
	case inOrg && req.OrganizationID == nil:
		return nil, status.Errorf(codes.InvalidArgument, "role %s requires organization_id", role)
	case !inOrg && req.OrganizationID != nil:
		return nil, status.Errorf(codes.InvalidArgument, "role %s cannot belong to an organization", role)
	}
	if inOrg {
		org, err := s.Orgs.GetByID(ctx, *req.OrganizationID)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get organization: %v", err)
		}
		if org == nil {
			return nil, toStatus(apperr.NotFound("organization", *req.OrganizationID))
		}
	}
	existing, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if existing != nil {
		return nil, status.Errorf(codes.AlreadyExists, "username %q is taken", username)
	}
	u, err := s.Users.Create(ctx, &models.User{Username: username, FullName: req.FullName, Role: role, OrganizationID: req.OrganizationID})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create user: %v", err)
	}
	out := toUser(u)
	return &out, nil
}

// SetUserActive enables or disables an account. Organization admins manage
// users of their own organization only, and nobody changes their own flag.
func (s *AdminServer) SetUserActive(ctx context.Context, req *SetUserActiveRequest) (*User, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == actor.ID {
		return nil, status.Error(codes.InvalidArgument, "cannot change your own active flag")
	}
	u, err := s.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get user: %v", err)
	}
	if u == nil {
		return nil, toStatus(apperr.NotFound("user", req.UserID))
	}
	if actor.Role == models.RoleOrganizationAdmin && !u.InOrganization(actor.OrganizationID) {
		return nil, toStatus(apperr.Forbidden("organization_mismatch", "user %d does not belong to your organization", u.ID))
	}
	if u.IsActive != req.IsActive {
		if err := s.Users.SetActive(ctx, u.ID, req.IsActive); err != nil {
			return nil, status.Errorf(codes.Internal, "update user: %v", err)
		}
		u.IsActive = req.IsActive
		s.logger().Info("user active flag set", "user_id", u.ID, "active", u.IsActive, "actor_id", actor.ID)
	}
	out := toUser(u)
	return &out, nil
}

// scopeDrone loads a drone and checks that actor administers it.
func (s *AdminServer) scopeDrone(ctx context.Context, actor *models.User, droneID int64) (*models.Drone, error) {
	d, err := s.Drones.GetByID(ctx, droneID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get drone: %v", err)
	}
	if d == nil {
		return nil, toStatus(apperr.NotFound("drone", droneID))
	}
	if actor.Role == models.RoleOrganizationAdmin && !actor.InOrganization(d.OrganizationID) {
		return nil, toStatus(apperr.Forbidden("organization_mismatch", "drone %d does not belong to your organization", droneID))
	}
	return d, nil
}

// RegisterDrone creates a drone. Organization admins register drones for
// their own organization only; solo pilots register drones they own.
func (s *AdminServer) RegisterDrone(ctx context.Context, req *RegisterDroneRequest) (*Drone, error) {
	actor, err := auth.RequireRole(ctx, s.Users, models.RoleAuthorityAdmin, models.RoleOrganizationAdmin, models.RoleSoloPilot)
	if err != nil {
		return nil, err
	}
	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		return nil, status.Error(codes.InvalidArgument, "serial_number is required")
	}
	if actor.Role == models.RoleSoloPilot {
		if req.OrganizationID != nil || (req.SoloOwnerID != nil && *req.SoloOwnerID != actor.ID) {
			return nil, toStatus(apperr.Forbidden("solo_owner", "solo pilots register drones for themselves only"))
		}
		req.SoloOwnerID = &actor.ID
	}
	if (req.OrganizationID == nil) == (req.SoloOwnerID == nil) {
		return nil, status.Error(codes.InvalidArgument, "exactly one of organization_id and solo_owner_user_id is required")
	}
	if actor.Role == models.RoleOrganizationAdmin && !actor.InOrganization(req.OrganizationID) {
		return nil, toStatus(apperr.Forbidden("organization_mismatch", "organization admins register drones for their own organization"))
	}
	if req.SoloOwnerID != nil {
		owner, err := s.Users.GetByID(ctx, *req.SoloOwnerID)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get owner: %v", err)
		}
		if owner == nil || owner.Role != models.RoleSoloPilot {
			return nil, status.Errorf(codes.InvalidArgument, "user %d is not a solo pilot", *req.SoloOwnerID)
		}
	}
	if req.OrganizationID != nil {
		org, err := s.Orgs.GetByID(ctx, *req.OrganizationID)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get organization: %v", err)
		}
		if org == nil {
			return nil, toStatus(apperr.NotFound("organization", *req.OrganizationID))
		}
	}
	if dup, err := s.Drones.GetBySerial(ctx, serial); err != nil {
		return nil, status.Errorf(codes.Internal, "get drone: %v", err)
	} else if dup != nil {
		return nil, status.Errorf(codes.AlreadyExists, "serial number %q is already registered", serial)
	}

	d, err := s.Drones.Create(ctx, &models.Drone{
		Brand:          req.Brand,
		Model:          req.Model,
		SerialNumber:   serial,
		OrganizationID: req.OrganizationID,
		SoloOwnerID:    req.SoloOwnerID,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create drone: %v", err)
	}
	s.logger().Info("drone registered", "drone_id", d.ID, "serial", d.SerialNumber, "owner", d.OwnerType(), "actor_id", actor.ID)
	out := toDrone(d)
	return &out, nil
}

func (s *AdminServer) scopeAssignment(ctx context.Context, req *PilotAssignment) error {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	d, err := s.scopeDrone(ctx, actor, req.DroneID)
	if err != nil {
		return err
	}
	if d.OrganizationID == nil {
		return status.Errorf(codes.FailedPrecondition, "drone %d is solo owned and takes no assignments", d.ID)
	}
	pilot, err := s.Users.GetByID(ctx, req.PilotID)
	if err != nil {
		return status.Errorf(codes.Internal, "get pilot: %v", err)
	}
	if pilot == nil {
		return toStatus(apperr.NotFound("user", req.PilotID))
	}
	if pilot.Role != models.RoleOrganizationPilot || !pilot.InOrganization(d.OrganizationID) {
		return status.Errorf(codes.InvalidArgument, "user %d is not a pilot of the drone's organization", pilot.ID)
	}
	return nil
}

func (s *AdminServer) AssignPilot(ctx context.Context, req *PilotAssignment) (*AssignmentResponse, error) {
	if err := s.scopeAssignment(ctx, req); err != nil {
		return nil, err
	}
	had, err := s.Assignments.Exists(ctx, req.PilotID, req.DroneID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "check assignment: %v", err)
	}
	if err := s.Assignments.Assign(ctx, req.PilotID, req.DroneID); err != nil {
		return nil, status.Errorf(codes.Internal, "assign pilot: %v", err)
	}
	return &AssignmentResponse{Changed: !had}, nil
}

func (s *AdminServer) UnassignPilot(ctx context.Context, req *PilotAssignment) (*AssignmentResponse, error) {
	if err := s.scopeAssignment(ctx, req); err != nil {
		return nil, err
	}
	removed, err := s.Assignments.Unassign(ctx, req.PilotID, req.DroneID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "unassign pilot: %v", err)
	}
	return &AssignmentResponse{Changed: removed}, nil
}

// ListDrones lists drones by id with cursor pagination. Organization admins
// only see their organization's drones.
func (s *AdminServer) ListDrones(ctx context.Context, req *ListDronesRequest) (*ListDronesResponse, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	afterID, err := decodeCursor(req.PageToken)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid page_token: %v", err)
	}
	size := pageSize(req.PageSize)
	p := repository.ListDronesAdminParams{
		OrganizationID: req.OrganizationID,
		SoloOwnerID:    req.SoloOwnerID,
		PageSize:       size,
		AfterID:        afterID,
	}
	if st := strings.ToUpper(strings.TrimSpace(req.Status)); st != "" {
		ds := models.DroneStatus(st)
		p.Status = &ds
	}
	if sc := strings.TrimSpace(req.SerialContains); sc != "" {
		p.SerialContains = &sc
	}
	if actor.Role == models.RoleOrganizationAdmin {
		p.OrganizationID = actor.OrganizationID
		p.SoloOwnerID = nil
	}

	list, err := s.Drones.ListAdmin(ctx, p)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list drones: %v", err)
	}
	resp := &ListDronesResponse{Drones: make([]Drone, 0, len(list))}
	for i := range list {
		resp.Drones = append(resp.Drones, toDrone(&list[i]))
	}
	if len(list) == size {
		resp.NextPageToken = encodeCursor(list[len(list)-1].ID)
	}
	return resp, nil
}

// SetDroneStatus moves a drone in or out of maintenance. ACTIVE is owned by
// the simulation engine and can be neither set nor overridden here.
func (s *AdminServer) SetDroneStatus(ctx context.Context, req *SetDroneStatusRequest) (*Drone, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	target := models.DroneStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if target != models.DroneStatusMaintenance && target != models.DroneStatusIdle {
		return nil, status.Errorf(codes.InvalidArgument, "status must be %s or %s", models.DroneStatusMaintenance, models.DroneStatusIdle)
	}
	d, err := s.scopeDrone(ctx, actor, req.DroneID)
	if err != nil {
		return nil, err
	}
	if d.Status == models.DroneStatusActive {
		return nil, toStatus(apperr.InvalidState("drone %d is flying", d.ID))
	}
	if err := s.Drones.UpdateStatus(ctx, d.ID, target); err != nil {
		return nil, status.Errorf(codes.Internal, "update drone: %v", err)
	}
	d.Status = target
	s.logger().Info("drone status set", "drone_id", d.ID, "status", target, "actor_id", actor.ID)
	out := toDrone(d)
	return &out, nil
}

func (s *AdminServer) DeleteDrone(ctx context.Context, req *DroneID) (*Empty, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.scopeDrone(ctx, actor, req.DroneID)
	if err != nil {
		return nil, err
	}
	if d.Status == models.DroneStatusActive {
		return nil, toStatus(apperr.InvalidState("drone %d is flying", d.ID))
	}
	if err := s.Drones.SoftDelete(ctx, d.ID); err != nil {
		return nil, status.Errorf(codes.Internal, "delete drone: %v", err)
	}
	s.logger().Info("drone deleted", "drone_id", d.ID, "actor_id", actor.ID)
	return &Empty{}, nil
}
