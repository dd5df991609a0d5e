package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

const (
	FlightServiceName    = "utm.v1.FlightService"
	AdminServiceName     = "utm.v1.AdminService"
	TelemetryServiceName = "utm.v1.TelemetryService"
)

// FlightServiceServer is the server API for utm.v1.FlightService.
type FlightServiceServer interface {
	SubmitFlightPlan(context.Context, *SubmitFlightPlanRequest) (*FlightPlan, error)
	TransitionFlightPlan(context.Context, *TransitionFlightPlanRequest) (*FlightPlan, error)
	StartFlight(context.Context, *FlightPlanID) (*FlightPlan, error)
	CancelFlight(context.Context, *CancelFlightRequest) (*FlightPlan, error)
	GetFlightPlan(context.Context, *FlightPlanID) (*FlightPlan, error)
	ListFlightPlans(context.Context, *ListFlightPlansRequest) (*ListFlightPlansResponse, error)
	GetFlightHistory(context.Context, *FlightPlanID) (*FlightHistory, error)
}

// AdminServiceServer is the server API for utm.v1.AdminService.
type AdminServiceServer interface {
	CreateRestrictedZone(context.Context, *CreateRestrictedZoneRequest) (*RestrictedZone, error)
	UpdateRestrictedZone(context.Context, *UpdateRestrictedZoneRequest) (*RestrictedZone, error)
	DeleteRestrictedZone(context.Context, *ZoneID) (*Empty, error)
	ListRestrictedZones(context.Context, *ListRestrictedZonesRequest) (*ListRestrictedZonesResponse, error)
	CreateOrganization(context.Context, *CreateOrganizationRequest) (*Organization, error)
	CreateUser(context.Context, *CreateUserRequest) (*User, error)
	SetUserActive(context.Context, *SetUserActiveRequest) (*User, error)
	RegisterDrone(context.Context, *RegisterDroneRequest) (*Drone, error)
	AssignPilot(context.Context, *PilotAssignment) (*AssignmentResponse, error)
	UnassignPilot(context.Context, *PilotAssignment) (*AssignmentResponse, error)
	ListDrones(context.Context, *ListDronesRequest) (*ListDronesResponse, error)
	SetDroneStatus(context.Context, *SetDroneStatusRequest) (*Drone, error)
	DeleteDrone(context.Context, *DroneID) (*Empty, error)
}

// TelemetryServiceServer is the server API for utm.v1.TelemetryService.
type TelemetryServiceServer interface {
	Subscribe(*SubscribeRequest, grpc.ServerStream) error
}

// FullMethod returns the "/service/method" path of a call.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// unary adapts a typed method expression to a grpc.MethodDesc.
func unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := FullMethod(service, method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			})
		},
	}
}

var flightServiceDesc = grpc.ServiceDesc{
	ServiceName: FlightServiceName,
	HandlerType: (*FlightServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(FlightServiceName, "SubmitFlightPlan", FlightServiceServer.SubmitFlightPlan),
		unary(FlightServiceName, "TransitionFlightPlan", FlightServiceServer.TransitionFlightPlan),
		unary(FlightServiceName, "StartFlight", FlightServiceServer.StartFlight),
		unary(FlightServiceName, "CancelFlight", FlightServiceServer.CancelFlight),
		unary(FlightServiceName, "GetFlightPlan", FlightServiceServer.GetFlightPlan),
		unary(FlightServiceName, "ListFlightPlans", FlightServiceServer.ListFlightPlans),
		unary(FlightServiceName, "GetFlightHistory", FlightServiceServer.GetFlightHistory),
	},
	Metadata: "utm/v1/flight.json",
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AdminServiceName, "CreateRestrictedZone", AdminServiceServer.CreateRestrictedZone),
		unary(AdminServiceName, "UpdateRestrictedZone", AdminServiceServer.UpdateRestrictedZone),
		unary(AdminServiceName, "DeleteRestrictedZone", AdminServiceServer.DeleteRestrictedZone),
		unary(AdminServiceName, "ListRestrictedZones", AdminServiceServer.ListRestrictedZones),
		unary(AdminServiceName, "CreateOrganization", AdminServiceServer.CreateOrganization),
		unary(AdminServiceName, "CreateUser", AdminServiceServer.CreateUser),
		unary(AdminServiceName, "SetUserActive", AdminServiceServer.SetUserActive),
		unary(AdminServiceName, "RegisterDrone", AdminServiceServer.RegisterDrone),
		unary(AdminServiceName, "AssignPilot", AdminServiceServer.AssignPilot),
		unary(AdminServiceName, "UnassignPilot", AdminServiceServer.UnassignPilot),
		unary(AdminServiceName, "ListDrones", AdminServiceServer.ListDrones),
		unary(AdminServiceName, "SetDroneStatus", AdminServiceServer.SetDroneStatus),
		unary(AdminServiceName, "DeleteDrone", AdminServiceServer.DeleteDrone),
	},
	Metadata: "utm/v1/admin.json",
}

// SubscribeStreamDesc describes the TelemetryService.Subscribe server stream.
var SubscribeStreamDesc = grpc.StreamDesc{
	StreamName:    "Subscribe",
	ServerStreams: true,
	Handler: func(srv any, stream grpc.ServerStream) error {
		in := new(SubscribeRequest)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return srv.(TelemetryServiceServer).Subscribe(in, stream)
	},
}

var telemetryServiceDesc = grpc.ServiceDesc{
	ServiceName: TelemetryServiceName,
	HandlerType: (*TelemetryServiceServer)(nil),
	Streams:     []grpc.StreamDesc{SubscribeStreamDesc},
	Metadata:    "utm/v1/telemetry.json",
}

// RegisterFlightServiceServer registers srv on s.
func RegisterFlightServiceServer(s grpc.ServiceRegistrar, srv FlightServiceServer) {
	s.RegisterService(&flightServiceDesc, srv)
}

// RegisterAdminServiceServer registers srv on s.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&adminServiceDesc, srv)
}

// RegisterTelemetryServiceServer registers srv on s.
func RegisterTelemetryServiceServer(s grpc.ServiceRegistrar, srv TelemetryServiceServer) {
	s.RegisterService(&telemetryServiceDesc, srv)
}
