package grpcserver

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/broadcast"
)

// TelemetryServer implements utm.v1.TelemetryService.
type TelemetryServer struct {
	Users auth.UserLookup
	Bus   *broadcast.Broadcaster
}

var _ TelemetryServiceServer = (*TelemetryServer)(nil)

// Subscribe streams live events until the client goes away, the
// subscription is dropped for falling behind, or the broadcaster closes.
func (s *TelemetryServer) Subscribe(req *SubscribeRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()
	if _, err := auth.ResolveActor(ctx, s.Users); err != nil {
		return err
	}
	sub := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				if s.Bus.Closed() {
					return status.Error(codes.Unavailable, "server is shutting down")
				}
				return status.Error(codes.ResourceExhausted, "subscriber fell behind and was dropped")
			}
			if req.FlightID != 0 && ev.FlightID != req.FlightID {
				continue
			}
			if err := stream.SendMsg(&ev); err != nil {
				return err
			}
		}
	}
}
