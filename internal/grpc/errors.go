package grpcserver

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/apperr"
)

// toStatus maps domain errors onto gRPC status codes. Errors that already
// carry a status pass through unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
	switch ae.Kind {
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, ae.Error())
	case apperr.KindForbidden:
		return status.Error(codes.PermissionDenied, ae.Error())
	case apperr.KindInvalidState, apperr.KindGeofence:
		return status.Error(codes.FailedPrecondition, ae.Error())
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, ae.Error())
	case apperr.KindConflict:
		return status.Error(codes.Aborted, ae.Error())
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}
