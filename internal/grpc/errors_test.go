package grpcserver

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/apperr"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{apperr.NotFound("drone", 1), codes.NotFound},
		{apperr.Forbidden("role", "no"), codes.PermissionDenied},
		{apperr.InvalidState("bad edge"), codes.FailedPrecondition},
		{apperr.GeofenceViolation([]string{"Airport"}), codes.FailedPrecondition},
		{apperr.Validation("field", "bad"), codes.InvalidArgument},
		{apperr.Conflict("raced"), codes.Aborted},
		{fmt.Errorf("wrapped: %w", apperr.Conflict("raced")), codes.Aborted},
		{errors.New("disk on fire"), codes.Internal},
		{status.Error(codes.Unauthenticated, "who"), codes.Unauthenticated},
	}
	for _, tc := range cases {
		if got := status.Code(toStatus(tc.err)); got != tc.want {
			t.Fatalf("toStatus(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
	if toStatus(nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	id, err := decodeCursor(encodeCursor(42))
	if err != nil || id != 42 {
		t.Fatalf("round trip: %d %v", id, err)
	}
	if id, err := decodeCursor(""); err != nil || id != 0 {
		t.Fatalf("empty token: %d %v", id, err)
	}
	if _, err := decodeCursor("bm90LWEtY3Vyc29y"); err == nil {
		t.Fatalf("expected malformed cursor error")
	}
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	b, err := c.Marshal(&FlightPlanID{FlightID: 7})
	if err != nil || string(b) != `{"flight_plan_id":7}` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var out FlightPlanID
	if err := c.Unmarshal(b, &out); err != nil || out.FlightID != 7 {
		t.Fatalf("unmarshal: %+v %v", out, err)
	}
	if c.Name() != "json" {
		t.Fatalf("codec name %q", c.Name())
	}
}
