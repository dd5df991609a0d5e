// Package httpapi serves the public HTTP surface: health, the no-fly zone
// and Remote ID feeds, flight history export and the live telemetry socket.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/broadcast"
	"droneFlightAuthority/internal/config"
	"droneFlightAuthority/internal/lifecycle"
	"droneFlightAuthority/models"
)

// ZoneSource provides the currently active restricted zones.
type ZoneSource interface {
	Active(ctx context.Context) ([]models.RestrictedZone, error)
}

// TelemetryLookup loads single telemetry samples.
type TelemetryLookup interface {
	GetByID(ctx context.Context, id int64) (*models.TelemetrySample, error)
}

// Server holds the collaborators of the HTTP handlers.
type Server struct {
	Secret    string
	Users     auth.UserLookup
	Flights   *lifecycle.Service
	Zones     ZoneSource
	Telemetry TelemetryLookup
	Bus       *broadcast.Broadcaster
	Log       *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/v1/nfz", s.handleNoFlyZones)
	mux.HandleFunc("GET /api/v1/remoteid/active-flights", s.handleActiveFlights)
	mux.HandleFunc("GET /api/v1/flights/{id}/history.xlsx", s.handleHistoryExport)
	mux.HandleFunc("GET /ws/telemetry", s.handleTelemetrySocket)
	return mux
}

// Start listens on the configured HTTP address and returns a shutdown function.
func Start(cfg *config.Config, s *Server) (func(context.Context) error, error) {
	addr := cfg.HTTP.Address
	if addr == "" {
		addr = ":8080"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger().Error("http serve", "error", err)
		}
	}()
	return srv.Shutdown, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain and status errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindNotFound:
			code = http.StatusNotFound
		case apperr.KindForbidden:
			code = http.StatusForbidden
		case apperr.KindValidation:
			code = http.StatusBadRequest
		case apperr.KindInvalidState, apperr.KindGeofence, apperr.KindConflict:
			code = http.StatusConflict
		}
	} else if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated:
			code = http.StatusUnauthorized
		case codes.PermissionDenied:
			code = http.StatusForbidden
		case codes.NotFound:
			code = http.StatusNotFound
		case codes.InvalidArgument:
			code = http.StatusBadRequest
		}
		err = errors.New(st.Message())
	}
	if code == http.StatusInternalServerError {
		s.logger().Error("http request failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// actor resolves a raw bearer token to a stored, active user.
func (s *Server) actor(ctx context.Context, token string) (*models.User, error) {
	p, err := auth.ParseToken(token, s.Secret)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
	}
	return auth.ResolvePrincipal(ctx, s.Users, p)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type zoneView struct {
	ID           int64                 `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description,omitempty"`
	Geometry     models.GeometryKind   `json:"geometry_type"`
	Definition   models.ZoneDefinition `json:"definition"`
	MinAltitudeM *float64              `json:"min_altitude_m,omitempty"`
	MaxAltitudeM *float64              `json:"max_altitude_m,omitempty"`
}

func (s *Server) handleNoFlyZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.Zones.Active(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]zoneView, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneView{ID: z.ID, Name: z.Name, Description: z.Description, Geometry: z.Geometry, Definition: z.Definition, MinAltitudeM: z.MinAltitudeM, MaxAltitudeM: z.MaxAltitudeM})
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": out})
}

type remoteIDView struct {
	FlightPlanID   int64      `json:"flight_plan_id"`
	DroneID        int64      `json:"drone_id"`
	SerialNumber   string     `json:"serial_number,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	AltitudeM      *float64   `json:"altitude_m,omitempty"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	PlannedArrival time.Time  `json:"planned_arrival_time"`
}

// handleActiveFlights publishes every flight in the air with the last
// position reported by its drone.
func (s *Server) handleActiveFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := s.Flights.ActiveFlights(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]remoteIDView, 0, len(flights))
	for _, af := range flights {
		v := remoteIDView{FlightPlanID: af.Plan.ID, DroneID: af.Plan.DroneID, PlannedArrival: af.Plan.PlannedArrival}
		if af.Drone != nil {
			v.SerialNumber = af.Drone.SerialNumber
			v.LastSeenAt = af.Drone.LastSeenAt
			if af.Drone.LastTelemetryID != nil {
				t, err := s.Telemetry.GetByID(r.Context(), *af.Drone.LastTelemetryID)
				if err != nil {
					s.writeError(w, err)
					return
				}
				if t != nil {
					v.Latitude, v.Longitude, v.AltitudeM = &t.Latitude, &t.Longitude, &t.AltitudeM
				}
			}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"flights": out})
}
