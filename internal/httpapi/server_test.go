package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"

	"droneFlightAuthority/internal/auth"
	"droneFlightAuthority/internal/broadcast"
	"droneFlightAuthority/internal/geofence"
	"droneFlightAuthority/internal/lifecycle"
	"droneFlightAuthority/internal/simulation"
	"droneFlightAuthority/internal/testutil"
	"droneFlightAuthority/models"
	"droneFlightAuthority/repository"
)

const testSecret = "http-test-secret"

type env struct {
	t         *testing.T
	srv       *httptest.Server
	bus       *broadcast.Broadcaster
	drones    *repository.DroneRepository
	zones     *repository.ZoneRepository
	flights   *lifecycle.Service
	authority *models.User
	pilot     *models.User
	other     *models.User
	drone     *models.Drone
}

func newEnv(t *testing.T) *env {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, "httpapi")
	ctx := context.Background()
	users := repository.NewUserRepository(d)
	e := &env{t: t, drones: repository.NewDroneRepository(d), zones: repository.NewZoneRepository(d)}

	var err error
	if e.authority, err = users.Create(ctx, &models.User{Username: "authority", Role: models.RoleAuthorityAdmin}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if e.pilot, err = users.Create(ctx, &models.User{Username: "pilot", Role: models.RoleSoloPilot}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if e.other, err = users.Create(ctx, &models.User{Username: "other", Role: models.RoleSoloPilot}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if e.drone, err = e.drones.Create(ctx, &models.Drone{SerialNumber: "RID-7", SoloOwnerID: &e.pilot.ID}); err != nil {
		t.Fatalf("seed drone: %v", err)
	}

	telemetry := repository.NewTelemetryRepository(d)
	cache := geofence.NewZoneCache(e.zones, 0)
	e.bus = broadcast.New(16, nil)
	engine := simulation.NewEngine(simulation.Deps{Drones: e.drones, Telemetry: telemetry, Zones: cache, Publisher: e.bus}, simulation.Config{Interval: time.Hour})
	e.flights = lifecycle.NewService(lifecycle.Deps{DB: d, Zones: cache, Simulator: engine})
	engine.SetCompleter(e.flights)

	api := &Server{Secret: testSecret, Users: users, Flights: e.flights, Zones: cache, Telemetry: telemetry, Bus: e.bus}
	e.srv = httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		e.srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
		e.bus.Close()
	})
	return e
}

func (e *env) token(u *models.User) string {
	e.t.Helper()
	tok, err := auth.IssueToken(testSecret, u.Username, string(u.Role), time.Hour)
	if err != nil {
		e.t.Fatalf("token: %v", err)
	}
	return tok
}

func (e *env) get(path, token string) *http.Response {
	e.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("GET %s: %v", path, err)
	}
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// activeFlight submits, approves and starts a flight; the hour-long interval
// keeps it in the air after its first sample.
func (e *env) activeFlight() *models.FlightPlan {
	e.t.Helper()
	ctx := context.Background()
	dep := time.Now().Add(time.Hour)
	fp, err := e.flights.Submit(ctx, e.pilot, lifecycle.SubmitInput{
		DroneID: e.drone.ID, PlannedDeparture: dep, PlannedArrival: dep.Add(time.Hour),
		Waypoints: []models.Waypoint{
			{Latitude: 51.2, Longitude: 71.3, AltitudeM: 90, Sequence: 0},
			{Latitude: 51.3, Longitude: 71.4, AltitudeM: 90, Sequence: 1},
		},
	})
	if err != nil {
		e.t.Fatalf("submit: %v", err)
	}
	if _, err := e.flights.Transition(ctx, e.authority, fp.ID, models.FlightApproved, ""); err != nil {
		e.t.Fatalf("approve: %v", err)
	}
	if _, err := e.flights.Start(ctx, e.pilot, fp.ID); err != nil {
		e.t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		dr, err := e.drones.GetByID(ctx, e.drone.ID)
		if err != nil {
			e.t.Fatalf("get drone: %v", err)
		}
		if dr.LastTelemetryID != nil {
			break
		}
		if time.Now().After(deadline) {
			e.t.Fatalf("no telemetry recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fp
}

func TestHealthAndNoFlyZones(t *testing.T) {
	e := newEnv(t)
	if resp := e.get("/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", resp.StatusCode)
	}

	ctx := context.Background()
	if _, err := e.zones.Create(ctx, &models.RestrictedZone{Name: "Harbor", Geometry: models.GeometryCircle, Definition: models.ZoneDefinition{CenterLat: 10, CenterLon: 10, RadiusM: 100}, IsActive: true, CreatedBy: e.authority.ID}); err != nil {
		t.Fatalf("zone: %v", err)
	}
	if _, err := e.zones.Create(ctx, &models.RestrictedZone{Name: "Old", Geometry: models.GeometryCircle, Definition: models.ZoneDefinition{CenterLat: 11, CenterLon: 11, RadiusM: 100}, IsActive: false, CreatedBy: e.authority.ID}); err != nil {
		t.Fatalf("zone: %v", err)
	}

	resp := e.get("/api/v1/nfz", "")
	var body struct {
		Zones []zoneView `json:"zones"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Zones) != 1 || body.Zones[0].Name != "Harbor" || body.Zones[0].Definition.RadiusM != 100 {
		t.Fatalf("nfz: %+v", body.Zones)
	}
}

func TestRemoteIDActiveFlights(t *testing.T) {
	e := newEnv(t)
	fp := e.activeFlight()

	resp := e.get("/api/v1/remoteid/active-flights", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Flights []remoteIDView `json:"flights"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Flights) != 1 {
		t.Fatalf("flights: %+v", body.Flights)
	}
	got := body.Flights[0]
	if got.FlightPlanID != fp.ID || got.SerialNumber != "RID-7" || got.Latitude == nil || *got.Latitude != 51.2 {
		t.Fatalf("remote id view: %+v", got)
	}
}

func TestHistoryExport(t *testing.T) {
	e := newEnv(t)
	fp := e.activeFlight()
	path := "/api/v1/flights/" + strconv.FormatInt(fp.ID, 10) + "/history.xlsx"

	if resp := e.get(path, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: %d", resp.StatusCode)
	}
	if resp := e.get(path, e.token(e.other)); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("other pilot: %d", resp.StatusCode)
	}
	if resp := e.get("/api/v1/flights/999/history.xlsx", e.token(e.authority)); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing flight: %d", resp.StatusCode)
	}

	resp := e.get(path, e.token(e.pilot))
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	wps, err := f.GetRows("Waypoints")
	if err != nil || len(wps) != 3 || wps[0][0] != "Sequence" {
		t.Fatalf("waypoint rows: %v %v", wps, err)
	}
	tel, err := f.GetRows("Telemetry")
	if err != nil || len(tel) < 2 || tel[1][6] != models.TelemetryOnSchedule {
		t.Fatalf("telemetry rows: %v %v", tel, err)
	}
}

func wsURL(e *env, query string) string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws/telemetry?" + query
}

func waitSubscribers(t *testing.T, bus *broadcast.Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for bus.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", n, bus.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTelemetrySocket(t *testing.T) {
	e := newEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(e, "token=garbage"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token should fail the handshake with 401, got %v", err)
	}

	tok := e.token(e.authority)
	jsonConn, _, err := websocket.DefaultDialer.Dial(wsURL(e, "token="+tok), nil)
	if err != nil {
		t.Fatalf("dial json: %v", err)
	}
	defer jsonConn.Close()
	binConn, _, err := websocket.DefaultDialer.Dial(wsURL(e, "format=msgpack&token="+tok), nil)
	if err != nil {
		t.Fatalf("dial msgpack: %v", err)
	}
	defer binConn.Close()
	waitSubscribers(t, e.bus, 2)

	e.bus.Publish(broadcast.Event{Type: broadcast.EventTelemetry, FlightID: 3, DroneID: 4, Latitude: 1.5, Status: models.TelemetryOnSchedule, Timestamp: time.Now().UTC()})

	_ = jsonConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, payload, err := jsonConn.ReadMessage()
	if err != nil || kind != websocket.TextMessage {
		t.Fatalf("json frame: kind=%d err=%v", kind, err)
	}
	var ev broadcast.Event
	if err := json.Unmarshal(payload, &ev); err != nil || ev.FlightID != 3 || ev.Latitude != 1.5 {
		t.Fatalf("json event: %+v %v", ev, err)
	}

	_ = binConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, payload, err = binConn.ReadMessage()
	if err != nil || kind != websocket.BinaryMessage {
		t.Fatalf("msgpack frame: kind=%d err=%v", kind, err)
	}
	var bev broadcast.Event
	if err := msgpack.Unmarshal(payload, &bev); err != nil || bev.DroneID != 4 || bev.Status != models.TelemetryOnSchedule {
		t.Fatalf("msgpack event: %+v %v", bev, err)
	}

	_ = jsonConn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for e.bus.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("closed socket still subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
