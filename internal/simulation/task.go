package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"droneFlightAuthority/internal/broadcast"
	"droneFlightAuthority/internal/geofence"
	"droneFlightAuthority/models"
)

// Outcome is how a task ended.
type Outcome int

const (
	OutcomeRunning Outcome = iota
	OutcomeCompleted
	OutcomeStopped
	OutcomeFault
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeStopped:
		return "stopped"
	case OutcomeFault:
		return "fault"
	}
	return "running"
}

// Task is the live execution of one flight's simulation.
type Task struct {
	FlightID int64
	DroneID  int64

	cancel  context.CancelFunc
	done    chan struct{}
	cursor  atomic.Int64
	outcome Outcome
}

func newTask(flightID, droneID int64, cancel context.CancelFunc) *Task {
	t := &Task{FlightID: flightID, DroneID: droneID, cancel: cancel, done: make(chan struct{})}
	t.cursor.Store(-1)
	return t
}

// Done is closed after the task has exited and applied its side effects.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cursor is the index of the waypoint being flown, or -1 before the first.
func (t *Task) Cursor() int { return int(t.cursor.Load()) }

// Outcome reports how the task ended. It is OutcomeRunning until Done is closed.
func (t *Task) Outcome() Outcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return OutcomeRunning
	}
}

func (e *Engine) run(ctx context.Context, t *Task, fp models.FlightPlan) {
	defer e.wg.Done()
	outcome := OutcomeFault
	last := fp.Waypoints[0]
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("simulation panic", "flight_id", t.FlightID, "panic", r)
			outcome = OutcomeFault
		}
		e.finish(t, outcome, last)
	}()

	// Writes of a step still land after a stop request; the token is only
	// checked between waypoints.
	store := context.WithoutCancel(ctx)
	for i, wp := range fp.Waypoints {
		if ctx.Err() != nil {
			outcome = OutcomeStopped
			return
		}
		t.cursor.Store(int64(i))
		last = wp
		if err := e.step(store, fp, wp); err != nil {
			e.log.Error("simulation step failed", "flight_id", t.FlightID, "waypoint", wp.Sequence, "error", err)
			outcome = OutcomeFault
			return
		}
		timer := time.NewTimer(e.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			outcome = OutcomeStopped
			return
		case <-timer.C:
		}
	}
	outcome = OutcomeCompleted
}

// step emits the telemetry sample for one waypoint.
func (e *Engine) step(ctx context.Context, fp models.FlightPlan, wp models.Waypoint) error {
	now := time.Now().UTC()
	speed := 5 + rand.Float64()*10
	heading := rand.Float64() * 360

	zones, err := e.deps.Zones.Active(ctx)
	if err != nil {
		return fmt.Errorf("load active zones: %w", err)
	}
	status := models.TelemetryOnSchedule
	if breaches := geofence.CheckPoint(wp.Latitude, wp.Longitude, wp.AltitudeM, zones); len(breaches) > 0 {
		status = models.TelemetryAlertNFZ + ": " + strings.Join(geofence.Names(breaches), ", ")
		e.log.Warn("geofence breach in flight", "flight_id", fp.ID, "drone_id", fp.DroneID, "zones", geofence.Names(breaches))
	}

	flightID := fp.ID
	sample, err := e.deps.Telemetry.Create(ctx, &models.TelemetrySample{
		FlightPlanID: &flightID,
		DroneID:      fp.DroneID,
		Timestamp:    now,
		Latitude:     wp.Latitude,
		Longitude:    wp.Longitude,
		AltitudeM:    wp.AltitudeM,
		SpeedMPS:     &speed,
		HeadingDeg:   &heading,
		Status:       status,
	})
	if err != nil {
		return fmt.Errorf("store telemetry: %w", err)
	}
	if err := e.deps.Drones.RecordTelemetry(ctx, fp.DroneID, sample.ID, now); err != nil {
		return fmt.Errorf("update drone: %w", err)
	}
	if e.deps.Publisher != nil {
		e.deps.Publisher.Publish(broadcast.Event{
			Type:       broadcast.EventTelemetry,
			FlightID:   fp.ID,
			DroneID:    fp.DroneID,
			Latitude:   sample.Latitude,
			Longitude:  sample.Longitude,
			AltitudeM:  sample.AltitudeM,
			Timestamp:  sample.Timestamp,
			SpeedMPS:   sample.SpeedMPS,
			HeadingDeg: sample.HeadingDeg,
			Status:     sample.Status,
		})
	}
	return nil
}
