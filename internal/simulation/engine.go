// Package simulation runs one telemetry simulation per active flight.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"droneFlightAuthority/internal/apperr"
	"droneFlightAuthority/internal/broadcast"
	"droneFlightAuthority/models"
)

// DefaultInterval is the pause between two telemetry samples.
const DefaultInterval = 5 * time.Second

// ErrShutdown is returned by Start once Shutdown has begun.
var ErrShutdown = errors.New("simulation engine is shutting down")

// DroneStore updates the live state of drones.
type DroneStore interface {
	UpdateStatus(ctx context.Context, id int64, status models.DroneStatus) error
	RecordTelemetry(ctx context.Context, id, sampleID int64, seenAt time.Time) error
}

// TelemetryStore appends telemetry samples.
type TelemetryStore interface {
	Create(ctx context.Context, t *models.TelemetrySample) (*models.TelemetrySample, error)
}

// ZoneSource provides the currently active restricted zones.
type ZoneSource interface {
	Active(ctx context.Context) ([]models.RestrictedZone, error)
}

// Publisher receives live events.
type Publisher interface {
	Publish(ev broadcast.Event) int
}

// Completer finishes a flight whose simulation ran through every waypoint.
type Completer interface {
	Complete(ctx context.Context, flightID int64) error
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Drones    DroneStore
	Telemetry TelemetryStore
	Zones     ZoneSource
	Publisher Publisher
	Logger    *slog.Logger
}

// Config tunes an Engine.
type Config struct {
	Interval time.Duration
}

// Engine owns the registry of running simulation tasks keyed by flight id.
type Engine struct {
	deps     Deps
	interval time.Duration
	log      *slog.Logger

	mu        sync.Mutex
	tasks     map[int64]*Task
	completer Completer
	closed    bool
	wg        sync.WaitGroup
}

// NewEngine creates an Engine. A zero Interval means DefaultInterval.
func NewEngine(deps Deps, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		deps:     deps,
		interval: cfg.Interval,
		log:      log.With("component", "simulation"),
		tasks:    make(map[int64]*Task),
	}
}

// SetCompleter wires the lifecycle service that completes finished flights.
func (e *Engine) SetCompleter(c Completer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completer = c
}

// Start spawns the simulation of fp and marks its drone active. If a task for
// fp is already running it is returned unchanged.
func (e *Engine) Start(ctx context.Context, fp *models.FlightPlan) (*Task, error) {
	if fp == nil {
		return nil, errors.New("flight plan is nil")
	}
	if len(fp.Waypoints) == 0 {
		return nil, apperr.Validation("waypoints_required", "flight plan %d has no waypoints", fp.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrShutdown
	}
	if t, ok := e.tasks[fp.ID]; ok {
		return t, nil
	}
	for _, t := range e.tasks {
		if t.DroneID == fp.DroneID {
			return nil, apperr.InvalidState("drone %d is already flying flight %d", fp.DroneID, t.FlightID)
		}
	}
	if err := e.deps.Drones.UpdateStatus(ctx, fp.DroneID, models.DroneStatusActive); err != nil {
		return nil, fmt.Errorf("mark drone %d active: %w", fp.DroneID, err)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	t := newTask(fp.ID, fp.DroneID, cancel)
	e.tasks[fp.ID] = t
	e.wg.Add(1)

	plan := *fp
	plan.Waypoints = append([]models.Waypoint(nil), fp.Waypoints...)
	go e.run(taskCtx, t, plan)

	e.log.Info("simulation started", "flight_id", fp.ID, "drone_id", fp.DroneID, "waypoints", len(plan.Waypoints))
	return t, nil
}

// Stop signals the task of flightID to end at its next checkpoint. It reports
// whether a task was running.
func (e *Engine) Stop(flightID int64) bool {
	e.mu.Lock()
	t, ok := e.tasks[flightID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	e.log.Info("simulation stop requested", "flight_id", flightID)
	return true
}

// Running returns the task of flightID, if any.
func (e *Engine) Running(flightID int64) (*Task, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[flightID]
	return t, ok
}

// Count returns the number of running tasks.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Shutdown stops every task and waits for them to exit or for ctx to end.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	for _, t := range e.tasks {
		t.cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() { e.wg.Wait(); close(done) }()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish applies the terminal side effects of t and removes it from the registry.
func (e *Engine) finish(t *Task, outcome Outcome, last models.Waypoint) {
	ctx := context.Background()
	log := e.log.With("flight_id", t.FlightID, "drone_id", t.DroneID)

	if outcome == OutcomeCompleted {
		e.mu.Lock()
		c := e.completer
		e.mu.Unlock()
		if c != nil {
			if err := c.Complete(ctx, t.FlightID); err != nil {
				// A cancel that lands after the last waypoint leaves the plan
				// terminal; anything else leaves it ACTIVE with no task.
				if apperr.Is(err, apperr.KindInvalidState) {
					log.Info("flight left ACTIVE before completion", "error", err)
					outcome = OutcomeStopped
				} else {
					log.Error("complete flight", "error", err)
					outcome = OutcomeFault
				}
			}
		}
	}

	droneStatus := models.DroneStatusIdle
	annotation := models.TelemetryInterrupted
	switch outcome {
	case OutcomeCompleted:
		annotation = models.TelemetryCompleted
	case OutcomeFault:
		droneStatus = models.DroneStatusUnknown
		annotation = models.TelemetryFault
	}
	if err := e.deps.Drones.UpdateStatus(ctx, t.DroneID, droneStatus); err != nil {
		log.Error("reset drone status", "status", droneStatus, "error", err)
	}
	if e.deps.Publisher != nil {
		e.deps.Publisher.Publish(broadcast.Event{
			Type:      broadcast.EventSimulationStatus,
			FlightID:  t.FlightID,
			DroneID:   t.DroneID,
			Latitude:  last.Latitude,
			Longitude: last.Longitude,
			AltitudeM: last.AltitudeM,
			Timestamp: time.Now().UTC(),
			Status:    annotation,
		})
	}

	e.mu.Lock()
	if cur, ok := e.tasks[t.FlightID]; ok && cur == t {
		delete(e.tasks, t.FlightID)
	}
	e.mu.Unlock()

	t.outcome = outcome
	close(t.done)
	log.Info("simulation finished", "outcome", outcome.String())
}
