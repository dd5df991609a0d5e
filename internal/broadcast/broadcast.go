// Package broadcast fans live flight events out to subscribers without
// letting a slow subscriber hold up the publisher.
package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes telemetry samples from simulation status changes.
type EventType string

const (
	EventTelemetry        EventType = "telemetry"
	EventSimulationStatus EventType = "simulation_status"
)

// Event is one live message delivered to subscribers.
type Event struct {
	Type       EventType `json:"type" msgpack:"type"`
	FlightID   int64     `json:"flight_id" msgpack:"flight_id"`
	DroneID    int64     `json:"drone_id" msgpack:"drone_id"`
	Latitude   float64   `json:"latitude" msgpack:"latitude"`
	Longitude  float64   `json:"longitude" msgpack:"longitude"`
	AltitudeM  float64   `json:"altitude_m" msgpack:"altitude_m"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
	SpeedMPS   *float64  `json:"speed_mps,omitempty" msgpack:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_degrees,omitempty" msgpack:"heading_degrees,omitempty"`
	Status     string    `json:"status_message" msgpack:"status_message"`
}

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 64

// Subscription is a handle to one subscriber's bounded queue.
type Subscription struct {
	ID   uuid.UUID
	ch   chan Event
	done chan struct{}
}

// Events yields delivered events. The channel is closed when the subscription
// ends, either by Unsubscribe or because the subscriber fell behind.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Broadcaster delivers each published event to every current subscriber.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*Subscription
	buffer  int
	closed  bool
	dropped int
	log     *slog.Logger
}

// New creates a Broadcaster whose subscribers each get a queue of buffer events.
func New(buffer int, log *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{subs: make(map[uuid.UUID]*Subscription), buffer: buffer, log: log}
}

// Subscribe registers a new subscriber. Subscribing to a closed broadcaster
// returns an already ended subscription.
func (b *Broadcaster) Subscribe() *Subscription {
	s := &Subscription{ID: uuid.New(), ch: make(chan Event, b.buffer), done: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		close(s.done)
		return s
	}
	b.subs[s.ID] = s
	b.log.Debug("subscriber added", "subscriber", s.ID, "subscribers", len(b.subs))
	return s
}

// Unsubscribe ends the subscription. It is safe to call more than once.
func (b *Broadcaster) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(s.ID)
}

// Publish offers ev to every subscriber without blocking. A subscriber whose
// queue is full is dropped. It returns the number of subscribers that received ev.
func (b *Broadcaster) Publish(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for id, s := range b.subs {
		select {
		case s.ch <- ev:
			delivered++
		default:
			b.dropped++
			b.log.Warn("dropping slow subscriber", "subscriber", id, "flight_id", ev.FlightID)
			b.removeLocked(id)
		}
	}
	return delivered
}

// Len returns the number of current subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many subscribers were dropped for falling behind.
func (b *Broadcaster) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Closed reports whether Close has been called.
func (b *Broadcaster) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close ends every subscription and rejects new ones.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id := range b.subs {
		b.removeLocked(id)
	}
}

func (b *Broadcaster) removeLocked(id uuid.UUID) {
	s, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(s.ch)
	close(s.done)
}
