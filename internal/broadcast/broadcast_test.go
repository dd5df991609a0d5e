package broadcast

import (
	"sync"
	"testing"
	"time"
)

func TestPublish_FanOut(t *testing.T) {
	b := New(4, nil)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	if b.Len() != 2 {
		t.Fatalf("len=%d want 2", b.Len())
	}

	ev := Event{Type: EventTelemetry, FlightID: 1, DroneID: 2, Latitude: 51.1, Longitude: 71.4, Timestamp: time.Now()}
	if n := b.Publish(ev); n != 2 {
		t.Fatalf("delivered=%d want 2", n)
	}
	for _, s := range []*Subscription{s1, s2} {
		select {
		case got := <-s.Events():
			if got.FlightID != 1 || got.DroneID != 2 {
				t.Fatalf("unexpected event %+v", got)
			}
		default:
			t.Fatalf("subscriber %s got nothing", s.ID)
		}
	}
}

func TestPublish_DropsSlowSubscriberOnly(t *testing.T) {
	b := New(1, nil)
	slow := b.Subscribe()
	fast := b.Subscribe()

	var wg sync.WaitGroup
	received := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range fast.Events() {
			received++
			if received == 3 {
				return
			}
		}
	}()

	for i := 0; i < 3; i++ {
		b.Publish(Event{Type: EventTelemetry, FlightID: int64(i)})
		// Give the fast reader a chance to drain its single slot.
		deadline := time.Now().Add(time.Second)
		for len(fast.ch) > 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
	wg.Wait()

	select {
	case <-slow.Done():
	default:
		t.Fatalf("slow subscriber should have been dropped")
	}
	if b.Len() != 1 || b.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d, want 1 and 1", b.Len(), b.Dropped())
	}
	// The slow subscriber still sees what was queued before the drop.
	if ev, ok := <-slow.Events(); !ok || ev.FlightID != 0 {
		t.Fatalf("expected queued event before close, got %+v ok=%v", ev, ok)
	}
	if _, ok := <-slow.Events(); ok {
		t.Fatalf("expected closed channel after queued events")
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := New(2, nil)
	s := b.Subscribe()
	b.Unsubscribe(s)
	b.Unsubscribe(s)
	b.Unsubscribe(nil)
	if b.Len() != 0 {
		t.Fatalf("len=%d want 0", b.Len())
	}
	if n := b.Publish(Event{}); n != 0 {
		t.Fatalf("delivered=%d want 0", n)
	}
	if _, ok := <-s.Events(); ok {
		t.Fatalf("events channel should be closed")
	}
}

func TestClose_EndsAllAndRejectsNew(t *testing.T) {
	b := New(2, nil)
	s := b.Subscribe()
	if b.Closed() {
		t.Fatalf("new broadcaster reports closed")
	}
	b.Close()
	if !b.Closed() {
		t.Fatalf("Closed should report true after Close")
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("subscription should end on Close")
	}
	late := b.Subscribe()
	select {
	case <-late.Done():
	default:
		t.Fatalf("subscribe after close should return ended subscription")
	}
}

func TestPublish_ConcurrentSubscribers(t *testing.T) {
	b := New(8, nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := b.Subscribe()
			b.Publish(Event{Type: EventSimulationStatus})
			b.Unsubscribe(s)
		}()
	}
	wg.Wait()
	if b.Len() != 0 {
		t.Fatalf("len=%d want 0", b.Len())
	}
}
