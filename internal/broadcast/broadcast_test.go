package broadcast

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
)

func TestNewBroadcaster(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	if b == nil {
		t.Fatal("NewBroadcaster() returned nil")
	}
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)

	ch := b.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() returned nil")
	}

	b.Mu.Lock()
	if len(b.Clients) != 1 {
		t.Errorf("clients count = %d, want 1", len(b.Clients))
	}
	b.Mu.Unlock()

	b.Unsubscribe(ch)

	b.Mu.Lock()
	if len(b.Clients) != 0 {
		t.Errorf("clients count after unsubscribe = %d, want 0", len(b.Clients))
	}
	b.Mu.Unlock()
}

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster(events.NewBus())

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Broadcast(events.TimeRecorded{RollNo: 1, TimeMs: 240})

	for i, ch := range []chan events.TimeRecorded{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.RollNo != 1 || ev.TimeMs != 240 {
				t.Errorf("ch%d got %+v", i+1, ev)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("ch%d timed out", i+1)
		}
	}

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch2)
}

func TestBroadcaster_SkipsFullChannels(t *testing.T) {
	b := NewBroadcaster(events.NewBus())
	ch := b.Subscribe()

	// Fill the channel buffer (capacity 10)
	for i := 0; i < 10; i++ {
		b.Broadcast(events.TimeRecorded{RollNo: int64(i)})
	}

	done := make(chan bool)
	go func() {
		b.Broadcast(events.TimeRecorded{RollNo: 99})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Broadcast blocked on full channel")
	}

	b.Unsubscribe(ch)
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.TimeRecorded
	err error
}

func (p *recordingPublisher) Publish(ev events.TimeRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestBroadcaster_BusForwardingAndRelay(t *testing.T) {
	bus := events.NewBus()
	b := NewBroadcaster(bus)
	pub := &recordingPublisher{err: errors.New("offline")}
	b.SetRelay(pub)
	ch := b.Subscribe()

	bus.Emit(events.TimeRecorded{RollNo: 8, TimeMs: 180})

	select {
	case ev := <-ch:
		if ev.RollNo != 8 {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for bus event")
	}

	deadline := time.Now().Add(time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Errorf("relay saw %d events, want 1", pub.count())
	}

	// A relayed event is only delivered locally.
	b.Broadcast(events.TimeRecorded{RollNo: 9})
	<-ch
	if pub.count() != 1 {
		t.Errorf("direct Broadcast was relayed")
	}
	b.Unsubscribe(ch)
}
