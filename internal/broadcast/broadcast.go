package broadcast

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
)

// Publisher forwards locally recorded times to other server instances.
type Publisher interface {
	Publish(ev events.TimeRecorded) error
}

type Broadcaster struct {
	Mu      sync.Mutex
	Clients map[chan events.TimeRecorded]bool

	relay Publisher
}

// NewBroadcaster fans out everything emitted on bus to subscribers.
func NewBroadcaster(bus *events.Bus) *Broadcaster {
	b := &Broadcaster{
		Clients: make(map[chan events.TimeRecorded]bool),
	}
	go func() {
		for ev := range bus.TimesRecorded {
			b.Broadcast(ev)
			b.Mu.Lock()
			relay := b.relay
			b.Mu.Unlock()
			if relay != nil {
				if err := relay.Publish(ev); err != nil {
					log.Warn().Err(err).Str("component", "broadcast").Msg("relay publish failed")
				}
			}
		}
	}()
	return b
}

// SetRelay makes bus events also go to p. Events that arrive from a relay are
// passed to Broadcast directly and are not published again.
func (b *Broadcaster) SetRelay(p Publisher) {
	b.Mu.Lock()
	b.relay = p
	b.Mu.Unlock()
}

func (b *Broadcaster) Subscribe() chan events.TimeRecorded {
	ch := make(chan events.TimeRecorded, 10)
	b.Mu.Lock()
	b.Clients[ch] = true
	b.Mu.Unlock()
	return ch
}

func (b *Broadcaster) Unsubscribe(ch chan events.TimeRecorded) {
	b.Mu.Lock()
	delete(b.Clients, ch)
	b.Mu.Unlock()
	close(ch)
}

func (b *Broadcaster) Broadcast(ev events.TimeRecorded) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for ch := range b.Clients {
		select {
		case ch <- ev:
		default:
			// skip clients with full data channels
		}
	}
}
