package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Relay shares recorded times between server instances over a NATS subject.
// Each instance ignores its own messages.
type Relay struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	origin  string
	logger  zerolog.Logger
	// called for every message received from another instance
	onRemote func()
}

// NewRelay connects to url and starts delivering remote times to b. onRemote
// may be nil.
func NewRelay(url, subject string, b *Broadcaster, onRemote func()) (*Relay, error) {
	r := &Relay{
		subject:  subject,
		origin:   uuid.NewString(),
		logger:   log.With().Str("component", "relay").Str("subject", subject).Logger(),
		onRemote: onRemote,
	}

	opts := []nats.Option{
		nats.Name("reaction-time-server"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			r.logger.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			r.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	r.conn = conn

	sub, err := conn.Subscribe(subject, func(m *nats.Msg) {
		ev, ok := r.decode(m.Data)
		if !ok {
			return
		}
		b.Broadcast(ev)
		if r.onRemote != nil {
			r.onRemote()
		}
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	r.sub = sub
	r.logger.Info().Str("url", conn.ConnectedUrl()).Msg("relay connected")
	return r, nil
}

// decode parses a relayed message, rejecting garbage and our own echoes.
func (r *Relay) decode(data []byte) (events.TimeRecorded, bool) {
	var ev events.TimeRecorded
	if err := json.Unmarshal(data, &ev); err != nil {
		r.logger.Warn().Err(err).Msg("dropping malformed relay message")
		return ev, false
	}
	if ev.Origin == r.origin {
		return ev, false
	}
	return ev, true
}

func (r *Relay) Publish(ev events.TimeRecorded) error {
	ev.Origin = r.origin
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding relay message: %w", err)
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.subject, err)
	}
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	r.conn.Drain()
}
