package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/VanXodus305/Reaction-Time-Game/internal/events"
	"github.com/VanXodus305/Reaction-Time-Game/internal/wshub"
)

const liveSendBuffer = 16

// handleLive upgrades to a websocket and streams every recorded time until
// the client goes away. Incoming messages are ignored.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: s.AllowAnyOrigin,
		OriginPatterns:     s.OriginPatterns,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	client := &wshub.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, liveSendBuffer),
	}
	s.Hub.Register(client)
	s.Metrics.LiveClientConnected()
	defer func() {
		s.Hub.Unregister(client.ID)
		s.Metrics.LiveClientDisconnected()
	}()

	ctx := conn.CloseRead(r.Context())
	s.logger.Debug().Str("client_id", client.ID).Msg("live client connected")
	client.WritePump(ctx)
	conn.Close(websocket.StatusNormalClosure, "")
}

// pumpLive forwards broadcaster events to the websocket hub.
func (s *Server) pumpLive(ctx context.Context, ch chan events.TimeRecorded) {
	defer s.Broadcaster.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			s.Hub.Broadcast(wshub.ServerMessage{
				Type:       "time",
				RollNo:     ev.RollNo,
				Name:       ev.Name,
				Time:       ev.TimeMs,
				Difficulty: ev.Difficulty,
			})
		}
	}
}
