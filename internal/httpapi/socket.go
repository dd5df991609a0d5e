package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"droneFlightAuthority/internal/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func encodeEvent(ev *broadcast.Event, binary bool) (int, []byte, error) {
	if binary {
		b, err := msgpack.Marshal(ev)
		return websocket.BinaryMessage, b, err
	}
	b, err := json.Marshal(ev)
	return websocket.TextMessage, b, err
}

// handleTelemetrySocket streams broadcaster events to a websocket client. The
// token travels in the query string because browsers cannot set headers on
// websocket requests.
func (s *Server) handleTelemetrySocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "msgpack" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or msgpack"})
		return
	}
	actor, err := s.actor(r.Context(), q.Get("token"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger().Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	sub := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(sub)
	log := s.logger().With("subscriber", sub.ID.String(), "user", actor.Username)
	log.Info("telemetry socket opened", "format", format)

	// The reader only services control frames and notices the client leaving.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	binary := format == "msgpack"
	for {
		select {
		case <-gone:
			log.Info("telemetry socket closed by client")
			return
		case ev, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				if s.Bus.Closed() {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
					return
				}
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind"))
				log.Warn("telemetry socket dropped for falling behind")
				return
			}
			kind, payload, err := encodeEvent(&ev, binary)
			if err != nil {
				log.Error("encode event", "error", err)
				return
			}
			if err := conn.WriteMessage(kind, payload); err != nil {
				log.Info("telemetry socket write failed", "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
