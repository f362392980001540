package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The control surface binds to loopback by default; remote origins
	// are the operator's responsibility.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStatusStream pushes every unsolicited device record to the
// websocket client as one JSON message.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub, cancel := s.sess.SubscribeStatus()
	defer cancel()

	// Drain client frames so pings/closes are noticed; a read error
	// ends the stream.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("Status stream opened", "remote", r.RemoteAddr)
	for {
		select {
		case resp, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(resp); err != nil {
				slog.Debug("Status stream write failed", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
