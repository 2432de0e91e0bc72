package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/live"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// UpdatesHandler pushes every published label update to WebSocket clients.
type UpdatesHandler struct {
	hub *live.Hub
	log logrus.FieldLogger
}

// NewUpdatesHandler creates a new UpdatesHandler reading from hub.
func NewUpdatesHandler(hub *live.Hub, log logrus.FieldLogger) *UpdatesHandler {
	return &UpdatesHandler{hub: hub, log: log}
}

// ServeHTTP handles WebSocket upgrade requests. The current label is sent
// immediately, followed by one message per processed frame.
func (h *UpdatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(16)
	defer cancel()

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, h.hub.Latest()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, u); err != nil {
				h.log.WithError(err).Debug("websocket client dropped")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *UpdatesHandler) write(conn *websocket.Conn, u live.Update) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(u)
}
