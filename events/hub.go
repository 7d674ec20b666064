package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 5 * time.Second

	// events queued per client before it is considered stalled
	clientBuffer = 32
)

type client struct {
	conn     *websocket.Conn
	username string
	send     chan []byte
}

// Hub keeps the connected admin websockets and broadcasts every event to
// them. Each client has its own writer goroutine; Publish only queues.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(conn *websocket.Conn, username string) *client {
	c := &client{conn: conn, username: username, send: make(chan []byte, clientBuffer)}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mutex.Unlock()

	go h.writePump(c)
	h.log.WithFields(logrus.Fields{"username": username, "clients": count}).Info("Live feed client connected")
	return c
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(c)
}

// remove expects the mutex to be held. Closing send tells the writer to
// close the connection.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.WithFields(logrus.Fields{"username": c.username, "clients": len(h.clients)}).Info("Live feed client disconnected")
}

// writePump is the only goroutine writing to c.conn.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).WithField("username", c.username).Warn("Dropping live feed client after failed write")
			h.unregister(c)
			return
		}
	}

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "live feed closed"),
		time.Now().Add(time.Second))
}

// Serve registers conn and blocks until the client goes away. Incoming
// messages are read and discarded so control frames get handled.
func (h *Hub) Serve(conn *websocket.Conn, username string) {
	c := h.register(conn, username)
	defer h.unregister(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish queues e for every client without waiting on the network. A client
// whose queue is full is dropped.
func (h *Hub) Publish(_ context.Context, e Envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		h.log.WithError(err).WithField("event_type", e.EventType).Error("Error marshaling live feed event")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.WithField("username", c.username).Warn("Dropping stalled live feed client")
			h.remove(c)
		}
	}
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		h.remove(c)
	}
}
