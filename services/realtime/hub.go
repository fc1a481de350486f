// Package realtime pushes server events to connected WebSocket clients.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
)

const EventNewMark = "newMark"

// Event is the envelope of every message sent to clients.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Hub is the registry of connected clients. Delivery is best effort:
// an event is dropped for a client whose send queue is full, and is never replayed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	conf     core.RealtimeConfig
	logger   core.Logger
	upgrader websocket.Upgrader
	dropped  uint64
}

var _ school.MarkPublisher = (*Hub)(nil)

func NewHub(conf core.RealtimeConfig, logger core.Logger) *Hub {
	if conf.SendBuffer <= 0 {
		conf.SendBuffer = 16
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		conf:    conf,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister removes c and closes its send queue. It is safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of deliveries skipped because a client queue was full.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Broadcast sends evt to every connected client without blocking.
func (h *Hub) Broadcast(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			atomic.AddUint64(&h.dropped, 1)
		}
	}
	return nil
}

// PublishMark broadcasts a newMark event to all clients; they filter on studentId themselves.
func (h *Hub) PublishMark(evt school.MarkEvent) {
	if err := h.Broadcast(Event{Name: EventNewMark, Data: evt}); err != nil {
		h.logger.Error("broadcasting mark event", err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
