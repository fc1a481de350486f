package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const maxMessageSize = 512

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// ServeWS upgrades the request to a WebSocket and serves the connection until the client leaves.
// No identity is required to connect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, h.conf.SendBuffer)}
	h.register(c)
	h.logger.Debug("realtime client connected", map[string]interface{}{"remote": r.RemoteAddr})

	go c.writePump()
	c.readPump()

	h.logger.Debug("realtime client disconnected", map[string]interface{}{"remote": r.RemoteAddr})
	return nil
}

func (c *client) pongWait() time.Duration {
	if c.hub.conf.PingPeriod <= 0 {
		return 0
	}
	return c.hub.conf.PingPeriod * 10 / 9
}

func (c *client) setReadDeadline() {
	if wait := c.pongWait(); wait > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	}
}

func (c *client) setWriteDeadline() {
	if c.hub.conf.WriteWait > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.conf.WriteWait))
	}
}

// readPump discards inbound messages and unregisters the client once the connection fails.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.setReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.setReadDeadline()
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer of the connection.
func (c *client) writePump() {
	var tick <-chan time.Time
	if c.hub.conf.PingPeriod > 0 {
		ticker := time.NewTicker(c.hub.conf.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case payload, ok := <-c.send:
			c.setWriteDeadline()
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-tick:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
