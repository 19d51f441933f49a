package hub

import (
	"context"
	"sync"

	"guestbook/pkg/envelope"
	"guestbook/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

type clientConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.For("hub").Debug("send failed", "remote", cc.conn.RemoteAddr().String(), "err", err)
	}
}

// Hub fans guestbook events out to connected websocket clients so they can
// revalidate immediately instead of waiting for their next refresh tick.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*clientConn)}
}

// HandleClientConn registers c and blocks until it disconnects. Clients only
// ever send pings; everything else is ignored.
func (h *Hub) HandleClientConn(c *websocket.Conn) {
	cc := &clientConn{conn: c}
	log := logger.For("hub")

	h.mu.Lock()
	h.clients[c] = cc
	h.mu.Unlock()

	log.Info("client connected", "total", h.ClientCount())
	h.Broadcast(envelope.ActionUserCount, "system", map[string]int{"count": h.ClientCount()})

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
		log.Info("client disconnected", "total", h.ClientCount())
		h.Broadcast(envelope.ActionUserCount, "system", map[string]int{"count": h.ClientCount()})
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			data, _ := envelope.NewError("message", 400, "invalid JSON").Marshal()
			cc.send(data)
			continue
		}

		if env.Action == envelope.ActionPing {
			data, _ := envelope.New(envelope.ActionPong, "system").Marshal()
			cc.send(data)
		}
	}
}

// Deliver sends an already-built envelope to every client.
func (h *Hub) Deliver(env envelope.Envelope) {
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.clients {
		cc.send(raw)
	}
}

// Broadcast sends an event to ALL connected clients
func (h *Hub) Broadcast(action, service string, data interface{}) {
	env, err := envelope.NewEvent(action, service, data)
	if err != nil {
		return
	}
	h.Deliver(env)
}

// PublishEvent lets the hub stand in for the broker on single-instance
// deployments.
func (h *Hub) PublishEvent(_ context.Context, action string, data interface{}) error {
	h.Broadcast(action, "guestbook", data)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
