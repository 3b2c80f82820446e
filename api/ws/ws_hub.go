package ws

import (
	"context"
	"log"
	"sync"

	"github.com/Bilal292/livedraw/cache"
	"github.com/Bilal292/livedraw/service"
)

// Hub maintains the set of active clients and delivers broadcasts to them.
// All clients share one drawing surface, so membership is a flat set: every
// broadcast goes to every member. The member set is mutex-guarded because
// Unregister must take effect synchronously on the disconnect path, before
// the connection's resources are released.
type Hub struct {
	livedrawCache cache.LivedrawCache

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub(livedrawCache cache.LivedrawCache) *Hub {
	return &Hub{
		livedrawCache: livedrawCache,
		clients:       make(map[*Client]struct{}),
	}
}

// Register adds a client to the broadcast set. Registering a client twice
// has no further effect.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client. Idempotent: safe to call from any error or
// disconnect path, including for a client that was never registered. After
// it returns no broadcast will target the client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
}

// MemberCount reports the current number of connected clients.
func (h *Hub) MemberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers a message to every current member. Delivery is
// best-effort per member: a client whose send buffer is full is skipped
// (and logged) rather than allowed to stall the rest. Messages passed to
// sequential Broadcast calls are queued in order for every member.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			log.Printf("Dropping broadcast to backed-up client (user %q)", client.user.Id)
		}
	}
}

// InitSubscription wires the hub to the shared drawing channel. Accepted
// drawings are published there by the service layer, so every app instance
// delivers the same stream to its local clients.
func (h *Hub) InitSubscription(shutdownCtx context.Context) error {
	err := h.livedrawCache.Subscribe(shutdownCtx, service.DrawingChannel, func(message []byte) {
		h.Broadcast(message)
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to %s: %v", service.DrawingChannel, err)
		return err
	}

	return nil
}
