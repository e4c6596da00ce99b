package signaling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Hub is the single goroutine that owns the room registry. Registration,
// every inbound message and every disconnect are handled one at a time.
type Hub struct {
	registry *Registry
	logger   *slog.Logger

	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan *Message
	queries    chan func(*Registry)

	done chan struct{}
}

// NewHub creates a hub around registry.
func NewHub(registry *Registry, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		registry:   registry,
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		queries:    make(chan func(*Registry)),
		done:       make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("client registered", "conn", client.id, "addr", client.conn.RemoteAddr())

		case client := <-h.unregister:
			h.safely(client, func() { h.drop(client) })

		case msg := <-h.inbound:
			h.safely(msg.client, func() { h.handle(msg) })

		case query := <-h.queries:
			query(h.registry)

		case <-ctx.Done():
			for client := range h.clients {
				closeQueue(client)
			}
			clear(h.clients)
			h.logger.Info("hub stopped", "rooms", h.registry.Len())
			return
		}
	}
}

func (h *Hub) handle(msg *Message) {
	client := msg.client
	if _, ok := h.clients[client]; !ok {
		return
	}

	err := client.session.Handle(h.registry, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrLeave):
		h.drop(client)
	case errors.Is(err, ErrRoomFull):
		client.logger.Info("join rejected", "err", err)
	default:
		client.logger.Debug("message dropped", "type", msg.Type, "err", err)
	}
}

// drop leaves the client's room and closes its outbound queue. WritePump then
// closes the connection. Dropping twice is a no-op.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	defer closeQueue(client)
	client.session.Close(h.registry)
	h.logger.Debug("client unregistered", "conn", client.id)
}

// evict forgets a client whose handling panicked, without touching the
// registry again. Its WritePump still sends the close frame.
func (h *Hub) evict(client *Client) {
	delete(h.clients, client)
	closeQueue(client)
}

func closeQueue(client *Client) {
	if client.closed {
		return
	}
	client.closed = true
	close(client.send)
}

// safely keeps a fault in one connection's handling from stopping the hub.
// The faulting connection is closed.
func (h *Hub) safely(client *Client, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("recovered from panic", "conn", client.id, "panic", fmt.Sprint(r))
			h.evict(client)
		}
	}()
	fn()
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection, leaving its room.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch hands an inbound message to the hub. It reports false once the
// hub has stopped.
func (h *Hub) Dispatch(msg *Message) bool {
	select {
	case h.inbound <- msg:
		return true
	case <-h.done:
		return false
	}
}

// Rooms returns a snapshot of the registry taken on the hub goroutine.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	reply := make(chan []RoomInfo, 1)
	query := func(r *Registry) { reply <- r.Snapshot() }

	select {
	case h.queries <- query:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

var ErrHubStopped = errors.New("hub stopped")
