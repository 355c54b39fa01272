package websocket

import (
	"context"
	"log/slog"
	"time"

	"huddle.websocket.go/internal/metrics"
	"huddle.websocket.go/internal/presence"
	"huddle.websocket.go/internal/ratelimit"
	"huddle.websocket.go/internal/shared"
	"huddle.websocket.go/internal/signaling"
	"huddle.websocket.go/internal/store"
)

// Session is the shared mutable state of the relay. Only the hub loop
// touches it.
type Session struct {
	Store    *store.Store
	Limiter  *ratelimit.Limiter
	Presence *presence.Registry
}

type HubOptions struct {
	// OnStoreChanged receives a detached snapshot after every accepted
	// append, edit, delete or reaction. It runs on the hub loop and must
	// not block.
	OnStoreChanged func([]store.Message)
	Mirror         EventPublisher
	Now            func() time.Time
}

// Inbound is one raw frame read from a client, or its disconnect notice.
// Both travel the same queue so a client's last frames are handled before
// its teardown.
type Inbound struct {
	Client *Client
	Data   []byte
	Closed bool
}

// Hub serializes every connection event through Run so that the session
// state never sees interleaved mutations.
type Hub struct {
	clients  map[string]*Client
	session  *Session
	relay    *signaling.Relay
	handlers map[string]handlerFunc
	opts     HubOptions
	logger   *slog.Logger
	evicted  []*Client
	Register chan *Client
	Inbound  chan *Inbound
	done     chan struct{}
}

func NewHub(logger *slog.Logger, session *Session, opts HubOptions) *Hub {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &Hub{
		clients:  make(map[string]*Client),
		session:  session,
		opts:     opts,
		logger:   logger,
		Register: make(chan *Client),
		Inbound:  make(chan *Inbound, 256),
		done:     make(chan struct{}),
	}
	h.relay = signaling.NewRelay(h)
	h.handlers = h.dispatchTable()
	metrics.StoredMessages.Set(float64(session.Store.Len()))
	return h
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.Register:
			h.register(client)

		case in := <-h.Inbound:
			if in.Closed {
				h.disconnect(in.Client)
			} else {
				h.dispatch(in.Client, in.Data)
			}
		}
		h.drainEvictions()
	}
}

// Admit hands a new client to the hub. It reports false if the hub has
// already stopped.
func (h *Hub) Admit(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) isLive(client *Client) bool {
	current, ok := h.clients[client.ID]
	return ok && current == client
}

// register seeds the new connection before it becomes visible to any
// broadcast, so its history can never miss a concurrent message.
func (h *Hub) register(client *Client) {
	if client == nil {
		return
	}
	h.clients[client.ID] = client
	metrics.ActiveConnections.Inc()

	h.send(client, shared.EventWelcome, shared.Welcome{ID: client.ID})
	h.send(client, shared.EventPreviousMessages, h.session.Store.Snapshot())
	h.send(client, shared.EventVoiceUpdate, shared.VoiceRoster{Roster: h.session.Presence.Roster()})

	h.logger.Info("client registered", "client", client.ID, "clients", len(h.clients))
}

// disconnect tears down every trace of a connection. It is safe to call
// for a client that was already removed.
func (h *Hub) disconnect(client *Client) {
	if client == nil {
		return
	}
	if h.isLive(client) {
		delete(h.clients, client.ID)
		close(client.Send)
		metrics.ActiveConnections.Dec()
		h.logger.Info("client unregistered", "client", client.ID, "clients", len(h.clients))
	}

	h.session.Limiter.Forget(client.ID)
	if entry, left := h.session.Presence.Leave(client.ID); left {
		metrics.VoiceParticipants.Set(float64(h.session.Presence.Len()))
		h.broadcast(shared.EventVoiceLeave, shared.VoiceChange{User: entry, Roster: h.session.Presence.Roster()}, nil)
	}
}

func (h *Hub) send(client *Client, event string, payload interface{}) bool {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to marshal outbound event", "event", event, "error", err)
		return false
	}
	return h.enqueue(client, data)
}

// broadcast delivers to every connection except the given one, which may be nil.
func (h *Hub) broadcast(event string, payload interface{}, except *Client) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", "event", event, "error", err)
		return
	}
	for _, client := range h.clients {
		if client == except {
			continue
		}
		h.enqueue(client, data)
	}
}

func (h *Hub) enqueue(client *Client, data []byte) bool {
	if client.evicting {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		client.evicting = true
		h.evicted = append(h.evicted, client)
		return false
	}
}

// drainEvictions disconnects clients whose buffers overflowed. Their
// departures may overflow further buffers, so it runs until the queue is empty.
func (h *Hub) drainEvictions() {
	for len(h.evicted) > 0 {
		client := h.evicted[0]
		h.evicted = h.evicted[1:]
		metrics.SlowConsumersEvicted.Inc()
		h.logger.Warn("client removed due to full send buffer", "client", client.ID)
		h.disconnect(client)
	}
}

// Deliver implements signaling.Deliverer.
func (h *Hub) Deliver(connID, event string, payload interface{}) bool {
	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.send(client, event, payload)
}

func (h *Hub) storeChanged() {
	metrics.StoredMessages.Set(float64(h.session.Store.Len()))
	if h.opts.OnStoreChanged != nil {
		h.opts.OnStoreChanged(h.session.Store.Snapshot())
	}
}

func (h *Hub) mirror(routingKey string, body interface{}) {
	if h.opts.Mirror != nil {
		h.opts.Mirror.Enqueue(routingKey, body)
	}
}

func (h *Hub) shutdownClients() {
	h.logger.Info("shutting down all client connections", "clients", len(h.clients))
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
		metrics.ActiveConnections.Dec()
	}
}
