package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"ppm-intake-be/internal/pkg/logger"
)

// ClusterChannel carries hub events between instances
const ClusterChannel = "intake_session_events"

type clusterMessage struct {
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: session id -> connections watching it
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, nil on a single instance
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		clients:    make(map[string]map[*Client]struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves registrations until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.SessionID] == nil {
				h.clients[client.SessionID] = make(map[*Client]struct{})
			}
			h.clients[client.SessionID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.SessionID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.done)
				}
				if len(set) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Session has no more clients", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Send delivers an event to every connection of a session. With Redis the
// event goes through the cluster channel, which every instance (this one
// included) relays to its local clients.
func (h *Hub) Send(ctx context.Context, sessionID string, eventType string, data interface{}) error {
	msg, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		return err
	}

	if h.rdb == nil {
		h.deliver(sessionID, msg)
		return nil
	}

	payload, err := json.Marshal(clusterMessage{SessionID: sessionID, Message: msg})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, ClusterChannel, payload).Err()
}

// ClientCount reports local connections of a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) deliver(sessionID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.Send <- msg:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": sessionID})
			go h.Unregister(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	h.relay(ctx, pubsub.Channel())
}

// relay delivers cluster messages until ctx ends or the channel closes
func (h *Hub) relay(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.deliver(payload.SessionID, payload.Message)
		}
	}
}
