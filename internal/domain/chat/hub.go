package chat

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// Client-originated events relayed through the hub without touching the
// directory.
const (
	EventTyping directory.EventType = "typing"
)

// Redis keys
const (
	eventsChannel = "orbit:events"
	presenceKey   = "orbit:presence:online"
)

var (
	wsConnectionsGauge   = expvar.NewInt("websocket_connections")
	wsEventsSentTotal    = expvar.NewInt("websocket_events_sent_total")
	wsEventsDroppedTotal = expvar.NewInt("websocket_events_dropped_total")
)

// WSEvent is the frame written to WebSocket clients
type WSEvent struct {
	Type       directory.EventType `json:"type"`
	ActorID    *uuid.UUID          `json:"actor_id,omitempty"`
	UserID     *uuid.UUID          `json:"user_id,omitempty"`
	RequestID  *uuid.UUID          `json:"request_id,omitempty"`
	RoomID     *uuid.UUID          `json:"room_id,omitempty"`
	Data       interface{}         `json:"data,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

func frameFromEvent(ev directory.Event) WSEvent {
	return WSEvent{
		Type:       ev.Type,
		ActorID:    optionalID(ev.ActorID),
		UserID:     optionalID(ev.UserID),
		RequestID:  optionalID(ev.RequestID),
		RoomID:     optionalID(ev.RoomID),
		Data:       ev.Data,
		OccurredAt: ev.OccurredAt,
	}
}

// optionalID leaves unset ids out of the frame
func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub fans directory events out to the WebSocket connections of the users
// they concern. With Redis configured every event goes through the
// orbit:events channel so that all instances deliver it to their own
// connections.
type Hub struct {
	// Local connections (this server instance only)
	connections map[uuid.UUID]map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	sendBuffer int
}

// NewHub creates a hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, sendBuffer int) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if sendBuffer <= 0 {
		sendBuffer = 256
	}

	h := &Hub{
		connections: make(map[uuid.UUID]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		sendBuffer:  sendBuffer,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, eventsChannel)
	}

	return h
}

// NewConnection wraps conn with a send buffer sized for this hub
func (h *Hub) NewConnection(userID uuid.UUID, conn *websocket.Conn) *Connection {
	return &Connection{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, h.sendBuffer),
	}
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			wsConnectionsGauge.Add(1)

			h.publishPresence(conn.UserID, true)
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User connected to WebSocket")

		case conn := <-h.unregister:
			wentOffline := false
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					wsConnectionsGauge.Add(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
					wentOffline = true
				}
			}
			h.mu.Unlock()

			if wentOffline {
				h.publishPresence(conn.UserID, false)
			}
			log.Debug().Str("user_id", conn.UserID.String()).Msg("User disconnected from WebSocket")
		}
	}
}

// runRedisSubscriber delivers events published by any instance, this one
// included.
func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var ev directory.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed event from Redis")
				continue
			}
			h.deliverLocal(ev)
		}
	}
}

// Publish implements directory.Subscriber
func (h *Hub) Publish(ev directory.Event) {
	log.Debug().Str("event_type", string(ev.Type)).Msg("Publishing WebSocket event")

	if h.redis == nil {
		h.deliverLocal(ev)
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal WebSocket event")
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()
	if err := h.redis.Publish(ctx, eventsChannel, data).Err(); err != nil {
		logger.LogError(ctx, err, "Redis publish failed", "channel", eventsChannel)
		// Fallback to local delivery
		h.deliverLocal(ev)
	}
}

// deliverLocal sends ev to the connections on THIS server that it concerns
func (h *Hub) deliverLocal(ev directory.Event) {
	data, err := json.Marshal(frameFromEvent(ev))
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if ev.Broadcast() {
		for userID, conns := range h.connections {
			h.send(userID, conns, data)
		}
		return
	}
	for _, userID := range ev.Audience {
		if conns, ok := h.connections[userID]; ok {
			h.send(userID, conns, data)
		}
	}
}

// send writes data to every connection of a user. Caller holds mu.
func (h *Hub) send(userID uuid.UUID, conns map[*Connection]bool, data []byte) {
	for conn := range conns {
		select {
		case conn.Send <- data:
			wsEventsSentTotal.Add(1)
		default:
			wsEventsDroppedTotal.Add(1)
			logger.LogWarn(h.ctx, "WebSocket send buffer full", "user_id", userID.String())
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// publishPresence records user online/offline status in Redis
func (h *Hub) publishPresence(userID uuid.UUID, online bool) {
	if h.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()

	if online {
		h.redis.SAdd(ctx, presenceKey, userID.String())
		h.redis.Expire(ctx, presenceKey, 5*time.Minute)
	} else {
		h.redis.SRem(ctx, presenceKey, userID.String())
	}
}

// IsOnline checks if user is online (across all servers)
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	if h.redis == nil {
		h.mu.RLock()
		conns, ok := h.connections[userID]
		h.mu.RUnlock()
		return ok && len(conns) > 0
	}

	return h.redis.SIsMember(h.ctx, presenceKey, userID.String()).Val()
}

// GetConnectionCount returns number of local connections
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
