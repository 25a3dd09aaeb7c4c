package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/errorhandler"
	"github.com/orbit/orbit-api/internal/pkg/logger"
	"github.com/orbit/orbit-api/internal/pkg/response"
	"github.com/orbit/orbit-api/internal/pkg/validator"
)

// WebSocket constants
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Directory is the part of the directory the chat handlers use
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*directory.ChatRoom, error)
	ListRooms(ctx context.Context, userID uuid.UUID) []*directory.ChatRoom
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]directory.ChatMessage, error)
	SendMessage(ctx context.Context, roomID, senderID uuid.UUID, text string) (*directory.ChatMessage, error)
}

// Handler handles chat HTTP requests
type Handler struct {
	dir         Directory
	hub         *Hub
	rateLimiter *RateLimiter
	upgrader    websocket.Upgrader
}

// RateLimiter for chat messages
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new rate limiter. A nil client allows everything.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Allow checks if user can send message
func (rl *RateLimiter) Allow(ctx context.Context, userID uuid.UUID) bool {
	if rl == nil || rl.redis == nil {
		return true
	}

	key := fmt.Sprintf("orbit:ratelimit:chat:%s", userID)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return true // Fail open
	}

	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}

	return count <= int64(rl.limit)
}

// NewHandler creates chat handler
func NewHandler(dir Directory, hub *Hub, rateLimiter *RateLimiter, allowedOrigins []string) *Handler {
	return &Handler{
		dir:         dir,
		hub:         hub,
		rateLimiter: rateLimiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				if len(allowedOrigins) == 0 || origin == "" {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				logger.LogWarn(r.Context(), "WebSocket origin rejected", "origin", origin)
				return false
			},
		},
	}
}

// ListRooms handles GET /chat/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rooms := h.dir.ListRooms(r.Context(), userID)
	items := make([]*RoomResponse, len(rooms))
	for i, room := range rooms {
		items[i] = RoomResponseFromEntity(room, userID, h.participants(r.Context(), room))
	}

	response.List(w, items, len(items))
}

// GetRoom handles GET /chat/rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.memberRoom(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	msgs := make([]*MessageResponse, len(room.Messages))
	for i, m := range room.Messages {
		msgs[i] = MessageResponseFromEntity(m, userID)
	}

	response.OK(w, RoomDetailResponse{
		RoomResponse: *RoomResponseFromEntity(room, userID, h.participants(r.Context(), room)),
		Messages:     msgs,
	})
}

// GetMessages handles GET /chat/rooms/{id}/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	room, ok := h.memberRoom(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())
	items := make([]*MessageResponse, len(room.Messages))
	for i, m := range room.Messages {
		items[i] = MessageResponseFromEntity(m, userID)
	}

	response.List(w, items, len(items))
}

// SendMessage handles POST /chat/rooms/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	room, ok := h.memberRoom(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	if !h.rateLimiter.Allow(r.Context(), userID) {
		response.TooManyRequests(w)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		errorhandler.HandleValidation(r.Context(), w, fields)
		return
	}

	msg, err := h.dir.SendMessage(r.Context(), room.ID, userID, req.Text)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	response.Created(w, MessageResponseFromEntity(*msg, userID))
}

// memberRoom loads the room named in the URL and checks that the actor is
// one of its participants.
func (h *Handler) memberRoom(w http.ResponseWriter, r *http.Request) (*directory.ChatRoom, bool) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return nil, false
	}

	room, err := h.dir.GetRoom(r.Context(), roomID)
	if err != nil {
		writeError(r.Context(), w, err)
		return nil, false
	}

	if !room.HasParticipant(middleware.GetUserID(r.Context())) {
		response.Forbidden(w, "You are not a member of this chat")
		return nil, false
	}
	return room, true
}

func (h *Handler) participants(ctx context.Context, room *directory.ChatRoom) []ParticipantInfo {
	out := make([]ParticipantInfo, 0, 2)
	for _, id := range room.Participants() {
		u, err := h.dir.GetUser(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, ParticipantInfo{ID: u.ID, FullName: u.FullName, University: u.University})
	}
	return out
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *directory.ValidationError
	switch {
	case errors.As(err, &verr):
		errorhandler.HandleValidation(ctx, w, verr.Fields)
	case errors.Is(err, directory.ErrRoomNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Room not found", err)
	case errors.Is(err, directory.ErrUserNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "User not found", err)
	default:
		errorhandler.HandleInternal(ctx, w, err)
	}
}

// WebSocket handles WS /ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.LogError(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := h.hub.NewConnection(userID, conn)
	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", client.UserID.String()).Msg("WebSocket read error")
			}
			break
		}

		var event wsInbound
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		h.handleInbound(context.Background(), client.UserID, event)
	}
}

// handleInbound processes one client frame. Frames for rooms the user is
// not part of are ignored.
func (h *Handler) handleInbound(ctx context.Context, userID uuid.UUID, event wsInbound) {
	room, err := h.dir.GetRoom(ctx, event.RoomID)
	if err != nil || !room.HasParticipant(userID) {
		return
	}

	switch event.Type {
	case "typing":
		h.hub.Publish(directory.Event{
			Type:       EventTyping,
			Audience:   []uuid.UUID{room.GetOtherParticipant(userID)},
			ActorID:    userID,
			RoomID:     room.ID,
			OccurredAt: time.Now(),
		})
	case "send_message":
		if event.Text == "" || !h.rateLimiter.Allow(ctx, userID) {
			return
		}
		// Delivery to both participants happens through the directory event.
		if _, err := h.dir.SendMessage(ctx, room.ID, userID, event.Text); err != nil {
			log.Debug().Err(err).Str("user_id", userID.String()).Msg("WebSocket message rejected")
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
