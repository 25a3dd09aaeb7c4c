package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
)

// SendMessageRequest for WebSocket/POST
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// wsInbound is a frame sent by a WebSocket client
type wsInbound struct {
	Type   string    `json:"type"`
	RoomID uuid.UUID `json:"room_id"`
	Text   string    `json:"text,omitempty"`
}

// RoomResponse represents room in API
type RoomResponse struct {
	ID           uuid.UUID         `json:"id"`
	Participants []ParticipantInfo `json:"participants"`
	OtherUserID  uuid.UUID         `json:"other_user_id"`
	MessageCount int               `json:"message_count"`
	LastMessage  *MessageResponse  `json:"last_message,omitempty"`
	CreatedAt    string            `json:"created_at"`
}

// RoomDetailResponse is a room with its full message history
type RoomDetailResponse struct {
	RoomResponse
	Messages []*MessageResponse `json:"messages"`
}

// ParticipantInfo for room response
type ParticipantInfo struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	University string    `json:"university"`
}

// MessageResponse represents message in API
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	IsMine    bool      `json:"is_mine"`
	CreatedAt string    `json:"created_at"`
}

// MessageResponseFromEntity converts a message for the viewer
func MessageResponseFromEntity(m directory.ChatMessage, viewerID uuid.UUID) *MessageResponse {
	return &MessageResponse{
		ID:        m.ID,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		IsMine:    m.SenderID == viewerID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

// RoomResponseFromEntity converts a room for the viewer. participants may
// miss entries for users that cannot be resolved.
func RoomResponseFromEntity(room *directory.ChatRoom, viewerID uuid.UUID, participants []ParticipantInfo) *RoomResponse {
	resp := &RoomResponse{
		ID:           room.ID,
		Participants: participants,
		OtherUserID:  room.GetOtherParticipant(viewerID),
		MessageCount: len(room.Messages),
		CreatedAt:    room.CreatedAt.Format(time.RFC3339),
	}
	if n := len(room.Messages); n > 0 {
		resp.LastMessage = MessageResponseFromEntity(room.Messages[n-1], viewerID)
	}
	return resp
}
