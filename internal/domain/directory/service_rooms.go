package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// createRoom adds an empty room for the pair. Caller holds mu and has
// checked that no room exists for the pair.
func (s *Service) createRoom(x, y uuid.UUID) *ChatRoom {
	p := newPair(x, y)
	room := &ChatRoom{
		ID:             s.newID(),
		Participant1ID: p.a,
		Participant2ID: p.b,
		Messages:       []ChatMessage{},
		CreatedAt:      s.now(),
	}
	s.rooms[room.ID] = room
	s.roomOrder = append(s.roomOrder, room.ID)
	s.roomsByPair[p] = room.ID
	return room
}

// removeRoom deletes a room and its pair index entry. Caller holds mu.
func (s *Service) removeRoom(id uuid.UUID) {
	room, ok := s.rooms[id]
	if !ok {
		return
	}
	delete(s.rooms, id)
	delete(s.roomsByPair, newPair(room.Participant1ID, room.Participant2ID))
	for i, rid := range s.roomOrder {
		if rid == id {
			s.roomOrder = append(s.roomOrder[:i], s.roomOrder[i+1:]...)
			break
		}
	}
}

// SendMessage appends a message to the room. Empty text or an unknown room
// changes nothing. The sender is not checked against the participants.
func (s *Service) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, text string) (*ChatMessage, error) {
	if text == "" {
		return nil, invalidField("text", "This field is required")
	}

	s.lockWrite()

	room, ok := s.rooms[roomID]
	if !ok {
		s.unlockWrite()
		logger.LogDebug(ctx, "message dropped: unknown room", "room_id", roomID.String())
		return nil, ErrRoomNotFound
	}

	msg := ChatMessage{
		ID:        s.newID(),
		RoomID:    room.ID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: s.now(),
	}
	room.Messages = append(room.Messages, msg)

	ev := s.event(EventMessageSent, senderID, room.Participants()...)
	ev.RoomID = room.ID
	ev.Data = msg

	logger.LogDebug(ctx, "message sent",
		"room_id", room.ID.String(),
		"message_id", msg.ID.String(),
	)
	s.unlockAndPublish(ctx, []Event{ev})
	return &msg, nil
}

// GetRoom returns room by ID with its messages
func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.clone(), nil
}

// RoomBetween returns the room pairing two users, if any
func (s *Service) RoomBetween(ctx context.Context, x, y uuid.UUID) (*ChatRoom, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.roomsByPair[newPair(x, y)]
	if !ok {
		return nil, false
	}
	return s.rooms[id].clone(), true
}

// ListRooms returns rooms that include userID in creation order. A nil
// userID lists every room.
func (s *Service) ListRooms(ctx context.Context, userID uuid.UUID) []*ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ChatRoom, 0)
	for _, id := range s.roomOrder {
		room := s.rooms[id]
		if userID == uuid.Nil || room.HasParticipant(userID) {
			out = append(out, room.clone())
		}
	}
	return out
}

// ListMessages returns the room's messages in send order
func (s *Service) ListMessages(ctx context.Context, roomID uuid.UUID) ([]ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return cloneSlice(room.Messages), nil
}
