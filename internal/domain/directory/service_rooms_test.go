package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func matchedRoom(t *testing.T, s *Service) (*User, *User, *ChatRoom) {
	t.Helper()
	u1 := register(t, s, "u1")
	u2 := register(t, s, "u2")
	res := approve(t, s, submit(t, s, u2), u1)
	if res.Room == nil {
		t.Fatal("expected room from match")
	}
	return u1, u2, res.Room
}

func TestSendMessageUnknownRoomChangesNothing(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1, _, room := matchedRoom(t, s)

	_, err := s.SendMessage(ctx, uuid.New(), u1.ID, "hello")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	stored, err := s.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if len(stored.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(stored.Messages))
	}
}

func TestSendMessageEmptyText(t *testing.T) {
	s := newTestService(t)
	u1, _, room := matchedRoom(t, s)

	_, err := s.SendMessage(context.Background(), room.ID, u1.ID, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	msgs, _ := s.ListMessages(context.Background(), room.ID)
	if len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestSendMessageAppendsInOrder(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1, u2, room := matchedRoom(t, s)

	texts := []string{"hi", "hey!", "coffee at 5?"}
	senders := []uuid.UUID{u1.ID, u2.ID, u1.ID}
	for i, text := range texts {
		msg, err := s.SendMessage(ctx, room.ID, senders[i], text)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if msg.RoomID != room.ID || msg.ID == uuid.Nil || msg.CreatedAt.IsZero() {
			t.Fatalf("unexpected message %+v", msg)
		}

		msgs, err := s.ListMessages(ctx, room.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(msgs) != i+1 {
			t.Fatalf("expected %d messages, got %d", i+1, len(msgs))
		}
	}

	msgs, _ := s.ListMessages(ctx, room.ID)
	for i, msg := range msgs {
		if msg.Text != texts[i] || msg.SenderID != senders[i] {
			t.Fatalf("message %d out of order: %+v", i, msg)
		}
	}
}

// Sender membership is not checked when appending.
func TestSendMessageAcceptsNonParticipantSender(t *testing.T) {
	s := newTestService(t)
	_, _, room := matchedRoom(t, s)
	outsider := register(t, s, "outsider")

	if _, err := s.SendMessage(context.Background(), room.ID, outsider.ID, "hello?"); err != nil {
		t.Fatalf("expected message accepted, got %v", err)
	}
}

func TestRoomParticipantsAreCanonicalAndDistinct(t *testing.T) {
	s := newTestService(t)
	u1, u2, room := matchedRoom(t, s)

	if room.Participant1ID == room.Participant2ID {
		t.Fatal("expected distinct participants")
	}
	if room.GetOtherParticipant(u1.ID) != u2.ID || room.GetOtherParticipant(u2.ID) != u1.ID {
		t.Fatal("expected other participant lookup to work both ways")
	}

	a, ok := s.RoomBetween(context.Background(), u1.ID, u2.ID)
	b, ok2 := s.RoomBetween(context.Background(), u2.ID, u1.ID)
	if !ok || !ok2 || a.ID != room.ID || b.ID != room.ID {
		t.Fatal("expected pair lookup to be order independent")
	}
}

func TestListRoomsByUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	u1, u2, _ := matchedRoom(t, s)
	u3 := register(t, s, "u3")
	approve(t, s, submit(t, s, u3), u1)

	if got := len(s.ListRooms(ctx, u1.ID)); got != 2 {
		t.Fatalf("expected 2 rooms for u1, got %d", got)
	}
	if got := len(s.ListRooms(ctx, u2.ID)); got != 1 {
		t.Fatalf("expected 1 room for u2, got %d", got)
	}
}
