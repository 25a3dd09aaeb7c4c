package directory

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a directory change
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserUpdated     EventType = "user_updated"
	EventMeetupSubmitted EventType = "meetup_submitted"
	EventMeetupApproved  EventType = "meetup_approved"
	EventRoomCreated     EventType = "room_created"
	EventMessageSent     EventType = "message_sent"
	EventUserBlocked     EventType = "user_blocked"
	EventRoomRemoved     EventType = "room_removed"
)

// Event describes one effectful mutation. Audience lists the users the
// change concerns; an empty audience means every connected user.
type Event struct {
	Type       EventType   `json:"type"`
	Audience   []uuid.UUID `json:"audience,omitempty"`
	ActorID    uuid.UUID   `json:"actor_id"`
	UserID     uuid.UUID   `json:"user_id"`
	RequestID  uuid.UUID   `json:"request_id"`
	RoomID     uuid.UUID   `json:"room_id"`
	Data       interface{} `json:"data,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Broadcast reports whether the event goes to every connected user
func (e Event) Broadcast() bool { return len(e.Audience) == 0 }

// Concerns reports whether userID is in the audience
func (e Event) Concerns(userID uuid.UUID) bool {
	if e.Broadcast() {
		return true
	}
	for _, id := range e.Audience {
		if id == userID {
			return true
		}
	}
	return false
}

// Subscriber receives directory events in mutation order. Publish is
// called outside the directory lock and may read from the directory, but
// must not mutate it.
type Subscriber interface {
	Publish(event Event)
}

// SubscriberFunc adapts a function to Subscriber
type SubscriberFunc func(event Event)

func (f SubscriberFunc) Publish(event Event) { f(event) }
