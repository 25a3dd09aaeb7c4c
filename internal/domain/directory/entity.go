package directory

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Outcome reports whether a mutating operation changed the directory.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoOp    Outcome = "no_op"
)

// Applied is a convenience for callers that only need a boolean.
func (o Outcome) Applied() bool { return o == OutcomeApplied }

// User represents a registered member of the directory
type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	University   string    `json:"university"`
	Interests    []string  `json:"interests"`
	UniversityID string    `json:"university_id"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) clone() *User {
	c := *u
	c.Interests = cloneSlice(u.Interests)
	return &c
}

// MeetupRequest is a proposal to meet that other users may approve
type MeetupRequest struct {
	ID                  uuid.UUID   `json:"id"`
	CreatorID           uuid.UUID   `json:"creator_id"`
	ScheduledAt         time.Time   `json:"scheduled_at"`
	Location            string      `json:"location"`
	Topic               string      `json:"topic"`
	ConversationStarter string      `json:"conversation_starter"`
	Approvers           []uuid.UUID `json:"approvers"`
	CreatedAt           time.Time   `json:"created_at"`
}

// HasApprover checks if userID already approved the request
func (m *MeetupRequest) HasApprover(userID uuid.UUID) bool {
	for _, id := range m.Approvers {
		if id == userID {
			return true
		}
	}
	return false
}

func (m *MeetupRequest) clone() *MeetupRequest {
	c := *m
	c.Approvers = cloneSlice(m.Approvers)
	return &c
}

// ChatMessage is an immutable message inside a chat room
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRoom is a two-party room created by a match. Participant1ID always
// sorts before Participant2ID.
type ChatRoom struct {
	ID             uuid.UUID     `json:"id"`
	Participant1ID uuid.UUID     `json:"participant1_id"`
	Participant2ID uuid.UUID     `json:"participant2_id"`
	Messages       []ChatMessage `json:"messages"`
	CreatedAt      time.Time     `json:"created_at"`
}

// HasParticipant checks if user is in this room
func (r *ChatRoom) HasParticipant(userID uuid.UUID) bool {
	return r.Participant1ID == userID || r.Participant2ID == userID
}

// GetOtherParticipant returns the other user in the room
func (r *ChatRoom) GetOtherParticipant(userID uuid.UUID) uuid.UUID {
	if r.Participant1ID == userID {
		return r.Participant2ID
	}
	return r.Participant1ID
}

// Participants returns both participant ids
func (r *ChatRoom) Participants() []uuid.UUID {
	return []uuid.UUID{r.Participant1ID, r.Participant2ID}
}

func (r *ChatRoom) clone() *ChatRoom {
	c := *r
	c.Messages = cloneSlice(r.Messages)
	return &c
}

// cloneSlice copies s, keeping nil and empty distinct.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// pair is an unordered pair of user ids in canonical order.
type pair struct {
	a, b uuid.UUID
}

func newPair(x, y uuid.UUID) pair {
	if bytes.Compare(x[:], y[:]) > 0 {
		x, y = y, x
	}
	return pair{a: x, b: y}
}

// Profile is the onboarding form of a new user
type Profile struct {
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	University   string   `json:"university"`
	Interests    []string `json:"interests"`
	UniversityID string   `json:"university_id"`
}

// SubmitMeetupInput holds the fields of a new meetup request
type SubmitMeetupInput struct {
	CreatorID           uuid.UUID `json:"creator_id" validate:"id"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	Location            string    `json:"location" validate:"required"`
	Topic               string    `json:"topic" validate:"required"`
	ConversationStarter string    `json:"conversation_starter" validate:"required"`
}

// MeetupFilter narrows ListMeetupRequests
type MeetupFilter struct {
	CreatorID  uuid.UUID // zero matches all creators
	ApproverID uuid.UUID // zero matches all
}

func (f MeetupFilter) matches(m *MeetupRequest) bool {
	if f.CreatorID != uuid.Nil && m.CreatorID != f.CreatorID {
		return false
	}
	if f.ApproverID != uuid.Nil && !m.HasApprover(f.ApproverID) {
		return false
	}
	return true
}

// ApprovalResult describes the effect of ApproveMeetupRequest
type ApprovalResult struct {
	Outcome Outcome
	Request *MeetupRequest
	// Room is set only when this approval created a chat room
	Room *ChatRoom
}

// BlockResult describes the effect of BlockUser
type BlockResult struct {
	Outcome        Outcome
	RemovedRoomIDs []uuid.UUID
}
