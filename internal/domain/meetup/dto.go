package meetup

import (
	"time"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
)

// SubmitRequest for POST /meetups. The creator is the authenticated user.
type SubmitRequest struct {
	ScheduledAt         time.Time `json:"scheduled_at"`
	Location            string    `json:"location" validate:"max=200"`
	Topic               string    `json:"topic" validate:"max=200"`
	ConversationStarter string    `json:"conversation_starter" validate:"max=500"`
}

// MeetupResponse represents a meetup request in API response
type MeetupResponse struct {
	ID                  uuid.UUID   `json:"id"`
	CreatorID           uuid.UUID   `json:"creator_id"`
	ScheduledAt         string      `json:"scheduled_at"`
	Location            string      `json:"location"`
	Topic               string      `json:"topic"`
	ConversationStarter string      `json:"conversation_starter"`
	Approvers           []uuid.UUID `json:"approvers"`
	ApprovedByMe        bool        `json:"approved_by_me"`
	CreatedAt           string      `json:"created_at"`
}

// ApproveResponse for POST /meetups/{id}/approve
type ApproveResponse struct {
	Applied bool            `json:"applied"`
	Outcome string          `json:"outcome"`
	Meetup  *MeetupResponse `json:"meetup"`
	// RoomID is set when the approval created a chat room
	RoomID *uuid.UUID `json:"room_id,omitempty"`
}

// MeetupResponseFromEntity converts a meetup request for the viewer
func MeetupResponseFromEntity(m *directory.MeetupRequest, viewerID uuid.UUID) *MeetupResponse {
	return &MeetupResponse{
		ID:                  m.ID,
		CreatorID:           m.CreatorID,
		ScheduledAt:         m.ScheduledAt.Format(time.RFC3339),
		Location:            m.Location,
		Topic:               m.Topic,
		ConversationStarter: m.ConversationStarter,
		Approvers:           m.Approvers,
		ApprovedByMe:        m.HasApprover(viewerID),
		CreatedAt:           m.CreatedAt.Format(time.RFC3339),
	}
}

// ApproveResponseFromResult converts an approval result for the approver
func ApproveResponseFromResult(res *directory.ApprovalResult, viewerID uuid.UUID) *ApproveResponse {
	resp := &ApproveResponse{
		Applied: res.Outcome.Applied(),
		Outcome: string(res.Outcome),
		Meetup:  MeetupResponseFromEntity(res.Request, viewerID),
	}
	if res.Room != nil {
		id := res.Room.ID
		resp.RoomID = &id
	}
	return resp
}
