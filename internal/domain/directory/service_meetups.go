package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/pkg/logger"
	"github.com/orbit/orbit-api/internal/pkg/validator"
)

// SubmitMeetupRequest creates a meetup request with no approvers.
// Location, topic and conversation starter must be non-empty and the
// creator must be registered.
func (s *Service) SubmitMeetupRequest(ctx context.Context, in SubmitMeetupInput) (*MeetupRequest, error) {
	if fields := validator.Validate(&in); fields != nil {
		logger.LogDebug(ctx, "meetup request rejected", "fields", fields)
		return nil, &ValidationError{Fields: fields}
	}

	s.lockWrite()

	if !s.userExists(in.CreatorID) {
		s.unlockWrite()
		return nil, ErrUserNotFound
	}

	req := &MeetupRequest{
		ID:                  s.newID(),
		CreatorID:           in.CreatorID,
		ScheduledAt:         in.ScheduledAt,
		Location:            in.Location,
		Topic:               in.Topic,
		ConversationStarter: in.ConversationStarter,
		Approvers:           []uuid.UUID{},
		CreatedAt:           s.now(),
	}
	s.requests[req.ID] = req
	s.requestOrder = append(s.requestOrder, req.ID)

	out := req.clone()
	ev := s.event(EventMeetupSubmitted, req.CreatorID)
	ev.RequestID = req.ID
	ev.Data = req.clone()

	logger.LogDebug(ctx, "meetup request submitted",
		"request_id", req.ID.String(),
		"creator_id", req.CreatorID.String(),
	)
	s.unlockAndPublish(ctx, []Event{ev})
	return out, nil
}

// ApproveMeetupRequest records approverID as an approver of the request.
//
// A chat room between the creator and the approver is created when the
// approver is not the creator, the creator is not among the approvers, and
// no room already pairs the two. Repeating an approval is a no-op.
func (s *Service) ApproveMeetupRequest(ctx context.Context, requestID, approverID uuid.UUID) (*ApprovalResult, error) {
	s.lockWrite()

	req, ok := s.requests[requestID]
	if !ok {
		s.unlockWrite()
		return nil, ErrRequestNotFound
	}
	if !s.userExists(approverID) {
		s.unlockWrite()
		return nil, ErrUserNotFound
	}
	if req.HasApprover(approverID) {
		out := &ApprovalResult{Outcome: OutcomeNoOp, Request: req.clone()}
		s.unlockWrite()
		logger.LogDebug(ctx, "approval skipped: already approved",
			"request_id", requestID.String(),
			"approver_id", approverID.String(),
		)
		return out, nil
	}

	req.Approvers = append(req.Approvers, approverID)

	approved := s.event(EventMeetupApproved, approverID, req.CreatorID, approverID)
	approved.RequestID = req.ID
	approved.Data = req.clone()
	events := []Event{approved}

	result := &ApprovalResult{Outcome: OutcomeApplied}

	// Evaluated after the append: a creator who approved their own request
	// never matches on it again.
	if approverID != req.CreatorID && !req.HasApprover(req.CreatorID) {
		if _, exists := s.roomsByPair[newPair(req.CreatorID, approverID)]; !exists {
			room := s.createRoom(req.CreatorID, approverID)
			result.Room = room.clone()

			created := s.event(EventRoomCreated, approverID, room.Participants()...)
			created.RoomID = room.ID
			created.RequestID = req.ID
			created.Data = room.clone()
			events = append(events, created)

			logger.LogInfo(ctx, "match created chat room",
				"request_id", req.ID.String(),
				"room_id", room.ID.String(),
			)
		}
	}
	result.Request = req.clone()

	logger.LogDebug(ctx, "meetup request approved",
		"request_id", req.ID.String(),
		"approver_id", approverID.String(),
		"room_created", result.Room != nil,
	)
	s.unlockAndPublish(ctx, events)
	return result, nil
}

// GetMeetupRequest returns a request by ID
func (s *Service) GetMeetupRequest(ctx context.Context, id uuid.UUID) (*MeetupRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return req.clone(), nil
}

// ListMeetupRequests returns matching requests in submission order
func (s *Service) ListMeetupRequests(ctx context.Context, filter MeetupFilter) []*MeetupRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*MeetupRequest, 0, len(s.requestOrder))
	for _, id := range s.requestOrder {
		req := s.requests[id]
		if filter.matches(req) {
			out = append(out, req.clone())
		}
	}
	return out
}
