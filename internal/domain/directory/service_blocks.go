package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/pkg/logger"
)

// BlockUser records that blockerID blocked blockedID and removes any chat
// room between the two. The relation is one-directional and permanent: the
// reverse direction is not added and there is no unblock.
func (s *Service) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) (*BlockResult, error) {
	if blockerID == blockedID {
		return nil, invalidField("blocked_id", "Cannot block yourself")
	}

	s.lockWrite()

	if !s.userExists(blockerID) || !s.userExists(blockedID) {
		s.unlockWrite()
		return nil, ErrUserNotFound
	}

	var events []Event
	result := &BlockResult{Outcome: OutcomeNoOp, RemovedRoomIDs: []uuid.UUID{}}

	if !s.hasBlocked(blockerID, blockedID) {
		s.blocks[blockerID] = append(s.blocks[blockerID], blockedID)
		result.Outcome = OutcomeApplied

		ev := s.event(EventUserBlocked, blockerID, blockerID)
		ev.UserID = blockedID
		events = append(events, ev)
	}

	// Runs even when the block already existed: a match made after the
	// block re-creates the room and a repeated block removes it again.
	if id, ok := s.roomsByPair[newPair(blockerID, blockedID)]; ok {
		room := s.rooms[id]
		s.removeRoom(id)
		result.RemovedRoomIDs = append(result.RemovedRoomIDs, id)
		result.Outcome = OutcomeApplied

		ev := s.event(EventRoomRemoved, blockerID, room.Participants()...)
		ev.RoomID = id
		events = append(events, ev)
	}

	logger.LogDebug(ctx, "block processed",
		"blocker_id", blockerID.String(),
		"blocked_id", blockedID.String(),
		"outcome", string(result.Outcome),
		"rooms_removed", len(result.RemovedRoomIDs),
	)
	s.unlockAndPublish(ctx, events)
	return result, nil
}

// HasBlocked checks if blockerID has blocked targetID
func (s *Service) HasBlocked(ctx context.Context, blockerID, targetID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasBlocked(blockerID, targetID)
}

// ListBlocked returns the users blocked by userID in block order
func (s *Service) ListBlocked(ctx context.Context, userID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]uuid.UUID, len(s.blocks[userID]))
	copy(out, s.blocks[userID])
	return out
}

func (s *Service) hasBlocked(blockerID, targetID uuid.UUID) bool {
	for _, id := range s.blocks[blockerID] {
		if id == targetID {
			return true
		}
	}
	return false
}
