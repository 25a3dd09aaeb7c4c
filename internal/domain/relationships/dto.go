package relationships

import (
	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
)

// BlockResponse for POST /relationships/blocks/{id}
type BlockResponse struct {
	BlockedUserID  uuid.UUID   `json:"blocked_user_id"`
	Applied        bool        `json:"applied"`
	Outcome        string      `json:"outcome"`
	RemovedRoomIDs []uuid.UUID `json:"removed_room_ids"`
}

// BlockedUserResponse represents a blocked user in API response
type BlockedUserResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	FullName   string    `json:"full_name,omitempty"`
	University string    `json:"university,omitempty"`
}

// BlockResponseFromResult converts a block result to response
func BlockResponseFromResult(blockedID uuid.UUID, res *directory.BlockResult) *BlockResponse {
	return &BlockResponse{
		BlockedUserID:  blockedID,
		Applied:        res.Outcome.Applied(),
		Outcome:        string(res.Outcome),
		RemovedRoomIDs: res.RemovedRoomIDs,
	}
}
