package meetup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orbit/orbit-api/internal/domain/directory"
	"github.com/orbit/orbit-api/internal/middleware"
	"github.com/orbit/orbit-api/internal/pkg/errorhandler"
	"github.com/orbit/orbit-api/internal/pkg/response"
	"github.com/orbit/orbit-api/internal/pkg/validator"
)

// Directory is the part of the directory the meetup handlers use
type Directory interface {
	SubmitMeetupRequest(ctx context.Context, in directory.SubmitMeetupInput) (*directory.MeetupRequest, error)
	ApproveMeetupRequest(ctx context.Context, requestID, approverID uuid.UUID) (*directory.ApprovalResult, error)
	GetMeetupRequest(ctx context.Context, id uuid.UUID) (*directory.MeetupRequest, error)
	ListMeetupRequests(ctx context.Context, filter directory.MeetupFilter) []*directory.MeetupRequest
}

// Handler handles meetup HTTP requests
type Handler struct {
	dir Directory
}

// NewHandler creates meetup handler
func NewHandler(dir Directory) *Handler {
	return &Handler{dir: dir}
}

// Submit handles POST /meetups
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if fields := validator.Validate(&req); fields != nil {
		errorhandler.HandleValidation(r.Context(), w, fields)
		return
	}

	userID := middleware.GetUserID(r.Context())
	m, err := h.dir.SubmitMeetupRequest(r.Context(), directory.SubmitMeetupInput{
		CreatorID:           userID,
		ScheduledAt:         req.ScheduledAt,
		Location:            req.Location,
		Topic:               req.Topic,
		ConversationStarter: req.ConversationStarter,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	response.Created(w, MeetupResponseFromEntity(m, userID))
}

// List handles GET /meetups
// Optional filters: creator_id, approver_id.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter directory.MeetupFilter
	q := r.URL.Query()
	for param, dst := range map[string]*uuid.UUID{
		"creator_id":  &filter.CreatorID,
		"approver_id": &filter.ApproverID,
	} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid "+param)
			return
		}
		*dst = id
	}

	userID := middleware.GetUserID(r.Context())
	meetups := h.dir.ListMeetupRequests(r.Context(), filter)
	items := make([]*MeetupResponse, len(meetups))
	for i, m := range meetups {
		items[i] = MeetupResponseFromEntity(m, userID)
	}

	response.List(w, items, len(items))
}

// Get handles GET /meetups/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid meetup ID")
		return
	}

	m, err := h.dir.GetMeetupRequest(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	response.OK(w, MeetupResponseFromEntity(m, middleware.GetUserID(r.Context())))
}

// Approve handles POST /meetups/{id}/approve
// Approving someone else's request matches the two users into a chat room.
// Approving twice answers 200 with applied=false.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid meetup ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	res, err := h.dir.ApproveMeetupRequest(r.Context(), id, userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	response.OK(w, ApproveResponseFromResult(res, userID))
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *directory.ValidationError
	switch {
	case errors.As(err, &verr):
		errorhandler.HandleValidation(ctx, w, verr.Fields)
	case errors.Is(err, directory.ErrRequestNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Meetup request not found", err)
	case errors.Is(err, directory.ErrUserNotFound):
		errorhandler.HandleError(ctx, w, http.StatusNotFound, "NOT_FOUND", "User not found", err)
	default:
		errorhandler.HandleInternal(ctx, w, err)
	}
}
