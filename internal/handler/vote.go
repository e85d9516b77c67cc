package handler

import (
	"encoding/json"
	"net/http"

	"civicvoice/internal/httputil"
	"civicvoice/internal/model"
	"civicvoice/internal/service"
	"civicvoice/internal/transport/http/middleware"
)

type VoteHandler struct {
	voteService *service.VoteService
}

func NewVoteHandler(voteService *service.VoteService) *VoteHandler {
	return &VoteHandler{
		voteService: voteService,
	}
}

// Cast handles POST /issues/:id/vote
// Body is {"voteType": 1} or {"voteType": -1}. Casting the other type moves
// the vote; the response always carries the fresh counters.
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	issueID, ok := uuidParam(w, r, "id", "Invalid issue ID")
	if !ok {
		return
	}

	var req model.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteDomainError(w, r, &model.ValidationError{Field: "voteType", Message: "voteType must be 1 or -1"}, "Invalid request body")
		return
	}

	status, err := h.voteService.Cast(r.Context(), issueID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to cast vote")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

// Remove handles DELETE /issues/:id/vote
func (h *VoteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	issueID, ok := uuidParam(w, r, "id", "Invalid issue ID")
	if !ok {
		return
	}

	status, err := h.voteService.Remove(r.Context(), issueID, userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to remove vote")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

// Status handles GET /issues/:id/vote-status
func (h *VoteHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	issueID, ok := uuidParam(w, r, "id", "Invalid issue ID")
	if !ok {
		return
	}

	status, err := h.voteService.Status(r.Context(), issueID, userID)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to get vote status")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
