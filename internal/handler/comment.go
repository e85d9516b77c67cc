package handler

import (
	"encoding/json"
	"net/http"

	"civicvoice/internal/httputil"
	"civicvoice/internal/model"
	"civicvoice/internal/service"
	"civicvoice/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List handles GET /issues/:id/comments
// Returns the whole nested tree. sortBy is "newest" (default) or "oldest".
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	issueID, ok := uuidParam(w, r, "id", "Invalid issue ID")
	if !ok {
		return
	}

	sort := model.ParseSortOrder(r.URL.Query().Get("sortBy"))

	comments, err := h.commentService.List(r.Context(), issueID, sort)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to get comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}

// Create handles POST /issues/:id/comments
// Creates a comment, or a reply when parentCommentId is set.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	issueID, ok := uuidParam(w, r, "id", "Invalid issue ID")
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ParentCommentID != nil && !validUUID(*req.ParentCommentID) {
		httputil.WriteNotFound(w, model.ErrParentNotFound.Error())
		return
	}

	comment, err := h.commentService.Create(r.Context(), issueID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to create comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update handles PUT /comments/:id
// Only the author may edit.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := uuidParam(w, r, "id", "Invalid comment ID")
	if !ok {
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to update comment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/:id
// Deletes a comment and all of its replies (only owner can delete).
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := uuidParam(w, r, "id", "Invalid comment ID")
	if !ok {
		return
	}

	if err := h.commentService.Delete(r.Context(), commentID, userID); err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to delete comment")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// Flag handles POST /comments/:id/flag
func (h *CommentHandler) Flag(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, ok := uuidParam(w, r, "id", "Invalid comment ID")
	if !ok {
		return
	}

	var req model.FlagCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	flag, err := h.commentService.Flag(r.Context(), commentID, userID, req)
	if err != nil {
		httputil.WriteDomainError(w, r, err, "Failed to flag comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, flag)
}
