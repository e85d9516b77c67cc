package model

import (
	"time"
)

// Comment is a node of an issue's discussion tree.
// Replies may nest to any depth even though clients usually render one level.
type Comment struct {
	ID              string    `db:"id" json:"id"`
	IssueID         string    `db:"issue_id" json:"issueId"`
	Content         string    `db:"content" json:"content"`
	AuthorID        string    `db:"user_id" json:"authorId"`
	AuthorName      string    `db:"author_name" json:"authorName"`
	AuthorAvatarURL *string   `db:"author_avatar_url" json:"authorAvatarUrl,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
	ParentID        *string   `db:"parent_comment_id" json:"parentId,omitempty"`
	IsFlagged       bool      `db:"is_flagged" json:"isFlagged"`
	FlagCount       int       `db:"flag_count" json:"flagCount"`

	Replies    []Comment `db:"-" json:"replies"`
	ReplyCount int       `db:"-" json:"replyCount"`
}

// IsTopLevel reports whether the comment has no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// IsEdited reports whether the content changed after the comment was posted.
func (c Comment) IsEdited() bool {
	return !c.UpdatedAt.IsZero() && c.UpdatedAt.After(c.CreatedAt)
}

// CreateCommentRequest is the body of POST /issues/{id}/comments.
type CreateCommentRequest struct {
	Content         string  `json:"content" validate:"required,max=1000"`
	ParentCommentID *string `json:"parentCommentId,omitempty" validate:"omitempty,min=1"`
}

// UpdateCommentRequest is the body of PUT /comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentListResponse is returned by GET /issues/{id}/comments.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// SortOrder controls the order of comments returned by the backend.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder returns SortNewest for anything it does not recognise.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortOldest {
		return SortOldest
	}
	return SortNewest
}

// Comment constraints
const (
	MaxCommentLength     = 1000
	MaxFlagDetailsLength = 500
)

// Comment errors
var (
	ErrIssueNotFound     = newDomainError(ErrNotFound, "issue not found")
	ErrCommentNotFound   = newDomainError(ErrNotFound, "comment not found")
	ErrParentNotFound    = newDomainError(ErrNotFound, "parent comment not found")
	ErrNotCommentOwner   = newDomainError(ErrForbidden, "not the owner of this comment")
	ErrCannotFlagOwn     = newDomainError(ErrForbidden, "cannot flag your own comment")
	ErrAlreadyFlagged    = newDomainError(ErrConflict, "comment already flagged by this user")
	ErrContentRequired   = newDomainError(ErrValidation, "comment content is required")
	ErrContentTooLong    = newDomainError(ErrValidation, "comment content too long")
	ErrFlagReasonMissing = newDomainError(ErrValidation, "flag reason is required")
	ErrUnknownUser       = newDomainError(ErrAuthRequired, "user not found")
	ErrParentMismatch    = newDomainError(ErrValidation, "parent comment does not belong to this issue")
)
