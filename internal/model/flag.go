package model

import "time"

// FlagReason is the fixed set of reasons a comment can be flagged for.
type FlagReason string

const (
	FlagSpam          FlagReason = "SPAM"
	FlagInappropriate FlagReason = "INAPPROPRIATE"
	FlagMisleading    FlagReason = "MISLEADING"
	FlagHarassment    FlagReason = "HARASSMENT"
	FlagOther         FlagReason = "OTHER"
)

// FlagReasons lists every accepted reason, in display order.
var FlagReasons = []FlagReason{FlagSpam, FlagInappropriate, FlagMisleading, FlagHarassment, FlagOther}

// FlagCommentRequest is the body of POST /comments/{id}/flag.
type FlagCommentRequest struct {
	Reason  FlagReason `json:"reason" validate:"required,oneof=SPAM INAPPROPRIATE MISLEADING HARASSMENT OTHER"`
	Details *string    `json:"details,omitempty" validate:"omitempty,max=500"`
}

// CommentFlag is an accepted flag as stored and returned by the backend.
type CommentFlag struct {
	ID        string     `db:"id" json:"id"`
	CommentID string     `db:"comment_id" json:"commentId"`
	UserID    string     `db:"user_id" json:"-"`
	Reason    FlagReason `db:"reason" json:"reason"`
	Details   *string    `db:"details" json:"details,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
