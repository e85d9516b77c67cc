package repository

import (
	"context"

	"civicvoice/internal/model"
)

type IssueRepository interface {
	Exists(ctx context.Context, issueID string) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, issueID, userID, content string, parentID *string) (*model.Comment, error)
	// Update changes the content. Only the author may update.
	Update(ctx context.Context, commentID, userID, content string) (*model.Comment, error)
	// Delete removes a comment and every reply beneath it. Only the author may
	// delete. Returns the issue the comment belonged to and how many rows went.
	Delete(ctx context.Context, commentID, userID string) (issueID string, deleted int, err error)
	GetByID(ctx context.Context, commentID string) (*model.Comment, error)
	// ListByIssue returns every comment of an issue as flat rows, ordered by
	// creation time per sort.
	ListByIssue(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error)
	// Flag stores a flag and bumps the comment's counters in one transaction.
	// Returns ErrAlreadyFlagged when the user flagged this comment before.
	Flag(ctx context.Context, flag *model.CommentFlag) error
}

type VoteRepository interface {
	// Cast sets the user's vote and adjusts the issue counters atomically.
	Cast(ctx context.Context, issueID, userID string, voteType model.VoteType) (model.VoteAggregate, error)
	// Remove clears the user's vote. Returns ErrNoVote when there was none.
	Remove(ctx context.Context, issueID, userID string) (model.VoteAggregate, error)
	// Get returns the user's vote, VoteNone when absent.
	Get(ctx context.Context, issueID, userID string) (model.VoteType, error)
	// Counts returns the issue's counters.
	Counts(ctx context.Context, issueID string) (upvotes, downvotes int, err error)
}
