package repository

import (
	"errors"

	"github.com/lib/pq"

	"civicvoice/internal/model"
)

// PostgreSQL error codes
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// foreignKeyError translates a foreign key violation into the domain error
// for the missing row, or returns nil when err is something else. Constraint
// names are the ones declared in schema.sql.
func foreignKeyError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqForeignKeyViolation {
		return nil
	}
	switch pqErr.Constraint {
	case "comments_user_id_fkey", "comment_flags_user_id_fkey", "issue_votes_user_id_fkey":
		return model.ErrUnknownUser
	case "comments_issue_id_fkey", "issue_votes_issue_id_fkey":
		return model.ErrIssueNotFound
	case "comments_parent_comment_id_fkey":
		return model.ErrParentNotFound
	case "comment_flags_comment_id_fkey":
		return model.ErrCommentNotFound
	default:
		return nil
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
