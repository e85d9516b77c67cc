package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"civicvoice/internal/model"
)

const commentColumns = `
	c.id, c.issue_id, c.user_id, c.content, c.parent_comment_id,
	c.is_flagged, c.flag_count, c.created_at, c.updated_at,
	COALESCE(u.display_name, u.username) AS author_name,
	u.avatar_url AS author_avatar_url
`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment and returns it joined with its author.
func (r *commentRepository) Create(ctx context.Context, issueID, userID, content string, parentID *string) (*model.Comment, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, issue_id, user_id, content, parent_comment_id)
		VALUES ($1, $2, $3, $4, $5)
	`, id, issueID, userID, content, parentID)
	if err != nil {
		if mapped := foreignKeyError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update updates a comment's content. Only the owner can update.
func (r *commentRepository) Update(ctx context.Context, commentID, userID, content string) (*model.Comment, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE comments
		SET content = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, content, commentID, userID)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Check if comment exists but belongs to different user
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID); err != nil {
			return nil, fmt.Errorf("check comment exists: %w", err)
		}
		if exists {
			return nil, model.ErrNotCommentOwner
		}
		return nil, model.ErrCommentNotFound
	}
	return r.GetByID(ctx, commentID)
}

// Delete removes a comment and all its replies (via ON DELETE CASCADE).
func (r *commentRepository) Delete(ctx context.Context, commentID, userID string) (issueID string, deleted int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner struct {
		IssueID string `db:"issue_id"`
		UserID  string `db:"user_id"`
	}
	err = tx.GetContext(ctx, &owner, `SELECT issue_id, user_id FROM comments WHERE id = $1 FOR UPDATE`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, model.ErrCommentNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("get comment: %w", err)
	}
	if owner.UserID != userID {
		return "", 0, model.ErrNotCommentOwner
	}

	// Count the whole subtree before the cascade removes it.
	err = tx.GetContext(ctx, &deleted, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id FROM comments c JOIN subtree s ON c.parent_comment_id = s.id
		)
		SELECT COUNT(*) FROM subtree
	`, commentID)
	if err != nil {
		return "", 0, fmt.Errorf("count comments to delete: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return "", 0, fmt.Errorf("delete comment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("commit transaction: %w", err)
	}
	return owner.IssueID, deleted, nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error) {
	order := "DESC"
	if sort == model.SortOldest {
		order = "ASC"
	}
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.issue_id = $1
		ORDER BY c.created_at ` + order + `, c.id ` + order

	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, issueID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Flag inserts a flag record and updates the comment's flag counters.
func (r *commentRepository) Flag(ctx context.Context, flag *model.CommentFlag) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	err = tx.GetContext(ctx, &flag.CreatedAt, `
		INSERT INTO comment_flags (id, comment_id, user_id, reason, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, flag.ID, flag.CommentID, flag.UserID, flag.Reason, flag.Details)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyFlagged
		}
		if mapped := foreignKeyError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert flag: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE comments SET is_flagged = TRUE, flag_count = flag_count + 1 WHERE id = $1
	`, flag.CommentID)
	if err != nil {
		return fmt.Errorf("update flag count: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	} else if rows == 0 {
		return model.ErrCommentNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
