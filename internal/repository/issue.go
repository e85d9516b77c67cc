package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type issueRepository struct {
	db *sqlx.DB
}

func NewIssueRepository(db *sqlx.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Exists(ctx context.Context, issueID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM issues WHERE id = $1)`, issueID)
	if err != nil {
		return false, fmt.Errorf("check issue exists: %w", err)
	}
	return exists, nil
}
