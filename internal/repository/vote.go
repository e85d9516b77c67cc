package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"civicvoice/internal/model"
)

type voteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) VoteRepository {
	return &voteRepository{db: db}
}

type issueCounts struct {
	Upvotes   int `db:"upvotes"`
	Downvotes int `db:"downvotes"`
}

// Cast upserts the user's vote. Casting the vote already held is a no-op.
func (r *voteRepository) Cast(ctx context.Context, issueID, userID string, voteType model.VoteType) (model.VoteAggregate, error) {
	if voteType != model.VoteUpvote && voteType != model.VoteDownvote {
		return model.VoteAggregate{}, model.ErrInvalidVoteType
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.VoteAggregate{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the issue row so concurrent votes serialize on the counters.
	if _, err := lockIssue(ctx, tx, issueID); err != nil {
		return model.VoteAggregate{}, err
	}

	prev, err := currentVote(ctx, tx, issueID, userID)
	if err != nil {
		return model.VoteAggregate{}, err
	}

	if prev != voteType {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO issue_votes (issue_id, user_id, vote_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (issue_id, user_id)
			DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = NOW()
		`, issueID, userID, int(voteType))
		if err != nil {
			if mapped := foreignKeyError(err); mapped != nil {
				return model.VoteAggregate{}, mapped
			}
			return model.VoteAggregate{}, fmt.Errorf("upsert vote: %w", err)
		}
		up, down := counterDelta(prev, voteType)
		if err := adjustCounts(ctx, tx, issueID, up, down); err != nil {
			return model.VoteAggregate{}, err
		}
	}

	counts, err := lockIssue(ctx, tx, issueID)
	if err != nil {
		return model.VoteAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.VoteAggregate{}, fmt.Errorf("commit transaction: %w", err)
	}
	return model.VoteAggregate{Upvotes: counts.Upvotes, Downvotes: counts.Downvotes, UserVote: voteType}.Normalize(), nil
}

func (r *voteRepository) Remove(ctx context.Context, issueID, userID string) (model.VoteAggregate, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.VoteAggregate{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := lockIssue(ctx, tx, issueID); err != nil {
		return model.VoteAggregate{}, err
	}

	prev, err := currentVote(ctx, tx, issueID, userID)
	if err != nil {
		return model.VoteAggregate{}, err
	}
	if prev == model.VoteNone {
		return model.VoteAggregate{}, model.ErrNoVote
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM issue_votes WHERE issue_id = $1 AND user_id = $2`, issueID, userID); err != nil {
		return model.VoteAggregate{}, fmt.Errorf("delete vote: %w", err)
	}
	up, down := counterDelta(prev, model.VoteNone)
	if err := adjustCounts(ctx, tx, issueID, up, down); err != nil {
		return model.VoteAggregate{}, err
	}

	counts, err := lockIssue(ctx, tx, issueID)
	if err != nil {
		return model.VoteAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.VoteAggregate{}, fmt.Errorf("commit transaction: %w", err)
	}
	return model.VoteAggregate{Upvotes: counts.Upvotes, Downvotes: counts.Downvotes}.Normalize(), nil
}

func (r *voteRepository) Get(ctx context.Context, issueID, userID string) (model.VoteType, error) {
	var v int
	err := r.db.GetContext(ctx, &v, `SELECT vote_type FROM issue_votes WHERE issue_id = $1 AND user_id = $2`, issueID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VoteNone, nil
	}
	if err != nil {
		return model.VoteNone, fmt.Errorf("get vote: %w", err)
	}
	return model.VoteType(v), nil
}

func (r *voteRepository) Counts(ctx context.Context, issueID string) (int, int, error) {
	var c issueCounts
	err := r.db.GetContext(ctx, &c, `SELECT upvotes, downvotes FROM issues WHERE id = $1`, issueID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, model.ErrIssueNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get vote counts: %w", err)
	}
	return c.Upvotes, c.Downvotes, nil
}

func lockIssue(ctx context.Context, tx *sqlx.Tx, issueID string) (issueCounts, error) {
	var c issueCounts
	err := tx.GetContext(ctx, &c, `SELECT upvotes, downvotes FROM issues WHERE id = $1 FOR UPDATE`, issueID)
	if errors.Is(err, sql.ErrNoRows) {
		return c, model.ErrIssueNotFound
	}
	if err != nil {
		return c, fmt.Errorf("lock issue: %w", err)
	}
	return c, nil
}

func currentVote(ctx context.Context, tx *sqlx.Tx, issueID, userID string) (model.VoteType, error) {
	var v int
	err := tx.GetContext(ctx, &v, `SELECT vote_type FROM issue_votes WHERE issue_id = $1 AND user_id = $2`, issueID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VoteNone, nil
	}
	if err != nil {
		return model.VoteNone, fmt.Errorf("get vote: %w", err)
	}
	return model.VoteType(v), nil
}

func adjustCounts(ctx context.Context, tx *sqlx.Tx, issueID string, up, down int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE issues
		SET upvotes = GREATEST(upvotes + $1, 0), downvotes = GREATEST(downvotes + $2, 0)
		WHERE id = $3
	`, up, down, issueID)
	if err != nil {
		return fmt.Errorf("update vote counts: %w", err)
	}
	return nil
}

// counterDelta returns how the counters move when a vote goes from prev to next.
func counterDelta(prev, next model.VoteType) (up, down int) {
	switch prev {
	case model.VoteUpvote:
		up--
	case model.VoteDownvote:
		down--
	}
	switch next {
	case model.VoteUpvote:
		up++
	case model.VoteDownvote:
		down++
	}
	return up, down
}
