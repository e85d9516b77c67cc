package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicvoice/internal/database"
	"civicvoice/internal/model"
)

// Set TEST_DATABASE_DSN to run these against a disposable PostgreSQL database.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping PostgreSQL tests")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func seed(t *testing.T, db *sqlx.DB) (issueID string, users []string) {
	t.Helper()
	ctx := context.Background()
	issueID = uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO issues (id, title) VALUES ($1, $2)`, issueID, "Broken streetlight")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		id := uuid.NewString()
		_, err := db.ExecContext(ctx, `INSERT INTO users (id, username) VALUES ($1, $2)`, id, "user-"+id[:8])
		require.NoError(t, err)
		users = append(users, id)
	}
	t.Cleanup(func() {
		db.ExecContext(context.Background(), `DELETE FROM issues WHERE id = $1`, issueID)
		for _, u := range users {
			db.ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, u)
		}
	})
	return issueID, users
}

func TestCommentRepository_CascadeDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	issueID, users := seed(t, db)
	repo := NewCommentRepository(db)

	a, err := repo.Create(ctx, issueID, users[0], "A", nil)
	require.NoError(t, err)
	b, err := repo.Create(ctx, issueID, users[1], "B", &a.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, issueID, users[0], "C", &b.ID)
	require.NoError(t, err)

	_, _, err = repo.Delete(ctx, b.ID, users[0])
	assert.ErrorIs(t, err, model.ErrNotCommentOwner)

	gotIssue, deleted, err := repo.Delete(ctx, b.ID, users[1])
	require.NoError(t, err)
	assert.Equal(t, issueID, gotIssue)
	assert.Equal(t, 2, deleted)

	rows, err := repo.ListByIssue(ctx, issueID, model.SortOldest)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)
}

func TestCommentRepository_FlagOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	issueID, users := seed(t, db)
	repo := NewCommentRepository(db)

	c, err := repo.Create(ctx, issueID, users[0], "spam spam", nil)
	require.NoError(t, err)

	flag := &model.CommentFlag{CommentID: c.ID, UserID: users[1], Reason: model.FlagSpam}
	require.NoError(t, repo.Flag(ctx, flag))
	assert.NotEmpty(t, flag.ID)

	err = repo.Flag(ctx, &model.CommentFlag{CommentID: c.ID, UserID: users[1], Reason: model.FlagOther})
	assert.ErrorIs(t, err, model.ErrAlreadyFlagged)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFlagged)
	assert.Equal(t, 1, got.FlagCount)
}

func TestVoteRepository_CastSwitchRemove(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	issueID, users := seed(t, db)
	repo := NewVoteRepository(db)

	agg, err := repo.Cast(ctx, issueID, users[0], model.VoteUpvote)
	require.NoError(t, err)
	assert.Equal(t, model.VoteAggregate{Upvotes: 1, Score: 1, UserVote: model.VoteUpvote}, agg)

	agg, err = repo.Cast(ctx, issueID, users[0], model.VoteDownvote)
	require.NoError(t, err)
	assert.Equal(t, model.VoteAggregate{Downvotes: 1, Score: -1, UserVote: model.VoteDownvote}, agg)

	agg, err = repo.Remove(ctx, issueID, users[0])
	require.NoError(t, err)
	assert.Equal(t, model.VoteAggregate{}, agg)

	_, err = repo.Remove(ctx, issueID, users[0])
	assert.ErrorIs(t, err, model.ErrNoVote)

	v, err := repo.Get(ctx, issueID, users[0])
	require.NoError(t, err)
	assert.Equal(t, model.VoteNone, v)
}
