package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicvoice/internal/logging"
	"civicvoice/internal/model"
)

// fakeBackend serves a fixed thread and a tally that follows the votes cast.
type fakeBackend struct {
	mu       sync.Mutex
	userVote model.VoteType
	up, down int
	created  []model.CreateCommentRequest
}

func (b *fakeBackend) status() model.VoteStatusResponse {
	return model.NewVoteStatusResponse(model.VoteAggregate{Upvotes: b.up, Downvotes: b.down, UserVote: b.userVote})
}

func (b *fakeBackend) setVote(v model.VoteType) {
	switch b.userVote {
	case model.VoteUpvote:
		b.up--
	case model.VoteDownvote:
		b.down--
	}
	switch v {
	case model.VoteUpvote:
		b.up++
	case model.VoteDownvote:
		b.down++
	}
	b.userVote = v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func thread() []model.Comment {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	parent := "c1"
	return []model.Comment{{
		ID: "c1", IssueID: "issue-1", AuthorName: "Alice", Content: "Lights are out", CreatedAt: at, UpdatedAt: at,
		ReplyCount: 1,
		Replies: []model.Comment{{
			ID: "c2", IssueID: "issue-1", ParentID: &parent, AuthorName: "Bob", Content: "Still out",
			CreatedAt: at, UpdatedAt: at.Add(time.Hour), IsFlagged: true, FlagCount: 2,
			Replies: []model.Comment{},
		}},
	}}
}

func newFakeServer(t *testing.T, b *fakeBackend) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/issues/{id}/comments", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, model.CommentListResponse{Comments: thread(), Total: 2})
	})
	r.Post("/issues/{id}/comments", func(w http.ResponseWriter, req *http.Request) {
		var body model.CreateCommentRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		b.mu.Lock()
		b.created = append(b.created, body)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, model.Comment{
			ID: "c3", IssueID: chi.URLParam(req, "id"), AuthorName: "Carol", Content: body.Content,
			ParentID: body.ParentCommentID, CreatedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		})
	})
	r.Delete("/comments/{id}", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
	})
	r.Get("/issues/{id}/vote-status", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.status())
	})
	r.Post("/issues/{id}/vote", func(w http.ResponseWriter, req *http.Request) {
		var body model.CastVoteRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		b.mu.Lock()
		defer b.mu.Unlock()
		b.setVote(body.VoteType)
		writeJSON(w, http.StatusOK, b.status())
	})
	r.Delete("/issues/{id}/vote", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.setVote(model.VoteNone)
		writeJSON(w, http.StatusOK, b.status())
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, apiURL, token string, args ...string) (string, error) {
	t.Helper()
	opts := &Options{APIURL: apiURL, Token: token, Timeout: 5 * time.Second, LogLevel: logging.LevelError}
	cmd := newRootCommand(opts, logging.Discard())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommentsList(t *testing.T) {
	srv := newFakeServer(t, &fakeBackend{})

	out, err := run(t, srv.URL, "", "comments", "list", "issue-1", "--sort", "oldest")
	require.NoError(t, err)

	assert.Equal(t,
		"- Alice [c1] 2026-03-01 09:30: Lights are out\n"+
			"  - Bob [c2] 2026-03-01 09:30 (edited) (flagged x2): Still out\n"+
			"2 comments\n",
		out)
}

func TestCommentsListJSON(t *testing.T) {
	srv := newFakeServer(t, &fakeBackend{})

	out, err := run(t, srv.URL, "", "comments", "list", "issue-1", "--json")
	require.NoError(t, err)

	var resp model.CommentListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, "c2", resp.Comments[0].Replies[0].ID)
}

func TestCommentsAddReply(t *testing.T) {
	b := &fakeBackend{}
	srv := newFakeServer(t, b)

	out, err := run(t, srv.URL, "token", "comments", "add", "issue-1", "  me too  ", "--parent", "c2")
	require.NoError(t, err)

	assert.Contains(t, out, "Carol [c3]")
	assert.Contains(t, out, ": me too")
	require.Len(t, b.created, 1)
	assert.Equal(t, "me too", b.created[0].Content)
	require.NotNil(t, b.created[0].ParentCommentID)
	assert.Equal(t, "c2", *b.created[0].ParentCommentID)
}

func TestCommentsAddRequiresToken(t *testing.T) {
	b := &fakeBackend{}
	srv := newFakeServer(t, b)

	_, err := run(t, srv.URL, "", "comments", "add", "issue-1", "hello")

	assert.ErrorIs(t, err, model.ErrAuthRequired)
	assert.Contains(t, err.Error(), "--token")
	assert.Empty(t, b.created)
}

func TestCommentsAddUnknownParent(t *testing.T) {
	b := &fakeBackend{}
	srv := newFakeServer(t, b)

	_, err := run(t, srv.URL, "token", "comments", "add", "issue-1", "hello", "--parent", "nope")

	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, b.created)
}

func TestCommentsDeleteReportsRemovedReplies(t *testing.T) {
	srv := newFakeServer(t, &fakeBackend{})

	out, err := run(t, srv.URL, "token", "comments", "delete", "issue-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "deleted c1 (1 replies removed)\n", out)

	out, err = run(t, srv.URL, "token", "comments", "delete", "issue-1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "deleted c2 (0 replies removed)\n", out)
}

func TestVoteToggle(t *testing.T) {
	b := &fakeBackend{up: 3, down: 1}
	srv := newFakeServer(t, b)

	out, err := run(t, srv.URL, "token", "vote", "up", "issue-1")
	require.NoError(t, err)
	assert.Equal(t, "score 3 (up 4, down 1), your vote: upvote\n", out)

	out, err = run(t, srv.URL, "token", "vote", "down", "issue-1")
	require.NoError(t, err)
	assert.Equal(t, "score 1 (up 3, down 2), your vote: downvote\n", out)

	out, err = run(t, srv.URL, "token", "vote", "down", "issue-1")
	require.NoError(t, err)
	assert.Equal(t, "score 2 (up 3, down 1), your vote: none\n", out)

	out, err = run(t, srv.URL, "token", "vote", "status", "issue-1", "--json")
	require.NoError(t, err)
	var agg model.VoteAggregate
	require.NoError(t, json.Unmarshal([]byte(out), &agg))
	assert.Equal(t, model.VoteAggregate{Upvotes: 3, Downvotes: 1, Score: 2}, agg)
}

func TestVoteStatusRequiresToken(t *testing.T) {
	srv := newFakeServer(t, &fakeBackend{})

	_, err := run(t, srv.URL, "", "vote", "status", "issue-1")

	assert.ErrorIs(t, err, model.ErrAuthRequired)
}

func TestUnreachableAPI(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:1", "", "comments", "list", "issue-1")

	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Contains(t, err.Error(), "--api-url")
}
