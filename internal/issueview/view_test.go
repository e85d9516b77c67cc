package issueview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicvoice/internal/model"
)

type fakeAPI struct {
	authenticated bool
	listErr       error
	statusCalls   int
}

func (f *fakeAPI) Authenticated() bool { return f.authenticated }

func (f *fakeAPI) ListComments(context.Context, string, model.SortOrder) ([]model.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []model.Comment{{ID: "A", Replies: []model.Comment{{ID: "B"}}}}, nil
}

func (f *fakeAPI) CreateComment(context.Context, string, model.CreateCommentRequest) (*model.Comment, error) {
	return &model.Comment{ID: "n"}, nil
}

func (f *fakeAPI) UpdateComment(_ context.Context, id string, req model.UpdateCommentRequest) (*model.Comment, error) {
	return &model.Comment{ID: id, Content: req.Content}, nil
}

func (f *fakeAPI) DeleteComment(context.Context, string) error { return nil }

func (f *fakeAPI) FlagComment(context.Context, string, model.FlagCommentRequest) (*model.CommentFlag, error) {
	return &model.CommentFlag{}, nil
}

func (f *fakeAPI) CastVote(_ context.Context, _ string, v model.VoteType) (*model.VoteStatusResponse, error) {
	return &model.VoteStatusResponse{VoteType: v}, nil
}

func (f *fakeAPI) RemoveVote(context.Context, string) (*model.VoteStatusResponse, error) {
	return &model.VoteStatusResponse{}, nil
}

func (f *fakeAPI) VoteStatus(context.Context, string) (*model.VoteStatusResponse, error) {
	f.statusCalls++
	resp := model.NewVoteStatusResponse(model.VoteAggregate{Upvotes: 2, UserVote: model.VoteUpvote})
	return &resp, nil
}

func TestOpen_Authenticated(t *testing.T) {
	api := &fakeAPI{authenticated: true}
	v := New(api, "issue-1", model.VoteAggregate{Upvotes: 1}, nil)

	require.NoError(t, v.Open(context.Background(), model.SortNewest))
	assert.Equal(t, 1, v.Comments.Comments()[0].ReplyCount)
	assert.Equal(t, 1, api.statusCalls)
	assert.Equal(t, model.VoteUpvote, v.Votes.Aggregate().UserVote)
}

func TestOpen_AnonymousSkipsVoteStatus(t *testing.T) {
	api := &fakeAPI{}
	v := New(api, "issue-1", model.VoteAggregate{Upvotes: 1, Downvotes: 3}, nil)

	require.NoError(t, v.Open(context.Background(), model.SortOldest))
	assert.Zero(t, api.statusCalls)
	assert.Equal(t, -2, v.Votes.Aggregate().Score)
	assert.Equal(t, model.SortOldest, v.Comments.Sort())
	assert.False(t, v.Authenticated())
}

func TestOpen_CommentFailureStillLoadsVotes(t *testing.T) {
	api := &fakeAPI{authenticated: true, listErr: model.ErrNetwork}
	v := New(api, "issue-1", model.VoteAggregate{}, nil)

	err := v.Open(context.Background(), model.SortNewest)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Equal(t, 1, api.statusCalls)
	assert.ErrorIs(t, v.Comments.Err(), model.ErrNetwork)
}

func TestViewsAreIsolated(t *testing.T) {
	api := &fakeAPI{authenticated: true}
	a := New(api, "issue-a", model.VoteAggregate{Upvotes: 3, Downvotes: 1}, nil)
	b := New(api, "issue-b", model.VoteAggregate{Upvotes: 3, Downvotes: 1}, nil)

	_, err := a.Votes.Vote(context.Background(), model.VoteUpvote)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Votes.Aggregate().Upvotes)
	assert.Equal(t, 3, b.Votes.Aggregate().Upvotes)
}
