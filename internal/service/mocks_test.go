package service

import (
	"context"
	"sync"

	"civicvoice/internal/cache"
	"civicvoice/internal/model"
	"civicvoice/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Services depend on repository interfaces, so each test swaps in a mock whose
// behavior is set per test through function fields.

type mockIssueRepository struct {
	existsFn func(ctx context.Context, issueID string) (bool, error)
}

func (m *mockIssueRepository) Exists(ctx context.Context, issueID string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, issueID)
	}
	return true, nil
}

type mockCommentRepository struct {
	createFn      func(ctx context.Context, issueID, userID, content string, parentID *string) (*model.Comment, error)
	updateFn      func(ctx context.Context, commentID, userID, content string) (*model.Comment, error)
	deleteFn      func(ctx context.Context, commentID, userID string) (string, int, error)
	getByIDFn     func(ctx context.Context, commentID string) (*model.Comment, error)
	listByIssueFn func(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error)
	flagFn        func(ctx context.Context, flag *model.CommentFlag) error

	createCalls int
}

func (m *mockCommentRepository) Create(ctx context.Context, issueID, userID, content string, parentID *string) (*model.Comment, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, issueID, userID, content, parentID)
	}
	return &model.Comment{ID: "new", IssueID: issueID, AuthorID: userID, Content: content, ParentID: parentID}, nil
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID, userID, content string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, userID, content)
	}
	return &model.Comment{ID: commentID, AuthorID: userID, Content: content}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID, userID string) (string, int, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID, userID)
	}
	return "issue-1", 1, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, commentID)
	}
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) ListByIssue(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error) {
	if m.listByIssueFn != nil {
		return m.listByIssueFn(ctx, issueID, sort)
	}
	return []model.Comment{}, nil
}

func (m *mockCommentRepository) Flag(ctx context.Context, flag *model.CommentFlag) error {
	if m.flagFn != nil {
		return m.flagFn(ctx, flag)
	}
	flag.ID = "flag-1"
	return nil
}

type mockVoteRepository struct {
	castFn   func(ctx context.Context, issueID, userID string, v model.VoteType) (model.VoteAggregate, error)
	removeFn func(ctx context.Context, issueID, userID string) (model.VoteAggregate, error)
	getFn    func(ctx context.Context, issueID, userID string) (model.VoteType, error)
	countsFn func(ctx context.Context, issueID string) (int, int, error)

	countsCalls int
}

func (m *mockVoteRepository) Cast(ctx context.Context, issueID, userID string, v model.VoteType) (model.VoteAggregate, error) {
	return m.castFn(ctx, issueID, userID, v)
}

func (m *mockVoteRepository) Remove(ctx context.Context, issueID, userID string) (model.VoteAggregate, error) {
	return m.removeFn(ctx, issueID, userID)
}

func (m *mockVoteRepository) Get(ctx context.Context, issueID, userID string) (model.VoteType, error) {
	if m.getFn != nil {
		return m.getFn(ctx, issueID, userID)
	}
	return model.VoteNone, nil
}

func (m *mockVoteRepository) Counts(ctx context.Context, issueID string) (int, int, error) {
	m.countsCalls++
	return m.countsFn(ctx, issueID)
}

type mockVoteCache struct {
	mu          sync.Mutex
	counts      map[string]cache.VoteCounts
	invalidated []string
}

func newMockVoteCache() *mockVoteCache {
	return &mockVoteCache{counts: make(map[string]cache.VoteCounts)}
}

func (m *mockVoteCache) Get(_ context.Context, issueID string) (cache.VoteCounts, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counts[issueID]
	return c, ok, nil
}

func (m *mockVoteCache) Set(_ context.Context, issueID string, counts cache.VoteCounts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[issueID] = counts
	return nil
}

func (m *mockVoteCache) Invalidate(_ context.Context, issueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, issueID)
	m.invalidated = append(m.invalidated, issueID)
	return nil
}

type mockPublisher struct {
	events []queue.Event
}

func (m *mockPublisher) Publish(_ context.Context, _ string, event queue.Event) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}
