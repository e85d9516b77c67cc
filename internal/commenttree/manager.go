package commenttree

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"civicvoice/internal/logging"
	"civicvoice/internal/model"
)

// API is the part of the backend the manager talks to.
type API interface {
	Authenticated() bool
	ListComments(ctx context.Context, issueID string, sort model.SortOrder) ([]model.Comment, error)
	CreateComment(ctx context.Context, issueID string, req model.CreateCommentRequest) (*model.Comment, error)
	UpdateComment(ctx context.Context, commentID string, req model.UpdateCommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
	FlagComment(ctx context.Context, commentID string, req model.FlagCommentRequest) (*model.CommentFlag, error)
}

// Manager caches the comment forest of a single issue.
//
// Comment mutations are not optimistic: the local tree changes only after
// the backend confirms. Each operation checks the current tree, releases the
// lock for the network call, then applies its change to whatever the tree
// is at that point, so calls for different comments never step on each other.
type Manager struct {
	api     API
	issueID string
	logger  *slog.Logger

	mu       sync.RWMutex
	comments []model.Comment
	sort     model.SortOrder
	loadErr  error
}

// NewManager creates an empty manager for issueID.
func NewManager(api API, issueID string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		api:      api,
		issueID:  issueID,
		logger:   logger.With("issue", issueID),
		comments: []model.Comment{},
		sort:     model.SortNewest,
	}
}

// Load fetches the full nested tree and replaces the cached one.
// On failure the previous tree is kept and Err reports the failure.
func (m *Manager) Load(ctx context.Context, sort model.SortOrder) error {
	if sort != model.SortOldest {
		sort = model.SortNewest
	}

	comments, err := m.api.ListComments(ctx, m.issueID, sort)
	if err != nil {
		m.mu.Lock()
		m.loadErr = err
		m.mu.Unlock()
		m.logger.Warn("load comments failed", "sort", sort, "error", err)
		return fmt.Errorf("load comments: %w", err)
	}

	tree := Normalize(comments)

	m.mu.Lock()
	m.comments = tree
	m.sort = sort
	m.loadErr = nil
	m.mu.Unlock()

	m.logger.Debug("comments loaded", "sort", sort, "count", Count(tree))
	return nil
}

// Err returns the error of the last failed Load, or nil after a good one.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// Sort returns the order used by the last successful Load.
func (m *Manager) Sort() model.SortOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sort
}

// Comments returns a deep copy of the cached forest.
func (m *Manager) Comments() []model.Comment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Clone(m.comments)
}

// Find returns a copy of the cached comment with the given id.
func (m *Manager) Find(id string) (model.Comment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := Find(m.comments, id)
	if !ok {
		return model.Comment{}, false
	}
	return Clone([]model.Comment{c})[0], true
}

func (m *Manager) contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := Find(m.comments, id)
	return ok
}

// Add posts a comment. A top-level comment is put first regardless of the
// active sort order; a reply is appended to its parent, which may be at any
// depth.
func (m *Manager) Add(ctx context.Context, content string, parentID *string) (model.Comment, error) {
	req, err := model.NormalizeCreate(model.CreateCommentRequest{Content: content, ParentCommentID: parentID})
	if err != nil {
		return model.Comment{}, err
	}
	if !m.api.Authenticated() {
		return model.Comment{}, model.ErrAuthRequired
	}
	if req.ParentCommentID != nil && !m.contains(*req.ParentCommentID) {
		return model.Comment{}, fmt.Errorf("reply to %s: %w", *req.ParentCommentID, model.ErrParentNotFound)
	}

	created, err := m.api.CreateComment(ctx, m.issueID, req)
	if err != nil {
		m.logger.Warn("create comment failed", "parent", derefOr(req.ParentCommentID, ""), "error", err)
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	node := *created
	node.Replies = []model.Comment{}
	node.ReplyCount = 0
	if node.IssueID == "" {
		node.IssueID = m.issueID
	}
	if req.ParentCommentID != nil && node.IsTopLevel() {
		p := *req.ParentCommentID
		node.ParentID = &p
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if req.ParentCommentID == nil {
		tree := make([]model.Comment, 0, len(m.comments)+1)
		tree = append(tree, node)
		m.comments = append(tree, m.comments...)
		m.logger.Info("comment added", "comment", node.ID)
		return node, nil
	}

	tree, n := Map(m.comments, ByID(*req.ParentCommentID), func(parent model.Comment) model.Comment {
		replies := make([]model.Comment, 0, len(parent.Replies)+1)
		replies = append(replies, parent.Replies...)
		parent.Replies = append(replies, node)
		parent.ReplyCount = len(parent.Replies)
		return parent
	})
	if n == 0 {
		// Parent vanished while the request was in flight.
		m.logger.Warn("reply created but parent no longer cached", "comment", node.ID, "parent", *req.ParentCommentID)
		return node, fmt.Errorf("attach reply %s: %w", node.ID, model.ErrParentNotFound)
	}
	m.comments = tree
	m.logger.Info("reply added", "comment", node.ID, "parent", *req.ParentCommentID)
	return node, nil
}

// Update replaces the content of a comment with what the backend returns.
// Replies and ReplyCount are left alone.
func (m *Manager) Update(ctx context.Context, commentID, content string) (model.Comment, error) {
	req, err := model.NormalizeUpdate(model.UpdateCommentRequest{Content: content})
	if err != nil {
		return model.Comment{}, err
	}
	if !m.api.Authenticated() {
		return model.Comment{}, model.ErrAuthRequired
	}
	if !m.contains(commentID) {
		return model.Comment{}, fmt.Errorf("update %s: %w", commentID, model.ErrCommentNotFound)
	}

	updated, err := m.api.UpdateComment(ctx, commentID, req)
	if err != nil {
		m.logger.Warn("update comment failed", "comment", commentID, "error", err)
		return model.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var result model.Comment
	tree, n := Map(m.comments, ByID(commentID), func(old model.Comment) model.Comment {
		result = mergeServerFields(old, *updated)
		return result
	})
	if n == 0 {
		return model.Comment{}, fmt.Errorf("update %s: %w", commentID, model.ErrCommentNotFound)
	}
	m.comments = tree
	m.logger.Info("comment updated", "comment", commentID)
	return result, nil
}

// Delete removes a comment and its whole reply subtree once the backend
// confirms. A comment that is not cached yields ErrCommentNotFound and no
// request; callers may treat that as already consistent.
func (m *Manager) Delete(ctx context.Context, commentID string) error {
	if !m.api.Authenticated() {
		return model.ErrAuthRequired
	}
	if !m.contains(commentID) {
		return fmt.Errorf("delete %s: %w", commentID, model.ErrCommentNotFound)
	}

	if err := m.api.DeleteComment(ctx, commentID); err != nil {
		m.logger.Warn("delete comment failed", "comment", commentID, "error", err)
		return fmt.Errorf("delete comment: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tree, removed := Filter(m.comments, ByID(commentID))
	m.comments = tree
	m.logger.Info("comment deleted", "comment", commentID, "removed", removed)
	return nil
}

// Flag reports a comment. The comment stays visible; it is only marked.
func (m *Manager) Flag(ctx context.Context, commentID string, reason model.FlagReason, details *string) error {
	req, err := model.NormalizeFlag(model.FlagCommentRequest{Reason: reason, Details: details})
	if err != nil {
		return err
	}
	if !m.api.Authenticated() {
		return model.ErrAuthRequired
	}
	if !m.contains(commentID) {
		return fmt.Errorf("flag %s: %w", commentID, model.ErrCommentNotFound)
	}

	if _, err := m.api.FlagComment(ctx, commentID, req); err != nil {
		m.logger.Warn("flag comment failed", "comment", commentID, "reason", reason, "error", err)
		return fmt.Errorf("flag comment: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tree, n := Map(m.comments, ByID(commentID), func(c model.Comment) model.Comment {
		c.IsFlagged = true
		c.FlagCount++
		return c
	})
	if n == 0 {
		return fmt.Errorf("flag %s: %w", commentID, model.ErrCommentNotFound)
	}
	m.comments = tree
	m.logger.Info("comment flagged", "comment", commentID, "reason", reason)
	return nil
}

// mergeServerFields takes the backend's copy of a comment but keeps the
// locally held subtree and anything the backend left empty.
func mergeServerFields(old, fresh model.Comment) model.Comment {
	fresh.ID = old.ID
	fresh.Replies = old.Replies
	fresh.ReplyCount = old.ReplyCount
	if fresh.ParentID == nil {
		fresh.ParentID = old.ParentID
	}
	if fresh.IssueID == "" {
		fresh.IssueID = old.IssueID
	}
	if fresh.AuthorID == "" {
		fresh.AuthorID = old.AuthorID
	}
	if fresh.AuthorName == "" {
		fresh.AuthorName = old.AuthorName
	}
	if fresh.AuthorAvatarURL == nil {
		fresh.AuthorAvatarURL = old.AuthorAvatarURL
	}
	if fresh.CreatedAt.IsZero() {
		fresh.CreatedAt = old.CreatedAt
	}
	if fresh.FlagCount < old.FlagCount {
		fresh.FlagCount = old.FlagCount
		fresh.IsFlagged = old.IsFlagged
	}
	return fresh
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
