package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"civicvoice/internal/commenttree"
	"civicvoice/internal/model"
	"civicvoice/internal/queue"
	"civicvoice/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	issueRepo   repository.IssueRepository
	publisher   queue.Publisher
	logger      *slog.Logger
}

// NewCommentService wires the comment service. publisher may be nil.
func NewCommentService(
	commentRepo repository.CommentRepository,
	issueRepo repository.IssueRepository,
	publisher queue.Publisher,
	logger *slog.Logger,
) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{
		commentRepo: commentRepo,
		issueRepo:   issueRepo,
		publisher:   publisher,
		logger:      logger.With("component", "comment_service"),
	}
}

// List returns the issue's comments nested under their parents.
func (s *CommentService) List(ctx context.Context, issueID string, sort model.SortOrder) (*model.CommentListResponse, error) {
	if err := s.ensureIssue(ctx, issueID); err != nil {
		return nil, err
	}

	rows, err := s.commentRepo.ListByIssue(ctx, issueID, sort)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	return &model.CommentListResponse{
		Comments: commenttree.Build(rows),
		Total:    len(rows),
	}, nil
}

// Create adds a comment or a reply at any depth.
func (s *CommentService) Create(ctx context.Context, issueID, userID string, req model.CreateCommentRequest) (*model.Comment, error) {
	req, err := model.NormalizeCreate(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureIssue(ctx, issueID); err != nil {
		return nil, err
	}

	if req.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if errors.Is(err, model.ErrCommentNotFound) {
			return nil, model.ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		if parent.IssueID != issueID {
			return nil, model.ErrParentMismatch
		}
	}

	comment, err := s.commentRepo.Create(ctx, issueID, userID, req.Content, req.ParentCommentID)
	if err != nil {
		return nil, err
	}
	comment.Replies = []model.Comment{}
	comment.ReplyCount = 0

	s.logger.Info("comment created", "user", userID, "issue", issueID, "comment", comment.ID, "reply", req.ParentCommentID != nil)
	return comment, nil
}

// Update changes a comment's content. Only its author may do so.
func (s *CommentService) Update(ctx context.Context, commentID, userID string, req model.UpdateCommentRequest) (*model.Comment, error) {
	req, err := model.NormalizeUpdate(req)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.Update(ctx, commentID, userID, req.Content)
	if err != nil {
		return nil, err
	}
	comment.Replies = []model.Comment{}

	s.logger.Info("comment updated", "user", userID, "comment", commentID)
	return comment, nil
}

// Delete removes a comment together with all of its replies.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	issueID, deleted, err := s.commentRepo.Delete(ctx, commentID, userID)
	if err != nil {
		return err
	}
	s.logger.Info("comment deleted", "user", userID, "issue", issueID, "comment", commentID, "removed", deleted)
	return nil
}

// Flag reports someone else's comment. A user can flag a comment once.
func (s *CommentService) Flag(ctx context.Context, commentID, userID string, req model.FlagCommentRequest) (*model.CommentFlag, error) {
	req, err := model.NormalizeFlag(req)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID == userID {
		return nil, model.ErrCannotFlagOwn
	}

	flag := &model.CommentFlag{
		CommentID: commentID,
		UserID:    userID,
		Reason:    req.Reason,
		Details:   req.Details,
	}
	if err := s.commentRepo.Flag(ctx, flag); err != nil {
		return nil, err
	}

	s.logger.Info("comment flagged", "user", userID, "comment", commentID, "reason", req.Reason)

	// Publish after commit, best-effort.
	if s.publisher != nil {
		event := queue.NewCommentFlaggedEvent(comment.IssueID, commentID, string(req.Reason), comment.FlagCount+1)
		if _, err := s.publisher.Publish(ctx, queue.StreamDiscussion, event); err != nil {
			s.logger.Warn("publish comment_flagged failed", "comment", commentID, "error", err)
		}
	}
	return flag, nil
}

func (s *CommentService) ensureIssue(ctx context.Context, issueID string) error {
	exists, err := s.issueRepo.Exists(ctx, issueID)
	if err != nil {
		return fmt.Errorf("check issue exists: %w", err)
	}
	if !exists {
		return model.ErrIssueNotFound
	}
	return nil
}
