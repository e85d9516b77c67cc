package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"civicvoice/internal/cache"
	"civicvoice/internal/model"
	"civicvoice/internal/queue"
	"civicvoice/internal/repository"
)

type VoteService struct {
	voteRepo  repository.VoteRepository
	voteCache cache.VoteCache
	publisher queue.Publisher
	logger    *slog.Logger
}

// NewVoteService wires the vote service. voteCache and publisher may be nil.
func NewVoteService(
	voteRepo repository.VoteRepository,
	voteCache cache.VoteCache,
	publisher queue.Publisher,
	logger *slog.Logger,
) *VoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteService{
		voteRepo:  voteRepo,
		voteCache: voteCache,
		publisher: publisher,
		logger:    logger.With("component", "vote_service"),
	}
}

// Cast sets the user's vote and returns the full tally.
func (s *VoteService) Cast(ctx context.Context, issueID, userID string, req model.CastVoteRequest) (model.VoteStatusResponse, error) {
	if err := model.Validate(req); err != nil {
		return model.VoteStatusResponse{}, model.ErrInvalidVoteType
	}

	agg, err := s.voteRepo.Cast(ctx, issueID, userID, req.VoteType)
	if err != nil {
		return model.VoteStatusResponse{}, err
	}
	s.afterWrite(ctx, issueID)

	s.logger.Info("vote cast", "user", userID, "issue", issueID, "vote", req.VoteType, "score", agg.Score)
	return model.NewVoteStatusResponse(agg), nil
}

// Remove clears the user's vote. Removing a vote that does not exist is not
// an error; the current tally is returned.
func (s *VoteService) Remove(ctx context.Context, issueID, userID string) (model.VoteStatusResponse, error) {
	agg, err := s.voteRepo.Remove(ctx, issueID, userID)
	if errors.Is(err, model.ErrNoVote) {
		return s.Status(ctx, issueID, userID)
	}
	if err != nil {
		return model.VoteStatusResponse{}, err
	}
	s.afterWrite(ctx, issueID)

	s.logger.Info("vote removed", "user", userID, "issue", issueID, "score", agg.Score)
	return model.NewVoteStatusResponse(agg), nil
}

// Status returns the user's vote and the issue's counters. Counters are read
// through the cache.
func (s *VoteService) Status(ctx context.Context, issueID, userID string) (model.VoteStatusResponse, error) {
	counts, err := s.counts(ctx, issueID)
	if err != nil {
		return model.VoteStatusResponse{}, err
	}

	userVote, err := s.voteRepo.Get(ctx, issueID, userID)
	if err != nil {
		return model.VoteStatusResponse{}, err
	}

	return model.NewVoteStatusResponse(model.VoteAggregate{
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
		UserVote:  userVote,
	}), nil
}

func (s *VoteService) counts(ctx context.Context, issueID string) (cache.VoteCounts, error) {
	if s.voteCache != nil {
		counts, found, err := s.voteCache.Get(ctx, issueID)
		if err != nil {
			s.logger.Warn("vote cache read failed, falling back to database", "issue", issueID, "error", err)
		} else if found {
			return counts, nil
		}
	}

	up, down, err := s.voteRepo.Counts(ctx, issueID)
	if err != nil {
		return cache.VoteCounts{}, fmt.Errorf("get vote counts: %w", err)
	}
	counts := cache.VoteCounts{Upvotes: up, Downvotes: down}

	if s.voteCache != nil {
		if err := s.voteCache.Set(ctx, issueID, counts); err != nil {
			s.logger.Warn("vote cache fill failed", "issue", issueID, "error", err)
		}
	}
	return counts, nil
}

// afterWrite drops the cached tally and tells the workers to rebuild it.
func (s *VoteService) afterWrite(ctx context.Context, issueID string) {
	if s.voteCache != nil {
		if err := s.voteCache.Invalidate(ctx, issueID); err != nil {
			s.logger.Warn("vote cache invalidate failed", "issue", issueID, "error", err)
		}
	}
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, queue.StreamDiscussion, queue.NewVoteChangedEvent(issueID)); err != nil {
			s.logger.Warn("publish vote_changed failed", "issue", issueID, "error", err)
		}
	}
}
