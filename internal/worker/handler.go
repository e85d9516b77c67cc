package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"civicvoice/internal/cache"
	"civicvoice/internal/queue"
)

// ReviewThreshold is the flag count at which a comment is reported for
// moderator review.
const ReviewThreshold = 3

// CountsProvider reads authoritative vote counters.
type CountsProvider interface {
	Counts(ctx context.Context, issueID string) (upvotes, downvotes int, err error)
}

// Handler processes discussion events.
type Handler struct {
	voteCache cache.VoteCache
	counts    CountsProvider
	logger    *slog.Logger
}

func NewHandler(voteCache cache.VoteCache, counts CountsProvider, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{voteCache: voteCache, counts: counts, logger: logger.With("component", "worker")}
}

// HandleEvent routes an event by type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventVoteChanged:
		err = h.handleVoteChanged(ctx, event)
	case queue.EventCommentFlagged:
		err = h.handleCommentFlagged(ctx, event)
	default:
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		h.logger.Warn("event failed", "type", event.Type, "issue", event.IssueID, "duration", time.Since(startTime), "error", err)
		return err
	}
	h.logger.Debug("event handled", "type", event.Type, "issue", event.IssueID, "duration", time.Since(startTime))
	return nil
}

// handleVoteChanged re-reads the counters and warms the cache so the next
// status request does not hit the database.
func (h *Handler) handleVoteChanged(ctx context.Context, event queue.Event) error {
	up, down, err := h.counts.Counts(ctx, event.IssueID)
	if err != nil {
		return fmt.Errorf("get counts: %w", err)
	}
	if err := h.voteCache.Set(ctx, event.IssueID, cache.VoteCounts{Upvotes: up, Downvotes: down}); err != nil {
		return fmt.Errorf("warm vote cache: %w", err)
	}
	return nil
}

func (h *Handler) handleCommentFlagged(_ context.Context, event queue.Event) error {
	if event.FlagCount >= ReviewThreshold {
		h.logger.Warn("comment needs review",
			"issue", event.IssueID, "comment", event.CommentID,
			"flags", event.FlagCount, "last_reason", event.Reason)
	}
	return nil
}
