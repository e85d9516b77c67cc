package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// VoteCachePrefix is the key prefix for per-issue vote counters
	VoteCachePrefix = "issue:votes:"

	// VoteCacheTTL bounds how stale a cached tally can get
	VoteCacheTTL = 10 * time.Minute
)

// VoteCounts is the cached tally of an issue.
type VoteCounts struct {
	Upvotes   int
	Downvotes int
}

// VoteCache caches issue vote counters. The viewer's own vote is never
// cached; only the shared counters are.
type VoteCache interface {
	// Get returns the cached counters. found=false on a miss.
	Get(ctx context.Context, issueID string) (counts VoteCounts, found bool, err error)

	// Set stores the counters and refreshes the TTL.
	// Uses pipeline: HSET + EXPIRE
	Set(ctx context.Context, issueID string, counts VoteCounts) error

	// Invalidate drops the cached counters.
	Invalidate(ctx context.Context, issueID string) error
}

// RedisVoteCache implements VoteCache using one Redis hash per issue.
type RedisVoteCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewVoteCache creates a new VoteCache backed by Redis.
func NewVoteCache(client *redis.Client, logger *slog.Logger) VoteCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisVoteCache{client: client, logger: logger.With("component", "vote_cache")}
}

func voteKey(issueID string) string {
	return VoteCachePrefix + issueID
}

func (c *RedisVoteCache) Get(ctx context.Context, issueID string) (VoteCounts, bool, error) {
	key := voteKey(issueID)

	values, err := c.client.HMGet(ctx, key, "up", "down").Result()
	if err != nil {
		c.logger.Warn("get failed", "issue", issueID, "error", err)
		return VoteCounts{}, false, fmt.Errorf("get vote counts: %w", err)
	}
	if len(values) != 2 || values[0] == nil || values[1] == nil {
		c.logger.Debug("miss", "issue", issueID)
		return VoteCounts{}, false, nil
	}

	up, err := parseCount(values[0])
	if err != nil {
		return VoteCounts{}, false, fmt.Errorf("parse upvotes: %w", err)
	}
	down, err := parseCount(values[1])
	if err != nil {
		return VoteCounts{}, false, fmt.Errorf("parse downvotes: %w", err)
	}

	c.logger.Debug("hit", "issue", issueID, "upvotes", up, "downvotes", down)
	return VoteCounts{Upvotes: up, Downvotes: down}, true, nil
}

func (c *RedisVoteCache) Set(ctx context.Context, issueID string, counts VoteCounts) error {
	key := voteKey(issueID)
	startTime := time.Now()

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, "up", counts.Upvotes, "down", counts.Downvotes)
	pipe.Expire(ctx, key, VoteCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("set failed", "issue", issueID, "error", err)
		return fmt.Errorf("set vote counts: %w", err)
	}

	c.logger.Debug("set", "issue", issueID, "upvotes", counts.Upvotes, "downvotes", counts.Downvotes, "duration", time.Since(startTime))
	return nil
}

func (c *RedisVoteCache) Invalidate(ctx context.Context, issueID string) error {
	if err := c.client.Del(ctx, voteKey(issueID)).Err(); err != nil {
		c.logger.Warn("invalidate failed", "issue", issueID, "error", err)
		return fmt.Errorf("invalidate vote counts: %w", err)
	}
	return nil
}

func parseCount(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.Atoi(s)
}
