package cache_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicvoice/internal/cache"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisVoteCache_RoundTrip(t *testing.T) {
	client := setupRedis(t)
	c := cache.NewVoteCache(client, nil)
	ctx := context.Background()
	issueID := uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), cache.VoteCachePrefix+issueID) })

	_, found, err := c.Get(ctx, issueID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, issueID, cache.VoteCounts{Upvotes: 4, Downvotes: 1}))

	got, found, err := c.Get(ctx, issueID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, cache.VoteCounts{Upvotes: 4, Downvotes: 1}, got)

	ttl, err := client.TTL(ctx, cache.VoteCachePrefix+issueID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl, cache.VoteCacheTTL)

	require.NoError(t, c.Invalidate(ctx, issueID))
	_, found, err = c.Get(ctx, issueID)
	require.NoError(t, err)
	assert.False(t, found)
}
