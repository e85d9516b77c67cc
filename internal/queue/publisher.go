package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends events to a stream.
type Publisher interface {
	// Publish returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event Event) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
	logger *slog.Logger
}

// NewPublisher creates a Publisher that trims each stream to roughly maxLen
// entries (0 disables trimming).
func NewPublisher(client *redis.Client, maxLen int64, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: client, maxLen: maxLen, logger: logger.With("component", "publisher")}
}

// Publish adds an event to the stream using XADD with an auto-generated ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	messageID, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		p.logger.Warn("publish failed", "stream", stream, "type", event.Type, "error", err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug("published", "stream", stream, "type", event.Type, "issue", event.IssueID,
		"msg_id", messageID, "duration", time.Since(startTime))
	return messageID, nil
}
