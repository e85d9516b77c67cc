package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one entry read from a stream.
type Message struct {
	ID    string // Redis message ID (e.g., "1702000000000-0")
	Event Event
}

// Consumer reads a stream as a member of a consumer group.
type Consumer interface {
	// EnsureGroup creates the group (and the stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns up to count new messages, blocking at most block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to consumer but never acked,
	// so work interrupted by a crash is picked up again.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	// Ack removes messages from the group's pending list.
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
	logger *slog.Logger
}

// NewConsumer creates a Consumer backed by Redis Streams.
func NewConsumer(client *redis.Client, logger *slog.Logger) *RedisConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisConsumer{client: client, logger: logger.With("component", "consumer")}
}

// EnsureGroup runs XGROUP CREATE ... MKSTREAM starting at "0".
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			c.logger.Debug("group exists", "stream", stream, "group", group)
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.logger.Info("group created", "stream", stream, "group", group)
	return nil
}

// Read uses XREADGROUP with ">" so only undelivered messages come back.
func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	return c.parse(streams), nil
}

// ReadPending uses XREADGROUP with "0" to replay this consumer's pending list.
func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, "0"},
		Count:    count,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup pending: %w", err)
	}
	return c.parse(streams), nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) parse(streams []redis.XStream) []Message {
	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			event, err := ParseEvent(msg.Values)
			if err != nil {
				// Malformed entries are skipped, never retried.
				c.logger.Warn("skipping malformed message", "msg_id", msg.ID, "error", err)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: event})
		}
	}
	return messages
}
