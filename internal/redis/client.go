package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultURL is used when REDIS_URL is empty.
const DefaultURL = "redis://localhost:6379/0"

// Client is the shared Redis connection of the server.
type Client struct {
	*redis.Client
}

// Connect parses redisURL (redis://[:password@]host:port[/db]), opens a pool
// and pings it so a bad address fails at startup.
func Connect(ctx context.Context, redisURL string, logger *slog.Logger) (*Client, error) {
	if redisURL == "" {
		redisURL = DefaultURL
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	c := &Client{Client: redis.NewClient(opts)}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		c.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("connected to redis", "addr", opts.Addr, "db", opts.DB)
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}
