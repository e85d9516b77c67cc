package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"time"

	"civicvoice/internal/cache"
	"civicvoice/internal/config"
	"civicvoice/internal/database"
	"civicvoice/internal/handler"
	"civicvoice/internal/logging"
	"civicvoice/internal/queue"
	"civicvoice/internal/redis"
	"civicvoice/internal/repository"
	"civicvoice/internal/service"
	"civicvoice/internal/worker"
)

const (
	streamMaxLen    = 10000
	shutdownTimeout = 10 * time.Second
)

// Run starts the backend and blocks until ctx is cancelled or the listener
// fails.
func Run(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	// 2. Connect to Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	issueRepo := repository.NewIssueRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	// 3. Redis is optional: without it there is no vote cache and no workers
	var (
		voteCache cache.VoteCache
		publisher queue.Publisher
		redisPing handler.Pinger
	)
	rdb, err := redis.Connect(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without cache and workers", "error", err)
	} else {
		defer rdb.Close()

		voteCache = cache.NewVoteCache(rdb.Client, logger)
		publisher = queue.NewPublisher(rdb.Client, streamMaxLen, logger)
		redisPing = handler.PingFunc(rdb.Ping)

		manager := worker.NewManager(
			queue.NewConsumer(rdb.Client, logger),
			worker.NewHandler(voteCache, voteRepo, logger),
			worker.DefaultManagerConfig(),
			logger,
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	}

	// 4. Setup Server
	router := NewRouter(RouterConfig{
		CommentHandler: handler.NewCommentHandler(service.NewCommentService(commentRepo, issueRepo, publisher, logger)),
		VoteHandler:    handler.NewVoteHandler(service.NewVoteService(voteRepo, voteCache, publisher, logger)),
		HealthHandler: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": db,
			"redis":    redisPing,
		}),
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
