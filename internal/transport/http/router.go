package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"civicvoice/internal/handler"
	authmw "civicvoice/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	CommentHandler *handler.CommentHandler
	VoteHandler    *handler.VoteHandler
	HealthHandler  *handler.HealthHandler
	JWTSecret      string
	Logger         *slog.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", cfg.HealthHandler.Health)

	// Comments are public to read; the viewer is identified when a token is sent
	r.With(authmw.OptionalAuth(cfg.JWTSecret)).Get("/issues/{id}/comments", cfg.CommentHandler.List)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/issues/{id}/comments", cfg.CommentHandler.Create)

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Put("/", cfg.CommentHandler.Update)
			r.Delete("/", cfg.CommentHandler.Delete)
			r.Post("/flag", cfg.CommentHandler.Flag)
		})

		r.Post("/issues/{id}/vote", cfg.VoteHandler.Cast)
		r.Delete("/issues/{id}/vote", cfg.VoteHandler.Remove)
		r.Get("/issues/{id}/vote-status", cfg.VoteHandler.Status)
	})

	return r
}
