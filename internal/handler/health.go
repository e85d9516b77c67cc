package handler

import (
	"context"
	"net/http"
	"time"

	"civicvoice/internal/httputil"
	"civicvoice/internal/logging"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler builds a handler probing each named dependency.
// Nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	result := map[string]string{"status": "ok"}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health check failed", "dependency", name, "error", err)
			result[name] = "down"
			result["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	httputil.WriteJSON(w, status, result)
}
