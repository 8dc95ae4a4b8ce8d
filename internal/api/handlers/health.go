package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	DB Pinger
}

// Health reports liveness and, when a database is configured, its reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]string{"status": "ok"}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.DB.PingContext(ctx); err != nil {
			res["status"] = "degraded"
			res["database"] = "unreachable"
			writeJSON(w, r, http.StatusServiceUnavailable, res)
			return
		}
		res["database"] = "ok"
	}

	writeJSON(w, r, http.StatusOK, res)
}
