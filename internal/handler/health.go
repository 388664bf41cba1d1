package handler

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// handleHealth reports liveness and database reachability.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Version: h.version, Timestamp: time.Now().UTC()}
	status := http.StatusOK
	if err := h.catalog.Ping(ctx); err != nil {
		h.logger.Warn("database ping failed", "error", err)
		resp.Status, resp.Database = "degraded", "unavailable"
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}
