package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/storage"
)

const storePingTimeout = 2 * time.Second

type healthzResponse struct {
	Status        string  `json:"status"`
	Store         string  `json:"store"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
}

// Healthz reports whether the tree store answers. A store that fails a one
// row listing turns the check into a 503.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Store:         "ok",
			Version:       d.Version,
			UptimeSeconds: time.Since(start).Seconds(),
		}
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
		defer cancel()
		if _, err := d.Store.List(ctx, storage.ListOptions{Limit: 1}); err != nil {
			d.Logger.Warn("tree store ping failed", logger.Error(err))
			resp.Status = "degraded"
			resp.Store = "unavailable"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	}
}
