package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bunchhieng/coursetree/internal/logger"
)

// Log writes one line per request. Requests that address a single tree carry
// its id, so a tree's reads and writes can be followed through the log.
// Server errors log at error level and rejected requests at warn.
func Log(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields = append(fields, logger.String("route", pattern))
				}
				if id := rctx.URLParam("id"); id != "" {
					fields = append(fields, logger.String("tree_id", id))
				}
			}

			switch {
			case status >= http.StatusInternalServerError:
				log.Error("tree api request failed", fields...)
			case status >= http.StatusBadRequest:
				log.Warn("tree api request rejected", fields...)
			default:
				log.Info("tree api request", fields...)
			}
		})
	}
}
