package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/httpserver/handlers"
)

func init() { Register("/healthz", registerHealthz, middleware.NoCache) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Healthz(d))
}
