package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/httpserver/handlers"
)

func init() { Register("/api/trees", registerTrees) }

func registerTrees(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.ListTrees(d))
	r.Post("/", handlers.CreateTree(d))
	r.Get("/{id}", handlers.GetTree(d))
	r.Put("/{id}", handlers.UpdateTree(d))
}
