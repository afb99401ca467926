package routes

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type mount struct {
	prefix string
	reg    Registrar
	mws    []Middleware
}

var mounts = map[string]mount{}

// Register mounts reg under prefix with optional middlewares scoped to that
// prefix. Each prefix may be claimed once.
func Register(prefix string, reg Registrar, mws ...Middleware) {
	if _, taken := mounts[prefix]; taken {
		panic(fmt.Sprintf("routes: %s registered twice", prefix))
	}
	mounts[prefix] = mount{prefix: prefix, reg: reg, mws: mws}
}

// Prefixes lists the registered mount points in sorted order.
func Prefixes() []string {
	out := make([]string, 0, len(mounts))
	for p := range mounts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RegisterAll is called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, prefix := range Prefixes() {
		m := mounts[prefix]
		r.Route(m.prefix, func(sub chi.Router) {
			sub.Use(m.mws...)
			m.reg(sub, d)
		})
	}
}
