package deps

import (
	"time"

	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/storage"
)

type Deps struct {
	Logger         logger.Logger
	Store          storage.Storage // Backing document store
	StartTime      time.Time
	Version        string
	AllowedOrigins []string // CORS origins; empty allows any
	MaxBodyBytes   int64    // Upper bound on a tree document
}
