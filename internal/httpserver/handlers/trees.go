package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/migrate"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/storage"
)

const defaultMaxBodyBytes = 1 << 20

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateTree stores a new tree and returns its id.
func CreateTree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, ok := readTree(w, r, d)
		if !ok {
			return
		}
		id, err := d.Store.Create(r.Context(), content)
		if err != nil {
			d.Logger.Error("create tree failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "could not create tree")
			return
		}
		d.Logger.Info("tree created", logger.String("tree_id", id))
		writeJSON(w, http.StatusCreated, storage.CreateResponse{ID: id})
	}
}

// GetTree returns a tree's stored content unchanged. Legacy shapes are
// normalized by the reader.
func GetTree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		content, err := d.Store.Read(r.Context(), id)
		if !handleStoreError(w, d, id, err) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(content)
	}
}

// UpdateTree overwrites a tree. The last write wins.
func UpdateTree(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		content, ok := readTree(w, r, d)
		if !ok {
			return
		}
		err := d.Store.Update(r.Context(), id, content)
		if !handleStoreError(w, d, id, err) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListTrees returns summaries of recently updated trees.
func ListTrees(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := storage.ListOptions{Limit: 20}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 100 {
				writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 100")
				return
			}
			opts.Limit = n
		}
		list, err := d.Store.List(r.Context(), opts)
		if err != nil {
			d.Logger.Error("list trees failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "internal", "could not list trees")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// readTree reads the request body, normalizes it to the canonical shape and
// validates it. It writes the error response itself and reports false on
// failure.
func readTree(w http.ResponseWriter, r *http.Request, d deps.Deps) ([]byte, bool) {
	limit := d.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "tree document too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "could not read body")
		return nil, false
	}

	res := migrate.Decode(body)
	if res.Err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", res.Err.Error())
		return nil, false
	}
	if err := model.Validate(res.Doc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_tree", err.Error())
		return nil, false
	}
	content, err := json.Marshal(res.Doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "could not encode tree")
		return nil, false
	}
	return content, true
}

// handleStoreError maps store errors to responses and reports whether the
// caller should continue.
func handleStoreError(w http.ResponseWriter, d deps.Deps, id string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, model.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid tree id")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "tree not found")
	default:
		d.Logger.Error("store error", logger.String("tree_id", id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "store unavailable")
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
