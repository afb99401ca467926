// Package registry keeps the per-browser bookkeeping that never reaches the
// document store: the trees this browser owns, the trees it has collected,
// the recently opened trees, and a handful of per-tree flags.
//
// Every identifier comparison goes through model.NormalizeID, because ids
// arrive as numbers or strings depending on who wrote them.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/bunchhieng/coursetree/internal/clock"
	"github.com/bunchhieng/coursetree/internal/kv"
	"github.com/bunchhieng/coursetree/internal/logger"
)

const (
	KeyOwned     = "owned_trees"
	KeyCollected = "collected_trees"
	KeyHistory   = "recent_trees"

	prefixOwner       = "tree_owner_"
	prefixJustCreated = "tree_just_created_"
	prefixToastShown  = "tree_toast_shown_"
	prefixLiked       = "tree_liked_"

	// MaxHistory is the number of recent trees kept.
	MaxHistory = 5

	// UntitledTitle replaces an empty title in history.
	UntitledTitle = "Untitled"

	flagTrue = "true"
)

// Registry reads and writes the local lists through a kv.Store.
type Registry struct {
	store kv.Store
	clock clock.Clock
	log   logger.Logger
}

// New returns a Registry over store.
func New(store kv.Store, clk clock.Clock, log logger.Logger) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{store: store, clock: clk, log: log}
}

// load decodes the JSON list at key into dest. A missing key leaves dest
// untouched; a corrupt value is logged and treated as missing.
func (r *Registry) load(key string, dest any) error {
	raw, err := r.store.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		reflect.ValueOf(dest).Elem().SetZero()
		r.log.Warn("discarding corrupt registry entry",
			logger.String("key", key),
			logger.Error(err),
		)
	}
	return nil
}

func (r *Registry) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Set(key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (r *Registry) flag(key string) (bool, error) {
	v, err := r.store.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	return v == flagTrue, nil
}

func (r *Registry) setFlag(key string) error {
	if err := r.store.Set(key, flagTrue); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
