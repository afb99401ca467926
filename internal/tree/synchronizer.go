// Package tree keeps one open course tree in memory and writes it back to
// the document store. Edits apply immediately; persistence is debounced so
// a burst of edits becomes a single write of the latest state.
package tree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bunchhieng/coursetree/internal/clock"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/migrate"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/storage"
)

// DefaultDebounce is the quiescence window before a write-back.
const DefaultDebounce = 500 * time.Millisecond

// ErrNotLoaded is returned by edits made before Load succeeded.
var ErrNotLoaded = errors.New("tree not loaded")

// SaveStatus describes the write-back state of the open tree.
type SaveStatus int

const (
	StatusIdle SaveStatus = iota
	StatusPending
	StatusSaving
	StatusSaved
	StatusSaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusSaveFailed:
		return "save failed"
	default:
		return "unknown"
	}
}

// Options configures a Synchronizer. Zero values fall back to defaults.
type Options struct {
	Debounce  time.Duration
	Scheduler clock.Scheduler
	// Registry, when set, records every loaded tree in recent history.
	Registry *registry.Registry
	Logger   logger.Logger
	// OnStatus is called after every save status change, outside any lock.
	OnStatus func(SaveStatus)
}

// Synchronizer owns the in-memory copy of one tree. There is no conflict
// detection: the last write to reach the store wins.
type Synchronizer struct {
	store    storage.Storage
	debounce time.Duration
	sched    clock.Scheduler
	reg      *registry.Registry
	log      logger.Logger
	onStatus func(SaveStatus)

	mu      sync.Mutex
	id      string
	doc     model.TreeData
	loaded  bool
	closed  bool
	pending clock.Task
	// gen increments whenever a scheduled write is superseded, so a callback
	// that already fired can tell it is stale.
	gen    uint64
	status SaveStatus
}

// NewSynchronizer returns a Synchronizer writing to store.
func NewSynchronizer(store storage.Storage, opts Options) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Synchronizer{
		store:    store,
		debounce: opts.Debounce,
		sched:    opts.Scheduler,
		reg:      opts.Registry,
		log:      opts.Logger,
		onStatus: opts.OnStatus,
	}
}

// Load fetches the tree, normalizes legacy shapes and records it in recent
// history. A missing tree returns model.ErrNotFound and is not retried.
func (s *Synchronizer) Load(ctx context.Context, id string) (model.TreeData, error) {
	raw, err := s.store.Read(ctx, id)
	if err != nil {
		return model.TreeData{}, fmt.Errorf("load tree %s: %w", id, err)
	}

	res := migrate.Decode(raw)
	if res.Err != nil {
		s.log.Warn("tree content unreadable, starting empty",
			logger.String("tree_id", id),
			logger.Error(res.Err),
		)
	} else if res.Migrated {
		s.log.Info("normalized legacy tree",
			logger.String("tree_id", id),
			logger.String("shape", res.Shape.String()),
		)
	}

	s.mu.Lock()
	s.cancelLocked()
	s.id = id
	s.doc = res.Doc
	s.loaded = true
	s.closed = false
	doc := s.doc.Clone()
	s.mu.Unlock()
	s.setStatus(StatusIdle)

	if s.reg != nil {
		if _, err := s.reg.SaveHistory(id, doc.Title); err != nil {
			s.log.Warn("failed to record history", logger.String("tree_id", id), logger.Error(err))
		}
	}
	return doc, nil
}

// ID returns the id of the loaded tree.
func (s *Synchronizer) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Doc returns a copy of the current in-memory tree.
func (s *Synchronizer) Doc() model.TreeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Status returns the current save status.
func (s *Synchronizer) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ApplyEdit applies m and schedules a write of the latest state once edits
// have been quiet for the debounce window. A pending write is replaced.
func (s *Synchronizer) ApplyEdit(m Mutation) (model.TreeData, error) {
	s.mu.Lock()
	if !s.loaded || s.closed {
		s.mu.Unlock()
		return model.TreeData{}, ErrNotLoaded
	}
	s.doc = m(s.doc)
	s.cancelLocked()
	gen := s.gen
	s.pending = s.sched.AfterFunc(s.debounce, func() { s.flush(gen) })
	doc := s.doc.Clone()
	s.mu.Unlock()

	s.setStatus(StatusPending)
	return doc, nil
}

// ApplyEditImmediate applies m, drops any pending debounced write and writes
// now. On failure the in-memory edit is kept.
func (s *Synchronizer) ApplyEditImmediate(ctx context.Context, m Mutation) (model.TreeData, error) {
	s.mu.Lock()
	if !s.loaded || s.closed {
		s.mu.Unlock()
		return model.TreeData{}, ErrNotLoaded
	}
	s.doc = m(s.doc)
	s.cancelLocked()
	gen := s.gen
	id, doc := s.id, s.doc.Clone()
	s.mu.Unlock()

	err := s.write(ctx, gen, id, doc)
	return doc, err
}

// Flush writes a pending debounced edit now. It does nothing when no write
// is pending.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.loaded || s.closed || s.pending == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancelLocked()
	gen := s.gen
	id, doc := s.id, s.doc.Clone()
	s.mu.Unlock()

	return s.write(ctx, gen, id, doc)
}

// Close cancels a pending write without flushing it. Edits still inside the
// debounce window are lost.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}

func (s *Synchronizer) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

// flush runs on the scheduler's goroutine when the debounce window ends.
func (s *Synchronizer) flush(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	id, doc := s.id, s.doc.Clone()
	s.mu.Unlock()

	_ = s.write(context.Background(), gen, id, doc)
}

func (s *Synchronizer) write(ctx context.Context, gen uint64, id string, doc model.TreeData) error {
	s.setStatus(StatusSaving)

	content, err := json.Marshal(doc)
	if err == nil {
		err = s.store.Update(ctx, id, content)
	}
	if err != nil {
		s.log.Error("failed to save tree",
			logger.String("tree_id", id),
			logger.Error(err),
		)
		s.settle(gen, StatusSaveFailed)
		return fmt.Errorf("save tree %s: %w", id, err)
	}

	s.log.Debug("tree saved", logger.String("tree_id", id), logger.Int("courses", len(doc.Courses)))
	s.settle(gen, StatusSaved)
	return nil
}

// settle records the outcome of a write unless a newer edit has been made
// since, in which case the tree is still pending.
func (s *Synchronizer) settle(gen uint64, st SaveStatus) {
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if current {
		s.setStatus(st)
	}
}

func (s *Synchronizer) setStatus(st SaveStatus) {
	s.mu.Lock()
	changed := s.status != st
	s.status = st
	s.mu.Unlock()
	if changed && s.onStatus != nil {
		s.onStatus(st)
	}
}
