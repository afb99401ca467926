package registry

import (
	"encoding/json"
	"sort"

	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/model"
)

// HistoryEntry is one recently opened tree. Timestamp is in Unix
// milliseconds.
type HistoryEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
}

type historyRecord struct {
	ID        any         `json:"id"`
	Title     string      `json:"title"`
	Timestamp json.Number `json:"timestamp"`
}

func (r *Registry) loadHistory() ([]HistoryEntry, error) {
	var raw []historyRecord
	if err := r.load(KeyHistory, &raw); err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(raw))
	for _, rec := range raw {
		ts, err := rec.Timestamp.Int64()
		if err != nil {
			if f, ferr := rec.Timestamp.Float64(); ferr == nil {
				ts = int64(f)
			}
		}
		out = append(out, HistoryEntry{
			ID:        model.NormalizeID(rec.ID),
			Title:     rec.Title,
			Timestamp: ts,
		})
	}
	return out, nil
}

// History returns the recent trees, most recent first.
func (r *Registry) History() ([]HistoryEntry, error) {
	return r.loadHistory()
}

// SaveHistory moves id to the front of the history with the given title,
// drops older entries for the same id and keeps at most MaxHistory entries.
// It returns the new list. An empty id leaves history unchanged.
func (r *Registry) SaveHistory(id any, title string) ([]HistoryEntry, error) {
	key := model.NormalizeID(id)
	if key == "" {
		return r.loadHistory()
	}
	if title == "" {
		title = UntitledTitle
	}

	history, err := r.loadHistory()
	if err != nil {
		return nil, err
	}

	next := make([]HistoryEntry, 0, len(history)+1)
	next = append(next, HistoryEntry{
		ID:        key,
		Title:     title,
		Timestamp: r.clock.Now().UnixMilli(),
	})
	for _, h := range history {
		if h.ID != key {
			next = append(next, h)
		}
	}
	if len(next) > MaxHistory {
		next = next[:MaxHistory]
	}

	if err := r.save(KeyHistory, next); err != nil {
		return nil, err
	}
	return next, nil
}

// CleanupHistory collapses duplicate entries left by older clients, keeping
// the newest entry per id, and reapplies the size cap. Storage is rewritten
// only when the result differs from what is stored. It reports whether a
// rewrite happened.
func (r *Registry) CleanupHistory() (bool, error) {
	var stored []historyRecord
	if err := r.load(KeyHistory, &stored); err != nil {
		return false, err
	}
	if len(stored) == 0 {
		return false, nil
	}
	history, err := r.loadHistory()
	if err != nil {
		return false, err
	}

	// One slot per id in first-seen order, holding that id's newest entry.
	slot := make(map[string]int, len(history))
	cleaned := make([]HistoryEntry, 0, len(history))
	for _, h := range history {
		i, ok := slot[h.ID]
		if !ok {
			slot[h.ID] = len(cleaned)
			cleaned = append(cleaned, h)
			continue
		}
		if h.Timestamp > cleaned[i].Timestamp {
			cleaned[i] = h
		}
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Timestamp > cleaned[j].Timestamp
	})
	if len(cleaned) > MaxHistory {
		cleaned = cleaned[:MaxHistory]
	}

	if !historyChanged(stored, cleaned) {
		return false, nil
	}
	if err := r.save(KeyHistory, cleaned); err != nil {
		return false, err
	}
	r.log.Info("cleaned recent tree history",
		logger.Int("before", len(stored)),
		logger.Int("after", len(cleaned)),
	)
	return true, nil
}

// historyChanged compares by position. A stored id with a non-string JSON
// type counts as a change so the rewrite canonicalizes it.
func historyChanged(stored []historyRecord, cleaned []HistoryEntry) bool {
	if len(stored) != len(cleaned) {
		return true
	}
	for i, h := range cleaned {
		s, ok := stored[i].ID.(string)
		if !ok || s != h.ID || stored[i].Title != h.Title {
			return true
		}
	}
	return false
}
