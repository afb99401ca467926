package registry

import (
	"github.com/bunchhieng/coursetree/internal/model"
)

// CollectedTree is a bookmark of someone else's tree. Title and author are
// captured at collection time and go stale if the tree changes later.
type CollectedTree struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"author_name,omitempty"`
}

type collectedRecord struct {
	ID         any    `json:"id"`
	Title      string `json:"title"`
	AuthorName string `json:"author_name,omitempty"`
}

// Collected returns the collected trees in insertion order.
func (r *Registry) Collected() ([]CollectedTree, error) {
	var raw []collectedRecord
	if err := r.load(KeyCollected, &raw); err != nil {
		return nil, err
	}
	out := make([]CollectedTree, 0, len(raw))
	for _, rec := range raw {
		out = append(out, CollectedTree{
			ID:         model.NormalizeID(rec.ID),
			Title:      rec.Title,
			AuthorName: rec.AuthorName,
		})
	}
	return out, nil
}

// ToggleCollected removes the tree if it is already collected and appends
// it otherwise. It returns the updated list.
func (r *Registry) ToggleCollected(t CollectedTree) ([]CollectedTree, error) {
	collected, err := r.Collected()
	if err != nil {
		return nil, err
	}
	key := model.NormalizeID(t.ID)

	idx := -1
	for i, c := range collected {
		if c.ID == key {
			idx = i
			break
		}
	}
	if idx >= 0 {
		collected = append(collected[:idx], collected[idx+1:]...)
	} else {
		author := t.AuthorName
		if author == "" {
			author = model.AnonymousAuthor
		}
		collected = append(collected, CollectedTree{ID: key, Title: t.Title, AuthorName: author})
	}

	if err := r.save(KeyCollected, collected); err != nil {
		return nil, err
	}
	return collected, nil
}

// IsCollected reports whether id is in the collected list.
func (r *Registry) IsCollected(id any) (bool, error) {
	key := model.NormalizeID(id)
	if key == "" {
		return false, nil
	}
	collected, err := r.Collected()
	if err != nil {
		return false, err
	}
	for _, c := range collected {
		if c.ID == key {
			return true, nil
		}
	}
	return false, nil
}
