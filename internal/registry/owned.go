package registry

import (
	"strings"

	"github.com/bunchhieng/coursetree/internal/model"
)

// Owned returns the ids of trees created or forked in this browser,
// including those recorded only through the per-tree owner flag.
func (r *Registry) Owned() ([]string, error) {
	var raw []any
	if err := r.load(KeyOwned, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, v := range raw {
		id := model.NormalizeID(v)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	keys, err := r.store.Keys(prefixOwner)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, prefixOwner)
		if seen[id] {
			continue
		}
		if ok, _ := r.flag(k); ok {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// AddOwned records id as owned. Adding an id twice is a no-op.
func (r *Registry) AddOwned(id any) error {
	key := model.NormalizeID(id)
	if key == "" {
		return nil
	}
	var raw []any
	if err := r.load(KeyOwned, &raw); err != nil {
		return err
	}
	owned := make([]string, 0, len(raw)+1)
	for _, v := range raw {
		if s := model.NormalizeID(v); s != "" {
			if s == key {
				return nil
			}
			owned = append(owned, s)
		}
	}
	return r.save(KeyOwned, append(owned, key))
}

// IsOwner reports whether this browser owns id.
func (r *Registry) IsOwner(id any) (bool, error) {
	key := model.NormalizeID(id)
	if key == "" {
		return false, nil
	}
	owned, err := r.Owned()
	if err != nil {
		return false, err
	}
	for _, o := range owned {
		if o == key {
			return true, nil
		}
	}
	return false, nil
}
