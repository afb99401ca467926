package tree

import (
	"context"

	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
)

// Like adds one like to the open tree unless this browser already liked it.
// It reports whether a like was added. The liked flag is set before the
// write, so a failed write is not counted again on retry; the increment stays
// in memory and goes out with the next successful save.
func Like(ctx context.Context, s *Synchronizer, reg *registry.Registry) (bool, model.TreeData, error) {
	id := s.ID()
	liked, err := reg.HasLiked(id)
	if err != nil {
		return false, model.TreeData{}, err
	}
	if liked {
		return false, s.Doc(), nil
	}

	if err := reg.MarkLiked(id); err != nil {
		return false, s.Doc(), err
	}
	doc, err := s.ApplyEditImmediate(ctx, IncrementLikes())
	if err != nil {
		return true, doc, err
	}
	return true, doc, nil
}
