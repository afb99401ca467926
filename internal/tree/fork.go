package tree

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/storage"
)

// RemixSuffix marks the title of a forked tree.
const RemixSuffix = " (Remix)"

// Publisher creates new trees in the store and registers them as owned by
// this browser.
type Publisher struct {
	store storage.Storage
	reg   *registry.Registry
	log   logger.Logger
}

// NewPublisher returns a Publisher.
func NewPublisher(store storage.Storage, reg *registry.Registry, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{store: store, reg: reg, log: log}
}

// Create stores seed as a new tree. Template courses get fresh ids, likes
// start at zero and there is no contact info.
func (p *Publisher) Create(ctx context.Context, seed model.TreeData) (string, model.TreeData, error) {
	doc := reidentify(seed)
	if doc.Title == "" {
		doc.Title = model.DefaultTitle
	}
	return p.publish(ctx, doc)
}

// Fork stores an independent copy of source. Every course and resource gets
// a new id, likes reset to zero, contact info is dropped and the author is
// kept. The title is marked as a remix.
func (p *Publisher) Fork(ctx context.Context, source model.TreeData) (string, model.TreeData, error) {
	doc := reidentify(source)
	title := source.Title
	if title == "" {
		title = model.DefaultTitle
	}
	doc.Title = title + RemixSuffix
	return p.publish(ctx, doc)
}

// reidentify deep copies t with fresh course and resource ids.
func reidentify(t model.TreeData) model.TreeData {
	out := t.Clone()
	for i := range out.Courses {
		c := &out.Courses[i]
		c.ID = model.NewToken("course")
		if c.Resources == nil {
			c.Resources = []model.Resource{}
		}
		for j := range c.Resources {
			c.Resources[j].ID = model.NewToken("res")
		}
	}
	if out.Courses == nil {
		out.Courses = []model.Course{}
	}
	out.Likes = 0
	out.ContactInfo = nil
	return out
}

// publish writes doc to the store and only then touches local state, so a
// failed write leaves the registry untouched.
func (p *Publisher) publish(ctx context.Context, doc model.TreeData) (string, model.TreeData, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return "", model.TreeData{}, fmt.Errorf("encode tree: %w", err)
	}
	id, err := p.store.Create(ctx, content)
	if err != nil {
		return "", model.TreeData{}, fmt.Errorf("create tree: %w", err)
	}

	if p.reg != nil {
		if err := p.reg.AddOwned(id); err != nil {
			p.log.Warn("failed to record ownership", logger.String("tree_id", id), logger.Error(err))
		}
		if err := p.reg.MarkJustCreated(id); err != nil {
			p.log.Warn("failed to flag new tree", logger.String("tree_id", id), logger.Error(err))
		}
		if _, err := p.reg.SaveHistory(id, doc.Title); err != nil {
			p.log.Warn("failed to record history", logger.String("tree_id", id), logger.Error(err))
		}
	}

	p.log.Info("tree created",
		logger.String("tree_id", id),
		logger.Int("courses", len(doc.Courses)),
	)
	return id, doc, nil
}
