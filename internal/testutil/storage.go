package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/storage"
)

// FakeStorage is an in-memory storage.Storage that records every call.
// Set CreateErr or UpdateErr to make the next calls fail.
type FakeStorage struct {
	mu        sync.Mutex
	docs      map[string][]byte
	next      int
	Updates   []Update
	Creates   int
	CreateErr error
	UpdateErr error
}

// Update is one recorded Update call.
type Update struct {
	ID      string
	Content []byte
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{docs: make(map[string][]byte)}
}

// Put seeds a document under id.
func (f *FakeStorage) Put(id string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = append([]byte(nil), content...)
}

// Get returns the stored content for id, or nil.
func (f *FakeStorage) Get(id string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id]
}

// UpdateCount returns the number of Update calls so far.
func (f *FakeStorage) UpdateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Updates)
}

// LastUpdate returns the most recent Update call.
func (f *FakeStorage) LastUpdate() (Update, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Updates) == 0 {
		return Update{}, false
	}
	return f.Updates[len(f.Updates)-1], true
}

func (f *FakeStorage) Create(_ context.Context, content []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates++
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.next++
	id := fmt.Sprintf("tree%d", f.next)
	f.docs[id] = append([]byte(nil), content...)
	return id, nil
}

func (f *FakeStorage) Read(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return doc, nil
}

func (f *FakeStorage) Update(_ context.Context, id string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, Update{ID: id, Content: append([]byte(nil), content...)})
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.docs[id]; !ok {
		return model.ErrNotFound
	}
	f.docs[id] = append([]byte(nil), content...)
	return nil
}

func (f *FakeStorage) List(_ context.Context, opts storage.ListOptions) ([]storage.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.Summary, 0, len(f.docs))
	for id := range f.docs {
		out = append(out, storage.Summary{ID: id, CreatedAt: time.Time{}, UpdatedAt: time.Time{}})
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

func (f *FakeStorage) Close() error { return nil }
