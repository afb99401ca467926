package tree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunchhieng/coursetree/internal/kv"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/migrate"
	"github.com/bunchhieng/coursetree/internal/model"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/testutil"
)

func newPublisher(t *testing.T) (*Publisher, *testutil.FakeStorage, *registry.Registry) {
	t.Helper()
	store := testutil.NewFakeStorage()
	reg := registry.New(kv.NewMemory(), testutil.FixedClock(), logger.NewNop())
	return NewPublisher(store, reg, logger.NewNop()), store, reg
}

func TestForkRegeneratesIDsAndResetsPrivateFields(t *testing.T) {
	p, store, reg := newPublisher(t)

	source := sampleTree()
	source.Title = "Alice's plan"
	source.Likes = 12
	source.ContactInfo = model.StringPtr("alice@example.com")
	source.AuthorName = model.StringPtr("Alice")

	id, doc, err := p.Fork(context.Background(), source)
	require.NoError(t, err)

	require.Len(t, doc.Courses, 2)
	assert.NotEqual(t, doc.Courses[0].ID, doc.Courses[1].ID)
	for _, c := range doc.Courses {
		assert.NotEqual(t, "a", c.ID)
		assert.NotEqual(t, "b", c.ID)
	}
	assert.NotEqual(t, "r1", doc.Courses[1].Resources[0].ID)
	assert.Equal(t, 0, doc.Likes)
	assert.Nil(t, doc.ContactInfo)
	assert.Equal(t, "Alice", doc.Author())
	assert.Equal(t, "Alice's plan (Remix)", doc.Title)

	// Source is untouched.
	assert.Equal(t, "a", source.Courses[0].ID)
	assert.Equal(t, 12, source.Likes)

	stored := migrate.Normalize(store.Get(id))
	assert.Equal(t, doc, stored)

	owner, err := reg.IsOwner(id)
	require.NoError(t, err)
	assert.True(t, owner)

	history, err := reg.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, doc.Title, history[0].Title)

	justCreated, err := reg.ConsumeJustCreated(id)
	require.NoError(t, err)
	assert.True(t, justCreated)
}

func TestForkFailureLeavesRegistryUntouched(t *testing.T) {
	p, store, reg := newPublisher(t)
	store.CreateErr = errors.New("quota exceeded")

	_, _, err := p.Fork(context.Background(), sampleTree())
	require.Error(t, err)

	owned, err := reg.Owned()
	require.NoError(t, err)
	assert.Empty(t, owned)

	history, err := reg.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreateFromSeed(t *testing.T) {
	p, _, reg := newPublisher(t)

	seed := model.TreeData{Courses: sampleTree().Courses, Likes: 3}
	id, doc, err := p.Create(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultTitle, doc.Title)
	assert.Equal(t, 0, doc.Likes)
	assert.Nil(t, doc.ContactInfo)
	assert.NotEqual(t, "a", doc.Courses[0].ID)

	owner, err := reg.IsOwner(id)
	require.NoError(t, err)
	assert.True(t, owner)
}

func TestLikeOncePerBrowser(t *testing.T) {
	f := newSyncFixture(t)
	f.load(t, "t1", `{"title":"Plan","likes":4,"courses":[]}`)

	added, doc, err := Like(context.Background(), f.sync, f.reg)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 5, doc.Likes)
	assert.Equal(t, 1, f.store.UpdateCount())

	added, doc, err = Like(context.Background(), f.sync, f.reg)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 5, doc.Likes)
	assert.Equal(t, 1, f.store.UpdateCount())
}

func TestLikeRetryAfterFailedWriteDoesNotCountTwice(t *testing.T) {
	f := newSyncFixture(t)
	f.load(t, "t1", `{"title":"Plan","likes":4,"courses":[]}`)
	f.store.UpdateErr = errors.New("offline")

	added, doc, err := Like(context.Background(), f.sync, f.reg)
	require.Error(t, err)
	assert.True(t, added)
	assert.Equal(t, 5, doc.Likes)
	assert.Equal(t, StatusSaveFailed, f.sync.Status())

	added, doc, err = Like(context.Background(), f.sync, f.reg)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 5, doc.Likes)

	f.store.UpdateErr = nil
	_, err = f.sync.ApplyEdit(SetTitle("Plan"))
	require.NoError(t, err)
	f.sched.Advance(DefaultDebounce)

	u, ok := f.store.LastUpdate()
	require.True(t, ok)
	assert.Equal(t, 5, decodeUpdate(t, u).Likes)
}
