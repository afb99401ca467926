package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunchhieng/coursetree/internal/kv"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/testutil"
)

func newTestRegistry(t *testing.T) (*Registry, *kv.Memory, *testutil.StubClock) {
	t.Helper()
	store := kv.NewMemory()
	clk := testutil.FixedClock()
	return New(store, clk, logger.NewNop()), store, clk
}

func TestSaveHistoryDedupsNumericAndStringIDs(t *testing.T) {
	r, _, clk := newTestRegistry(t)

	_, err := r.SaveHistory("5", "A")
	require.NoError(t, err)
	clk.Advance(time.Second)

	history, err := r.SaveHistory(5, "B")
	require.NoError(t, err)

	require.Len(t, history, 1)
	assert.Equal(t, "5", history[0].ID)
	assert.Equal(t, "B", history[0].Title)

	stored, err := r.History()
	require.NoError(t, err)
	assert.Equal(t, history, stored)
}

func TestSaveHistoryCapsAtFiveMostRecentFirst(t *testing.T) {
	r, _, clk := newTestRegistry(t)

	for i := 1; i <= 7; i++ {
		_, err := r.SaveHistory(fmt.Sprintf("t%d", i), fmt.Sprintf("Tree %d", i))
		require.NoError(t, err)
		clk.Advance(time.Second)
	}

	history, err := r.History()
	require.NoError(t, err)
	require.Len(t, history, MaxHistory)

	ids := make([]string, len(history))
	for i, h := range history {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{"t7", "t6", "t5", "t4", "t3"}, ids)
}

func TestSaveHistoryMovesExistingToFront(t *testing.T) {
	r, _, clk := newTestRegistry(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := r.SaveHistory(id, id)
		require.NoError(t, err)
		clk.Advance(time.Second)
	}
	history, err := r.SaveHistory("a", "renamed")
	require.NoError(t, err)

	require.Len(t, history, 3)
	assert.Equal(t, "a", history[0].ID)
	assert.Equal(t, "renamed", history[0].Title)
	assert.Equal(t, clk.Now().UnixMilli(), history[0].Timestamp)
	assert.Equal(t, "c", history[1].ID)
	assert.Equal(t, "b", history[2].ID)
}

func TestSaveHistoryDefaults(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	history, err := r.SaveHistory("x", "")
	require.NoError(t, err)
	assert.Equal(t, UntitledTitle, history[0].Title)

	unchanged, err := r.SaveHistory("", "ignored")
	require.NoError(t, err)
	assert.Equal(t, history, unchanged)

	unchanged, err = r.SaveHistory(nil, "ignored")
	require.NoError(t, err)
	assert.Equal(t, history, unchanged)
}

func TestCleanupHistoryCollapsesDuplicates(t *testing.T) {
	r, store, _ := newTestRegistry(t)

	// Written by an older client that compared ids without normalizing.
	require.NoError(t, store.Set(KeyHistory, `[
		{"id":"5","title":"new","timestamp":300},
		{"id":5,"title":"old","timestamp":100},
		{"id":"a","title":"A","timestamp":200},
		{"id":"b","title":"B","timestamp":50},
		{"id":"c","title":"C","timestamp":40},
		{"id":"d","title":"D","timestamp":30},
		{"id":"e","title":"E","timestamp":20}
	]`))

	changed, err := r.CleanupHistory()
	require.NoError(t, err)
	assert.True(t, changed)

	history, err := r.History()
	require.NoError(t, err)
	assert.Equal(t, []HistoryEntry{
		{ID: "5", Title: "new", Timestamp: 300},
		{ID: "a", Title: "A", Timestamp: 200},
		{ID: "b", Title: "B", Timestamp: 50},
		{ID: "c", Title: "C", Timestamp: 40},
		{ID: "d", Title: "D", Timestamp: 30},
	}, history)

	before, err := store.Get(KeyHistory)
	require.NoError(t, err)

	changed, err = r.CleanupHistory()
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := store.Get(KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCleanupHistoryKeepsOrderOfSameMillisecondEntries(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	for _, id := range []any{"a", "b", 3, "a"} {
		_, err := r.SaveHistory(id, "")
		require.NoError(t, err)
	}

	before, err := r.History()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "3", "b"}, historyIDs(before))

	changed, err := r.CleanupHistory()
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := r.History()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func historyIDs(entries []HistoryEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestCleanupHistoryOnCleanOrEmptyStore(t *testing.T) {
	r, store, clk := newTestRegistry(t)

	changed, err := r.CleanupHistory()
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = store.Get(KeyHistory)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	_, err = r.SaveHistory("a", "A")
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = r.SaveHistory("b", "B")
	require.NoError(t, err)

	changed, err = r.CleanupHistory()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCorruptHistoryDegradesToEmpty(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	require.NoError(t, store.Set(KeyHistory, `{not json`))

	history, err := r.History()
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = r.SaveHistory("a", "A")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestToggleCollectedTwiceRestoresMembership(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	ok, err := r.IsCollected("t1")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := r.ToggleCollected(CollectedTree{ID: "t1", Title: "Plan"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Anonymous", list[0].AuthorName)

	ok, err = r.IsCollected("t1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = r.ToggleCollected(CollectedTree{ID: "t1", Title: "Plan"})
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err = r.IsCollected("t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggleCollectedMatchesNumericIDs(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	require.NoError(t, store.Set(KeyCollected, `[{"id":42,"title":"Old","author_name":"Kim"}]`))

	ok, err := r.IsCollected("42")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := r.ToggleCollected(CollectedTree{ID: "42"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOwned(t *testing.T) {
	r, store, _ := newTestRegistry(t)

	require.NoError(t, r.AddOwned("abc"))
	require.NoError(t, r.AddOwned("abc"))
	require.NoError(t, r.AddOwned(7))

	owned, err := r.Owned()
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "7"}, owned)

	raw, err := store.Get(KeyOwned)
	require.NoError(t, err)
	assert.JSONEq(t, `["abc","7"]`, raw)

	ok, err := r.IsOwner("7")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsOwner("other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsOwner("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnerFlagCountsAsOwned(t *testing.T) {
	r, store, _ := newTestRegistry(t)
	require.NoError(t, store.Set("tree_owner_legacy1", "true"))

	ok, err := r.IsOwner("legacy1")
	require.NoError(t, err)
	assert.True(t, ok)

	owned, err := r.Owned()
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy1"}, owned)
}

func TestJustCreatedIsConsumedOnce(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	require.NoError(t, r.MarkJustCreated("n1"))

	ok, err := r.IsOwner("n1")
	require.NoError(t, err)
	assert.True(t, ok)

	first, err := r.ConsumeJustCreated("n1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := r.ConsumeJustCreated("n1")
	require.NoError(t, err)
	assert.False(t, second)
}

func TestToastAndLikeFlags(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	shown, err := r.ToastShown("x")
	require.NoError(t, err)
	assert.False(t, shown)
	require.NoError(t, r.MarkToastShown("x"))
	shown, err = r.ToastShown("x")
	require.NoError(t, err)
	assert.True(t, shown)

	first, err := r.ConsumeOnboarding("y")
	require.NoError(t, err)
	assert.True(t, first)
	again, err := r.ConsumeOnboarding("y")
	require.NoError(t, err)
	assert.False(t, again)
	again, err = r.ConsumeOnboarding("x")
	require.NoError(t, err)
	assert.False(t, again)

	liked, err := r.HasLiked(9)
	require.NoError(t, err)
	assert.False(t, liked)
	require.NoError(t, r.MarkLiked("9"))
	liked, err = r.HasLiked(9)
	require.NoError(t, err)
	assert.True(t, liked)
}
