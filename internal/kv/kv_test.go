package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"badger": b,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("owned_trees")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set("owned_trees", `["a","b"]`))
			v, err := s.Get("owned_trees")
			require.NoError(t, err)
			assert.Equal(t, `["a","b"]`, v)

			require.NoError(t, s.Set("owned_trees", `[]`))
			v, err = s.Get("owned_trees")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v)

			require.NoError(t, s.Delete("owned_trees"))
			_, err = s.Get("owned_trees")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, s.Delete("never_set"))
		})
	}
}

func TestStoreKeys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set("tree_owner_b", "true"))
			require.NoError(t, s.Set("tree_owner_a", "true"))
			require.NoError(t, s.Set("recent_trees", "[]"))

			keys, err := s.Keys("tree_owner_")
			require.NoError(t, err)
			assert.Equal(t, []string{"tree_owner_a", "tree_owner_b"}, keys)
		})
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")

	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set("collected_trees", `[{"id":"x"}]`))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir)
	require.NoError(t, err)
	defer b.Close()

	v, err := b.Get("collected_trees")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, v)
}
