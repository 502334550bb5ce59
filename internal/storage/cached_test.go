package storage

import (
	"slices"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string   `json:"id"`
	Body string   `json:"body"`
	Rev  int      `json:"rev"`
	Tags []string `json:"tags,omitempty"`
}

func (n note) StorageKey() string {
	return n.ID
}

func (n note) Clone() note {
	n.Tags = slices.Clone(n.Tags)
	return n
}

func newTestStorage(t *testing.T, dir string) *CachedStorage[string, note] {
	t.Helper()

	persist, err := NewPersistInstance(dir)
	require.NoError(t, err)

	cached, err := NewCachedStorage(NewStorage[string, note]("notes", persist, zerolog.Nop()))
	require.NoError(t, err)

	return cached
}

func TestCachedStorageSetGet(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	_, ok := cached.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, cached.Len())

	stored, err := cached.Set("a", note{ID: "a", Body: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Body)

	got, ok := cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", got.Body)
	assert.Equal(t, 1, cached.Len())

	_, err = cached.Set("a", note{ID: "a", Body: "second", Rev: 1})
	require.NoError(t, err)

	got, ok = cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, "second", got.Body)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedStorageSurvivesReload(t *testing.T) {
	dir := t.TempDir()

	cached := newTestStorage(t, dir)
	_, err := cached.Set("a", note{ID: "a", Body: "persisted"})
	require.NoError(t, err)
	_, err = cached.Set("b", note{ID: "b", Body: "also persisted"})
	require.NoError(t, err)

	reloaded := newTestStorage(t, dir)
	assert.Equal(t, 2, reloaded.Len())

	got, ok := reloaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, "persisted", got.Body)
}

func TestCachedStorageGetAndModifyOrInsert(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	inserted, err := cached.GetAndModifyOrInsert("a",
		func(n *note) { n.Rev++ },
		func() (note, bool) { return note{ID: "a", Body: "fresh"}, true },
	)
	require.NoError(t, err)
	assert.Equal(t, "fresh", inserted.Body)
	assert.Equal(t, 0, inserted.Rev)

	modified, err := cached.GetAndModifyOrInsert("a",
		func(n *note) { n.Rev++ },
		func() (note, bool) { return note{}, false },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, modified.Rev)

	_, err = cached.GetAndModifyOrInsert("missing",
		func(n *note) { n.Rev++ },
		func() (note, bool) { return note{}, false },
	)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedStorageRemove(t *testing.T) {
	dir := t.TempDir()
	cached := newTestStorage(t, dir)

	_, err := cached.Set("a", note{ID: "a"})
	require.NoError(t, err)

	removed, err := cached.Remove("a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = cached.Remove("a")
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded := newTestStorage(t, dir)
	assert.Equal(t, 0, reloaded.Len())
}

func TestCachedStorageRestore(t *testing.T) {
	dir := t.TempDir()
	cached := newTestStorage(t, dir)

	_, err := cached.Set("old", note{ID: "old"})
	require.NoError(t, err)

	err = cached.Restore([]note{
		{ID: "a", Body: "restored"},
		{ID: "b", Body: "restored"},
	})
	require.NoError(t, err)

	_, ok := cached.Get("old")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"a", "b"}, cached.Keys())

	reloaded := newTestStorage(t, dir)
	got, ok := reloaded.Get("b")
	require.True(t, ok)
	assert.Equal(t, "restored", got.Body)
}

func TestCachedStorageFiltered(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	for _, n := range []note{
		{ID: "a", Rev: 1},
		{ID: "b", Rev: 2},
		{ID: "c", Rev: 3},
	} {
		_, err := cached.Set(n.ID, n)
		require.NoError(t, err)
	}

	kept := cached.Filtered(func(n note) bool { return n.Rev >= 2 })
	assert.Len(t, kept, 2)
	for _, n := range kept {
		assert.GreaterOrEqual(t, n.Rev, 2)
	}
}

func TestCachedStorageGetReturnsDetachedCopy(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	_, err := cached.Set("a", note{ID: "a", Body: "first", Tags: []string{"pinned"}})
	require.NoError(t, err)

	got, ok := cached.Get("a")
	require.True(t, ok)
	got.Tags[0] = "scribbled"
	got.Tags = append(got.Tags, "extra")

	fresh, ok := cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"pinned"}, fresh.Tags)

	for _, value := range cached.Values() {
		value.Tags[0] = "scribbled"
	}
	fresh, ok = cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"pinned"}, fresh.Tags)
}

func TestCachedStorageSetDetachesFromCaller(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	mine := note{ID: "a", Body: "first", Tags: []string{"pinned"}}
	_, err := cached.Set("a", mine)
	require.NoError(t, err)

	mine.Tags[0] = "scribbled"

	got, ok := cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"pinned"}, got.Tags)
}

func TestCachedStorageModifySnapshotIsDetached(t *testing.T) {
	cached := newTestStorage(t, t.TempDir())

	_, err := cached.Set("a", note{ID: "a", Tags: []string{"pinned"}})
	require.NoError(t, err)

	modified, err := cached.GetAndModifyOrInsert(
		"a",
		func(n *note) { n.Rev++ },
		func() (note, bool) { return note{}, false },
	)
	require.NoError(t, err)
	modified.Tags[0] = "scribbled"

	got, ok := cached.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"pinned"}, got.Tags)
}
