package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateForcesExtension(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Create("family", "parent(tom, bob).\n", false)
	require.NoError(t, err)
	assert.Equal(t, "family.pl", name)

	name, err = store.Create("animals.pl", "cat(tom).\n", false)
	require.NoError(t, err)
	assert.Equal(t, "animals.pl", name)
}

func TestCreateOverwritePolicy(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Create("kb", "a.\n", false)
	require.NoError(t, err)

	_, err = store.Create("kb", "b.\n", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = store.Create("kb", "b.\n", true)
	require.NoError(t, err)

	content, err := store.Read("kb")
	require.NoError(t, err)
	assert.Equal(t, "b.\n", content)
}

func TestCreateRejectsPathEscape(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape", "sub/dir", ""} {
		_, err := store.Create(name, "x.\n", false)
		assert.Error(t, err, "name %q", name)
	}
}

func TestListSortedWithSizes(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	_, err = store.Create("zebra", "z(1).\n", false)
	require.NoError(t, err)
	_, err = store.Create("alpha", "a(1).\na(2).\n", false)
	require.NoError(t, err)

	// Non-.pl files are invisible to the store.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha.pl", infos[0].Name)
	assert.Equal(t, int64(len("a(1).\na(2).\n")), infos[0].Size)
	assert.Equal(t, "zebra.pl", infos[1].Name)
}

func TestDelete(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Create("gone", "g.\n", false)
	require.NoError(t, err)
	require.NoError(t, store.Delete("gone"))

	_, err = store.Read("gone")
	require.Error(t, err)
	require.Error(t, store.Delete("gone"))
}
