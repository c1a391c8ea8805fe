package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/archviz/store"
	"github.com/smallnest/archviz/store/storetest"
)

func TestFileStateStore(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) store.StateStore {
			fs, err := NewFileStateStore(FileOptions{Dir: t.TempDir()})
			require.NoError(t, err)
			return fs
		})
	})
	t.Run("compressed", func(t *testing.T) {
		storetest.Run(t, func(t *testing.T) store.StateStore {
			fs, err := NewFileStateStore(FileOptions{Dir: t.TempDir(), Compress: true})
			require.NoError(t, err)
			return fs
		})
	})
}

func TestNewFileStateStore(t *testing.T) {
	t.Parallel()

	t.Run("creates directory if missing", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "nested", "state")

		fs, err := NewFileStateStore(FileOptions{Dir: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, fs.Dir())

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("requires a directory", func(t *testing.T) {
		t.Parallel()
		_, err := NewFileStateStore(FileOptions{})
		assert.Error(t, err)
	})
}

func TestFileStateStore_Layout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := NewFileStateStore(FileOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, fs.Save(ctx, "team/a", storetest.SampleState()))

	data, err := os.ReadFile(filepath.Join(dir, "team%2Fa.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":0`)

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStateStore_SwitchEncoding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	plain, err := NewFileStateStore(FileOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, plain.Save(ctx, "k", storetest.SampleState()))

	// A compressed store still reads the plain document
	zst, err := NewFileStateStore(FileOptions{Dir: dir, Compress: true})
	require.NoError(t, err)
	got, err := zst.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "shop", got.System)

	// Saving compressed replaces the plain file
	require.NoError(t, zst.Save(ctx, "k", storetest.SampleState()))
	_, err = os.Stat(filepath.Join(dir, "k.json"))
	assert.True(t, os.IsNotExist(err))

	raw, err := os.ReadFile(filepath.Join(dir, "k.json.zst"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"system"`)

	keys, err := plain.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, keys)

	got, err = plain.Load(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 2)
}

func TestFileStateStore_CorruptDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	fs, err := NewFileStateStore(FileOptions{Dir: dir})
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	keys, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bad"}, keys)
}
