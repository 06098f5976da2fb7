package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)

	require.NoError(t, store.Write(ctx, "examples/new.py", NewFileTemplate))
	content, err := store.Read(ctx, "examples/new.py")
	require.NoError(t, err)
	assert.Equal(t, NewFileTemplate, content)

	require.NoError(t, store.Delete(ctx, "examples/new.py"))
	_, err = store.Read(ctx, "examples/new.py")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "examples/new.py"), ErrNotFound)
}

func TestLocalStoreListsOnlyScripts(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	require.NoError(t, store.Write(ctx, "a.py", "x = 1\n"))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "notes.txt"), []byte("n"), 0o644))
	_, err := store.CreateFolder(ctx, "", "lib")
	require.NoError(t, err)

	listing, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "a.py", listing.Files[0].Path)
	assert.Equal(t, int64(6), listing.Files[0].Size)
	assert.Equal(t, []DirEntry{{Name: "lib", Path: "lib"}}, listing.Directories)
}

func TestLocalStoreMissingDirectoryIsEmpty(t *testing.T) {
	listing, err := newLocal(t).List(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.True(t, listing.Empty())
	assert.Equal(t, "nowhere", listing.Path)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	_, err := store.Read(ctx, "../outside.py")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, store.Write(ctx, "", "x"), ErrInvalidPath)
	assert.ErrorIs(t, store.Delete(ctx, "/"), ErrInvalidPath)
}

func TestLocalStoreCreateFolder(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)

	p, err := store.CreateFolder(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultFolderName, p)

	p, err = store.CreateFolder(ctx, "examples", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "examples/a_b", p)

	_, err = store.CreateFolder(ctx, "examples", "a_b")
	assert.ErrorIs(t, err, ErrExists)
}

func TestSeedDefaultsOnlyWritesMissing(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	require.NoError(t, store.Write(ctx, "main.py", "# mine\n"))

	created, err := store.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"examples/boxes.py", "examples/spheres.py"}, created)

	mine, err := store.Read(ctx, "main.py")
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", mine)

	created, err = store.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestWatchReportsScriptChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "fresh.py"), []byte("x = 1\n"), 0o644))

	timeout := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case change := <-changes:
			assert.NotEqual(t, "ignored.txt", change.Path)
			seen = change.Path == "fresh.py"
		case <-timeout:
			t.Fatal("no change reported for fresh.py")
		}
	}

	cancel()
	for range changes {
	}
}
