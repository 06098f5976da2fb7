package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProjectServer serves the file endpoints from an in-memory map, the way
// the execution server does from its projects directory.
type fakeProjectServer struct {
	mu      sync.Mutex
	files   map[string]string
	folders map[string]bool
}

func (f *fakeProjectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/api/files":
		dir := r.URL.Query().Get("path")
		resp := map[string]any{"path": dir, "files": []any{}, "directories": []any{}}
		var files, dirs []any
		for p, content := range f.files {
			if ParentPath(p) == dir {
				files = append(files, map[string]any{"name": p[strings.LastIndex(p, "/")+1:], "path": p, "size": len(content), "modified": 1700000000.5})
			}
		}
		for p := range f.folders {
			if ParentPath(p) == dir {
				dirs = append(dirs, map[string]any{"name": p[strings.LastIndex(p, "/")+1:], "path": p})
			}
		}
		if files != nil {
			resp["files"] = files
		}
		if dirs != nil {
			resp["directories"] = dirs
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasPrefix(r.URL.Path, "/api/file/"):
		p := strings.TrimPrefix(r.URL.Path, "/api/file/")
		switch r.Method {
		case http.MethodGet:
			content, ok := f.files[p]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail": "File not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"path": p, "content": content})
		case http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.files[p] = body["content"]
			_, _ = w.Write([]byte(`{"success": true, "message": "File saved"}`))
		case http.MethodDelete:
			if _, ok := f.files[p]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"detail": "Path not found"}`))
				return
			}
			delete(f.files, p)
			_, _ = w.Write([]byte(`{"success": true, "message": "Deleted"}`))
		}
	case strings.HasPrefix(r.URL.Path, "/api/folder/"):
		parent := strings.TrimPrefix(r.URL.Path, "/api/folder/")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		p := JoinPath(parent, body["name"])
		if f.folders[p] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "Folder already exists"}`))
			return
		}
		f.folders[p] = true
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "path": p})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newHTTPStore(t *testing.T) (*HTTPStore, *fakeProjectServer) {
	t.Helper()
	fake := &fakeProjectServer{files: map[string]string{}, folders: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewHTTPStore(srv.URL, time.Second, nil), fake
}

func TestHTTPStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newHTTPStore(t)

	require.NoError(t, store.Write(ctx, "examples/my script.py", "print(1)\n"))
	content, err := store.Read(ctx, "examples/my script.py")
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", content)

	listing, err := store.List(ctx, "examples")
	require.NoError(t, err)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, "my script.py", listing.Files[0].Name)
	assert.Equal(t, int64(1700000000), listing.Files[0].Modified.Unix())

	require.NoError(t, store.Delete(ctx, "examples/my script.py"))
	_, err = store.Read(ctx, "examples/my script.py")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "examples/my script.py"), ErrNotFound)
}

func TestHTTPStoreCreateFolder(t *testing.T) {
	ctx := context.Background()
	store, _ := newHTTPStore(t)

	p, err := store.CreateFolder(ctx, "", "lib/x")
	require.NoError(t, err)
	assert.Equal(t, "lib_x", p)

	_, err = store.CreateFolder(ctx, "", "lib_x")
	assert.ErrorIs(t, err, ErrExists)

	listing, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []DirEntry{{Name: "lib_x", Path: "lib_x"}}, listing.Directories)
	assert.Empty(t, listing.Files)
}

func TestHTTPStoreRejectsBadPaths(t *testing.T) {
	ctx := context.Background()
	store, _ := newHTTPStore(t)
	_, err := store.Read(ctx, "../x.py")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.ErrorIs(t, store.Write(ctx, "", "x"), ErrInvalidPath)
}
