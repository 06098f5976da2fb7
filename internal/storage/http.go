package storage

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"compasview/internal/apiclient"
)

var _ Store = (*HTTPStore)(nil)

// HTTPStore keeps files on the execution server.
type HTTPStore struct {
	api *apiclient.Client
}

func NewHTTPStore(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPStore{api: apiclient.New(baseURL, timeout, logger.Named("storage"))}
}

type wireListing struct {
	Path  string `json:"path"`
	Files []struct {
		Name     string  `json:"name"`
		Path     string  `json:"path"`
		Size     int64   `json:"size"`
		Modified float64 `json:"modified"`
	} `json:"files"`
	Directories []struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"directories"`
}

func (s *HTTPStore) List(ctx context.Context, dir string) (Listing, error) {
	dir, err := CleanPath(dir)
	if err != nil {
		return Listing{}, err
	}
	var response wireListing
	if err := s.api.DoJSON(ctx, "list", http.MethodGet, "/api/files", map[string]string{"path": dir}, nil, &response); err != nil {
		return Listing{}, mapError(err)
	}
	listing := Listing{Path: dir}
	for _, f := range response.Files {
		if !IsScript(f.Name) {
			continue
		}
		sec, frac := math.Modf(f.Modified)
		listing.Files = append(listing.Files, FileEntry{
			Name:     f.Name,
			Path:     f.Path,
			Size:     f.Size,
			Modified: time.Unix(int64(sec), int64(frac*1e9)),
		})
	}
	for _, d := range response.Directories {
		listing.Directories = append(listing.Directories, DirEntry{Name: d.Name, Path: d.Path})
	}
	return listing, nil
}

func (s *HTTPStore) Read(ctx context.Context, p string) (string, error) {
	p, err := requirePath(p)
	if err != nil {
		return "", err
	}
	var response struct {
		Content string `json:"content"`
	}
	if err := s.api.DoJSON(ctx, "read", http.MethodGet, "/api/file/"+escapePath(p), nil, nil, &response); err != nil {
		return "", mapError(err)
	}
	return response.Content, nil
}

func (s *HTTPStore) Write(ctx context.Context, p string, content string) error {
	p, err := requirePath(p)
	if err != nil {
		return err
	}
	payload := map[string]any{"content": content}
	if err := s.api.DoJSON(ctx, "write", http.MethodPost, "/api/file/"+escapePath(p), nil, payload, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *HTTPStore) Delete(ctx context.Context, p string) error {
	p, err := requirePath(p)
	if err != nil {
		return err
	}
	if err := s.api.DoJSON(ctx, "delete", http.MethodDelete, "/api/file/"+escapePath(p), nil, nil, nil); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *HTTPStore) CreateFolder(ctx context.Context, parent string, name string) (string, error) {
	parent, err := CleanPath(parent)
	if err != nil {
		return "", err
	}
	name = SanitizeFolderName(nullCoalesce(name, DefaultFolderName))
	if name == "" {
		return "", fmt.Errorf("%w: empty folder name", ErrInvalidPath)
	}
	var response struct {
		Path string `json:"path"`
	}
	payload := map[string]any{"name": name}
	if err := s.api.DoJSON(ctx, "mkdir", http.MethodPost, "/api/folder/"+escapePath(parent), nil, payload, &response); err != nil {
		return "", mapError(err)
	}
	return nullCoalesce(response.Path, JoinPath(parent, name)), nil
}

// mapError turns the server's 404 and 400 replies into storage sentinels,
// keeping the transport error in the chain.
func mapError(err error) error {
	switch apiclient.StatusOf(err) {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(err.Error()), "exists") {
			return fmt.Errorf("%w: %w", ErrExists, err)
		}
	}
	return err
}

func requirePath(p string) (string, error) {
	p, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return p, nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func nullCoalesce(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
