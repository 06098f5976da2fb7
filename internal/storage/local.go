package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var _ Store = (*LocalStore)(nil)

// LocalStore keeps files under a directory on this machine.
type LocalStore struct {
	root   string
	logger *zap.Logger
}

func NewLocalStore(root string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	return &LocalStore{root: abs, logger: logger.Named("storage")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) resolve(p string) (string, string, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, full, nil
}

// List returns an empty listing for a directory that does not exist.
func (s *LocalStore) List(_ context.Context, dir string) (Listing, error) {
	clean, full, err := s.resolve(dir)
	if err != nil {
		return Listing{}, err
	}
	listing := Listing{Path: clean}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return listing, nil
	}
	if err != nil {
		return Listing{}, fmt.Errorf("list %s: %w", clean, err)
	}
	for _, entry := range entries {
		rel := JoinPath(clean, entry.Name())
		if entry.IsDir() {
			listing.Directories = append(listing.Directories, DirEntry{Name: entry.Name(), Path: rel})
			continue
		}
		if !IsScript(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		listing.Files = append(listing.Files, FileEntry{
			Name:     entry.Name(),
			Path:     rel,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return listing, nil
}

func (s *LocalStore) Read(_ context.Context, p string) (string, error) {
	clean, full, err := s.resolveFile(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", clean, err)
	}
	return string(data), nil
}

// Write creates missing parent directories.
func (s *LocalStore) Write(_ context.Context, p string, content string) error {
	clean, full, err := s.resolveFile(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	s.logger.Debug("file written", zap.String("path", clean), zap.Int("bytes", len(content)))
	return nil
}

// Delete removes a file, or a directory with everything below it.
func (s *LocalStore) Delete(_ context.Context, p string) error {
	clean, full, err := s.resolveFile(p)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete %s: %w", clean, err)
	}
	s.logger.Debug("path deleted", zap.String("path", clean))
	return nil
}

func (s *LocalStore) CreateFolder(_ context.Context, parent string, name string) (string, error) {
	name = SanitizeFolderName(nullCoalesce(name, DefaultFolderName))
	if name == "" {
		return "", fmt.Errorf("%w: empty folder name", ErrInvalidPath)
	}
	cleanParent, _, err := s.resolve(parent)
	if err != nil {
		return "", err
	}
	clean, full, err := s.resolve(JoinPath(cleanParent, name))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, clean)
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", clean, err)
	}
	return clean, nil
}

func (s *LocalStore) resolveFile(p string) (string, string, error) {
	clean, full, err := s.resolve(p)
	if err != nil {
		return "", "", err
	}
	if clean == "" {
		return "", "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return clean, full, nil
}

var sampleScripts = []struct {
	path    string
	content string
}{
	{"examples/boxes.py", `# Create boxes
from compas.geometry import Box

# Simple box
box1 = Box.from_width_height_depth(2, 1, 0.5)
box1.frame.point = [0, 0, 0]

# Another box
box2 = Box.from_width_height_depth(1, 1, 1)
box2.frame.point = [3, 0, 0]

scene_objects.extend([box1, box2])
print("Created 2 boxes!")
`},
	{"examples/spheres.py", `# Create spheres
from compas.geometry import Sphere

sphere1 = Sphere([0, 0, 0], 1)
sphere2 = Sphere([3, 0, 0], 0.5)

scene_objects.extend([sphere1, sphere2])
print("Created 2 spheres!")
`},
	{"main.py", `# Main COMPAS script
from compas.geometry import Box, Sphere, Point

# Welcome to COMPAS Web Viewport!
print("Welcome to COMPAS Web Viewport!")

# Create some geometry
box = Box.from_width_height_depth(2, 1, 0.5)
sphere = Sphere([3, 0, 0], 1)
point = Point(0, 2, 0)

scene_objects.extend([box, sphere, point])
print(f"Added {len(scene_objects)} objects to scene")
`},
}

// SeedDefaults writes the sample scripts that are missing and returns the
// paths it created.
func (s *LocalStore) SeedDefaults(ctx context.Context) ([]string, error) {
	var created []string
	for _, sample := range sampleScripts {
		_, full, err := s.resolve(sample.path)
		if err != nil {
			return created, err
		}
		if _, err := os.Stat(full); err == nil {
			continue
		}
		if err := s.Write(ctx, sample.path, sample.content); err != nil {
			return created, err
		}
		created = append(created, sample.path)
	}
	if len(created) > 0 {
		s.logger.Info("seeded sample scripts", zap.Strings("paths", created))
	}
	return created, nil
}
