// Package storage lists, reads and writes the project's script files,
// either through the execution server or directly on a local directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrExists      = errors.New("already exists")
	ErrInvalidPath = errors.New("invalid path")
)

const (
	ScriptExt         = ".py"
	DefaultFolderName = "New Folder"
	NewFileTemplate   = "# New COMPAS script\nfrom compas.geometry import Box\n\n# Write your code here\n"
)

// Store is the project file surface. Paths are slash separated and relative
// to the project root; "" is the root itself.
type Store interface {
	List(ctx context.Context, dir string) (Listing, error)
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path string, content string) error
	Delete(ctx context.Context, path string) error
	CreateFolder(ctx context.Context, parent string, name string) (string, error)
}

type FileEntry struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

type DirEntry struct {
	Name string
	Path string
}

// Listing is one directory's scripts and subdirectories. Only script files
// are listed.
type Listing struct {
	Path        string
	Files       []FileEntry
	Directories []DirEntry
}

func (l Listing) Empty() bool {
	return len(l.Files) == 0 && len(l.Directories) == 0
}

// CleanPath normalizes a project-relative path and rejects anything that
// would escape the root.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", nil
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	return cleaned, nil
}

// JoinPath joins a directory and a name. The root directory is "".
func JoinPath(dir string, name string) string {
	dir = strings.Trim(dir, "/")
	name = strings.Trim(name, "/")
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	return dir + "/" + name
}

// ParentPath returns the directory containing p, "" for top-level entries.
func ParentPath(p string) string {
	p = strings.Trim(p, "/")
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// IsScript reports whether name has the script extension.
func IsScript(name string) bool {
	return strings.HasSuffix(name, ScriptExt)
}

// SanitizeFolderName replaces path separators so a folder name is a single
// path segment.
func SanitizeFolderName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

type Crumb struct {
	Name string
	Path string
}

// Breadcrumbs splits p into navigable ancestors, starting at the root.
func Breadcrumbs(p string) []Crumb {
	crumbs := []Crumb{{Name: "~", Path: ""}}
	current := ""
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		current = JoinPath(current, part)
		crumbs = append(crumbs, Crumb{Name: part, Path: current})
	}
	return crumbs
}

func FormatBreadcrumbs(crumbs []Crumb) string {
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	if len(names) == 1 {
		return names[0] + " /"
	}
	return strings.Join(names, " / ")
}
