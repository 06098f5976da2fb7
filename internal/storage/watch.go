package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ChangeOp string

const (
	ChangeCreate ChangeOp = "create"
	ChangeModify ChangeOp = "modify"
	ChangeDelete ChangeOp = "delete"
	ChangeRename ChangeOp = "rename"
)

// Change is one filesystem event below the project root.
type Change struct {
	Path string
	Op   ChangeOp
}

// Watch reports changes to scripts and directories below the root until ctx
// is done. The channel is closed when watching stops. Events are dropped
// when the reader falls behind; a refresh re-reads the directory anyway.
func (s *LocalStore) Watch(ctx context.Context) (<-chan Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := s.addTree(watcher, s.root); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan Change, 32)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := s.translate(watcher, event)
				if !ok {
					continue
				}
				select {
				case out <- change:
				default:
					s.logger.Debug("watch event dropped", zap.String("path", change.Path))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watch error", zap.Error(err))
			}
		}
	}()
	return out, nil
}

func (s *LocalStore) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (s *LocalStore) translate(watcher *fsnotify.Watcher, event fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(s.root, event.Name)
	if err != nil {
		return Change{}, false
	}
	rel = filepath.ToSlash(rel)

	var op ChangeOp
	switch {
	case event.Op&fsnotify.Create != 0:
		op = ChangeCreate
	case event.Op&fsnotify.Write != 0:
		op = ChangeModify
	case event.Op&fsnotify.Remove != 0:
		op = ChangeDelete
	case event.Op&fsnotify.Rename != 0:
		op = ChangeRename
	default:
		return Change{}, false
	}

	isDir := false
	if op == ChangeCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			if err := s.addTree(watcher, event.Name); err != nil {
				s.logger.Warn("watch new directory", zap.String("path", rel), zap.Error(err))
			}
		}
	}
	// Removed paths can no longer be stat'ed; keep anything without an
	// extension as a possible directory.
	if !isDir && !IsScript(rel) && filepath.Ext(rel) != "" {
		return Change{}, false
	}
	return Change{Path: rel, Op: op}, true
}
