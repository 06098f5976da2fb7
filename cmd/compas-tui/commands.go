package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"compasview/internal/executor"
	"compasview/internal/history"
	"compasview/internal/scene"
	"compasview/internal/storage"
)

type frameMsg time.Time

type startupDoneMsg struct {
	greeting    string
	healthErr   error
	objects     []scene.Descriptor
	geometryErr error
	listing     storage.Listing
	listErr     error
	history     []history.Entry
	historyErr  error
}

type executeDoneMsg struct {
	sub    submission
	result executor.Result
	err    error
}

type sceneOpDoneMsg struct {
	op      string
	seq     uint64
	message string
	err     error
}

type geometryDoneMsg struct {
	objects []scene.Descriptor
	err     error
}

type listingDoneMsg struct {
	path    string
	listing storage.Listing
	err     error
}

type fileOpenedMsg struct {
	path    string
	content string
	err     error
}

type fileSavedMsg struct {
	path string
	err  error
}

type fileOpDoneMsg struct {
	op   string
	path string
	err  error
}

type storeChangedMsg struct {
	change storage.Change
	ok     bool
}

type historySavedMsg struct {
	added bool
	err   error
}

func tickEvery(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// startupCmd loads the initial state in parallel. Each load reports its
// own error; one failing does not cancel the others.
func startupCmd(exec *executor.Client, store storage.Store, hist *history.Store, historyLimit int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var msg startupDoneMsg
		var g errgroup.Group
		g.Go(func() error {
			msg.greeting, msg.healthErr = exec.Health(ctx)
			return nil
		})
		g.Go(func() error {
			msg.objects, msg.geometryErr = exec.Geometry(ctx)
			return nil
		})
		g.Go(func() error {
			msg.listing, msg.listErr = store.List(ctx, "")
			return nil
		})
		if hist != nil && historyLimit > 0 {
			g.Go(func() error {
				msg.history, msg.historyErr = hist.Recent(ctx, historyLimit)
				return nil
			})
		}
		_ = g.Wait()
		return msg
	}
}

func executeCmd(exec *executor.Client, sub submission) tea.Cmd {
	return func() tea.Msg {
		result, err := exec.Execute(context.Background(), sub.Code)
		return executeDoneMsg{sub: sub, result: result, err: err}
	}
}

func clearSceneCmd(exec *executor.Client, seq uint64) tea.Cmd {
	return func() tea.Msg {
		message, err := exec.Clear(context.Background())
		return sceneOpDoneMsg{op: "clear", seq: seq, message: message, err: err}
	}
}

func resetCmd(exec *executor.Client, seq uint64) tea.Cmd {
	return func() tea.Msg {
		message, err := exec.Reset(context.Background())
		return sceneOpDoneMsg{op: "reset", seq: seq, message: message, err: err}
	}
}

func reloadGeometryCmd(exec *executor.Client) tea.Cmd {
	return func() tea.Msg {
		objects, err := exec.Geometry(context.Background())
		return geometryDoneMsg{objects: objects, err: err}
	}
}

func listCmd(store storage.Store, dir string) tea.Cmd {
	return func() tea.Msg {
		listing, err := store.List(context.Background(), dir)
		return listingDoneMsg{path: dir, listing: listing, err: err}
	}
}

func openFileCmd(store storage.Store, path string) tea.Cmd {
	return func() tea.Msg {
		content, err := store.Read(context.Background(), path)
		return fileOpenedMsg{path: path, content: content, err: err}
	}
}

func saveFileCmd(store storage.Store, path string, content string) tea.Cmd {
	return func() tea.Msg {
		err := store.Write(context.Background(), path, content)
		return fileSavedMsg{path: path, err: err}
	}
}

func newFileCmd(store storage.Store, path string) tea.Cmd {
	return func() tea.Msg {
		err := store.Write(context.Background(), path, storage.NewFileTemplate)
		return fileOpDoneMsg{op: "create", path: path, err: err}
	}
}

func mkdirCmd(store storage.Store, parent string, name string) tea.Cmd {
	return func() tea.Msg {
		path, err := store.CreateFolder(context.Background(), parent, name)
		return fileOpDoneMsg{op: "mkdir", path: path, err: err}
	}
}

func deleteCmd(store storage.Store, path string) tea.Cmd {
	return func() tea.Msg {
		err := store.Delete(context.Background(), path)
		return fileOpDoneMsg{op: "delete", path: path, err: err}
	}
}

// waitForChange blocks on the local store's watcher. ok is false once the
// watcher has stopped.
func waitForChange(changes <-chan storage.Change) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		return storeChangedMsg{change: change, ok: ok}
	}
}

// recordHistoryCmd persists a submitted command and trims the table to
// keep entries.
func recordHistoryCmd(hist *history.Store, code string, keep int, logger *zap.Logger) tea.Cmd {
	if hist == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		added, err := hist.Append(ctx, code)
		if err != nil {
			return historySavedMsg{err: err}
		}
		if added && keep > 0 {
			if trimmed, err := hist.Trim(ctx, keep); err != nil {
				logger.Warn("history trim failed", zap.Error(err))
			} else if trimmed > 0 {
				logger.Debug("history trimmed", zap.Int64("rows", trimmed))
			}
		}
		return historySavedMsg{added: added}
	}
}
