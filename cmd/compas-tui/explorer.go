package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"compasview/internal/storage"
)

type entryKind int

const (
	entryParent entryKind = iota
	entryDir
	entryFile
)

type explorerItem struct {
	kind entryKind
	name string
	path string
	size int64
}

func (i explorerItem) FilterValue() string { return i.name }

// explorerDelegate draws one row per entry without the default two-line
// title/description layout.
type explorerDelegate struct {
	theme *uiTheme
}

func (d explorerDelegate) Height() int                             { return 1 }
func (d explorerDelegate) Spacing() int                            { return 0 }
func (d explorerDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d explorerDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(explorerItem)
	if !ok {
		return
	}
	var label string
	switch entry.kind {
	case entryParent:
		label = d.theme.dirItem.Render("↰ ..")
	case entryDir:
		label = d.theme.dirItem.Render("▸ " + entry.name + "/")
	default:
		label = d.theme.fileItem.Render("  "+entry.name) + d.theme.helpText.Render(fmt.Sprintf("  %dB", entry.size))
	}
	cursor := "  "
	if index == m.Index() {
		cursor = d.theme.settingPick.Render("› ")
	}
	fmt.Fprint(w, truncate(cursor+label, maxInt(10, m.Width())))
}

// explorer is the Files tab: one directory of the project store at a time.
type explorer struct {
	list    list.Model
	dir     string
	listing storage.Listing
	// pendingDelete holds a path awaiting confirmation.
	pendingDelete string
}

func newExplorer(theme *uiTheme) explorer {
	l := list.New(nil, explorerDelegate{theme: theme}, 40, 10)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return explorer{list: l}
}

func (e *explorer) setListing(listing storage.Listing) {
	e.dir = listing.Path
	e.listing = listing
	e.pendingDelete = ""
	e.list.SetItems(explorerItems(listing))
	e.list.Select(0)
}

func explorerItems(listing storage.Listing) []list.Item {
	items := make([]list.Item, 0, len(listing.Files)+len(listing.Directories)+1)
	if listing.Path != "" {
		items = append(items, explorerItem{kind: entryParent, name: "..", path: storage.ParentPath(listing.Path)})
	}
	for _, dir := range listing.Directories {
		items = append(items, explorerItem{kind: entryDir, name: dir.Name, path: dir.Path})
	}
	for _, file := range listing.Files {
		items = append(items, explorerItem{kind: entryFile, name: file.Name, path: file.Path, size: file.Size})
	}
	return items
}

func (e *explorer) selected() (explorerItem, bool) {
	item, ok := e.list.SelectedItem().(explorerItem)
	return item, ok
}

func (e *explorer) setSize(width, height int) {
	e.list.SetSize(maxInt(20, width), maxInt(3, height))
}

func (e *explorer) breadcrumbs() string {
	return storage.FormatBreadcrumbs(storage.Breadcrumbs(e.dir))
}

// resolve turns a user-typed name into a project path relative to the
// current directory. A leading slash anchors it at the project root.
func (e *explorer) resolve(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "/") {
		return strings.TrimPrefix(name, "/")
	}
	return storage.JoinPath(e.dir, name)
}

func (e *explorer) emptyText() string {
	if e.listing.Empty() {
		return "No files. Use /new <name.py> or /mkdir <name>."
	}
	return ""
}
