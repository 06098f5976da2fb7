package main

import (
	"github.com/charmbracelet/bubbles/textarea"
)

// editor is the Editor tab: one script buffer bound to a project path.
type editor struct {
	area  textarea.Model
	path  string
	saved string
}

func newEditor() editor {
	area := textarea.New()
	area.ShowLineNumbers = true
	area.Placeholder = "Open a script from the Files tab or use /new <name.py>"
	area.CharLimit = 0
	area.MaxHeight = 0
	area.SetWidth(80)
	area.SetHeight(12)
	return editor{area: area}
}

func (e *editor) load(path string, content string) {
	e.path = path
	e.area.SetValue(content)
	e.area.CursorStart()
	// The textarea normalizes tabs and line endings; compare against that.
	e.saved = e.area.Value()
}

func (e *editor) markSaved(path string) {
	if path == e.path {
		e.saved = e.area.Value()
	}
}

func (e *editor) dirty() bool {
	return e.path != "" && e.area.Value() != e.saved
}

func (e *editor) title() string {
	if e.path == "" {
		return "Editor"
	}
	if e.dirty() {
		return "Editor: " + e.path + " *"
	}
	return "Editor: " + e.path
}

func (e *editor) setSize(width, height int) {
	e.area.SetWidth(maxInt(20, width))
	e.area.SetHeight(maxInt(3, height))
}
