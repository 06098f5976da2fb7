package main

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# COMPAS viewport

Type Python at the prompt and press **Enter**. The server runs it and
every COMPAS object it knows about is drawn in the viewport.

## Terminal

| Key | Action |
|---|---|
| Enter | run the prompt |
| ↑ / ↓ | command history |
| shift+arrows | pan the viewport |
| + / - | zoom (prompt empty) |
| 0 | reset the camera (prompt empty) |
| mouse wheel | zoom |

## Slash commands

| Command | Action |
|---|---|
| /clear | clear the terminal |
| /reset | reset the server session and the scene |
| /scene clear | remove all geometry on the server |
| /reload | fetch geometry not yet shown |
| /drop <id> | hide one object locally |
| /view 3d, /view layout | switch projection |
| /new <name.py> | create a script |
| /mkdir <name> | create a folder |
| /rm <path> | delete a file or folder |
| /help | this page |
| /quit | exit |

## Files and editor

In **Files**, Enter opens a folder or script, Backspace goes up,
` + "`d`" + ` then ` + "`y`" + ` deletes, ` + "`r`" + ` refreshes.
In **Editor**, ctrl+s saves and ctrl+r runs the buffer. Output of an
editor run stays on screen until /clear.

Tab and shift+tab switch tabs. Esc asks to quit.
`

// renderHelp renders the help page for the given width. Rendering
// failures fall back to the raw markdown.
func renderHelp(width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(maxInt(20, width)),
	)
	if err != nil {
		return wrapText(helpMarkdown, width)
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return wrapText(helpMarkdown, width)
	}
	return strings.TrimRight(out, "\n")
}
