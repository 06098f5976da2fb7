package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"compasview/internal/config"
	"compasview/internal/executor"
	"compasview/internal/history"
	"compasview/internal/render"
	"compasview/internal/scene"
	"compasview/internal/storage"
	"compasview/internal/termlog"
)

type tabID int

const (
	tabTerminal tabID = iota
	tabFiles
	tabEditor
	tabHelp
	tabCount
)

const (
	panStep    = 0.1
	zoomFactor = 1.25
	maxLogs    = 50
)

// deps are the collaborators main wires into the model.
type deps struct {
	cfg     config.Config
	exec    *executor.Client
	store   storage.Store
	history *history.Store
	changes <-chan storage.Change
	logger  *zap.Logger
	start   time.Time
}

type model struct {
	cfg     config.Config
	logger  *zap.Logger
	exec    *executor.Client
	store   storage.Store
	hist    *history.Store
	changes <-chan storage.Change

	sched   *termlog.ManualScheduler
	termLog *termlog.Log
	canvas  *render.Canvas
	scene   *scene.Synchronizer
	session *session
	cursor  *history.Cursor

	theme     uiTheme
	input     textinput.Model
	spinner   spinner.Model
	help      viewport.Model
	helpWidth int
	explorer  explorer
	editor    editor

	activeTab   tabID
	statusLine  string
	logs        []string
	inflight    int
	quitConfirm bool
	width       int
	height      int
}

func newModel(d deps) *model {
	logger := d.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	start := d.start
	if start.IsZero() {
		start = time.Now()
	}

	sched := termlog.NewManualScheduler(start)
	termLog := termlog.New(sched,
		termlog.WithCapacity(d.cfg.MaxVisibleLines),
		termlog.WithFade(d.cfg.Fade),
		termlog.WithClock(sched.Now),
	)
	canvas := render.NewCanvas()
	sync := scene.NewSynchronizer(canvas, logger)

	input := textinput.New()
	input.Placeholder = "box = Box(1, 2, 3)   or /help"
	input.Prompt = ">>> "
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &model{
		cfg:        d.cfg,
		logger:     logger,
		exec:       d.exec,
		store:      d.store,
		hist:       d.history,
		changes:    d.changes,
		sched:      sched,
		termLog:    termLog,
		canvas:     canvas,
		scene:      sync,
		session:    newSession(sync, termLog, logger),
		cursor:     history.NewCursor(nil),
		input:      input,
		spinner:    spin,
		help:       viewport.New(80, 20),
		activeTab:  tabTerminal,
		statusLine: "connecting to " + d.cfg.Server,
		width:      120,
		height:     40,
	}
	m.theme = newTheme()
	m.explorer = newExplorer(&m.theme)
	m.editor = newEditor()
	m.session.greet()
	m.resize()
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textinput.Blink,
		startupCmd(m.exec, m.store, m.hist, m.cfg.HistoryLimit, m.cfg.RequestTimeout),
		tickEvery(m.cfg.FrameInterval),
		waitForChange(m.changes),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case frameMsg:
		m.sched.AdvanceTo(time.Time(msg))
		return m, tickEvery(m.cfg.FrameInterval)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case startupDoneMsg:
		m.handleStartup(msg)
		return m, nil
	case executeDoneMsg:
		m.inflight = maxInt(0, m.inflight-1)
		report, applied := m.session.complete(msg.sub, msg.result, msg.err)
		switch {
		case msg.err != nil:
			m.logError(msg.err)
		case applied:
			m.statusLine = fmt.Sprintf("#%d done: %d object(s) in scene", msg.sub.Seq, m.scene.Len())
			m.appendLog(fmt.Sprintf("run #%d: +%d, %d skipped, %d released", msg.sub.Seq, len(report.Added), len(report.Rejected), report.Removed))
		default:
			m.statusLine = fmt.Sprintf("#%d done: newer scene kept", msg.sub.Seq)
		}
		return m, nil
	case sceneOpDoneMsg:
		m.inflight = maxInt(0, m.inflight-1)
		m.handleSceneOp(msg)
		return m, nil
	case geometryDoneMsg:
		m.inflight = maxInt(0, m.inflight-1)
		if msg.err != nil {
			m.session.fail(msg.err, false)
			m.logError(msg.err)
			return m, nil
		}
		report := m.session.merge(msg.objects)
		m.statusLine = fmt.Sprintf("reloaded: %d new, %d in scene", len(report.Added), m.scene.Len())
		return m, nil
	case listingDoneMsg:
		if msg.err != nil {
			m.alert("list "+nullCoalesce(msg.path, "~"), msg.err)
			return m, nil
		}
		m.explorer.setListing(msg.listing)
		return m, nil
	case fileOpenedMsg:
		if msg.err != nil {
			m.alert("open "+msg.path, msg.err)
			return m, nil
		}
		m.editor.load(msg.path, msg.content)
		m.switchTab(tabEditor)
		m.statusLine = "opened " + msg.path
		return m, nil
	case fileSavedMsg:
		if msg.err != nil {
			m.alert("save "+msg.path, msg.err)
			return m, nil
		}
		m.editor.markSaved(msg.path)
		m.statusLine = "saved " + msg.path
		m.appendLog("saved " + msg.path)
		return m, m.refreshListing(msg.path)
	case fileOpDoneMsg:
		return m, m.handleFileOp(msg)
	case storeChangedMsg:
		if !msg.ok {
			m.appendLog("project watcher stopped")
			m.changes = nil
			return m, nil
		}
		m.logger.Debug("project changed", zap.String("path", msg.change.Path), zap.String("op", string(msg.change.Op)))
		return m, tea.Batch(m.refreshListing(msg.change.Path), waitForChange(m.changes))
	case historySavedMsg:
		if msg.err != nil && !errors.Is(msg.err, history.ErrEmpty) {
			m.logger.Warn("history write failed", zap.Error(msg.err))
			m.appendLog("history write failed: " + msg.err.Error())
		}
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleStartup(msg startupDoneMsg) {
	if msg.healthErr != nil {
		m.logError(msg.healthErr)
		m.session.fail(msg.healthErr, false)
	} else {
		m.statusLine = "connected: " + nullCoalesce(msg.greeting, m.exec.BaseURL())
		m.appendLog("server " + m.exec.BaseURL() + " healthy")
	}
	if msg.geometryErr != nil {
		m.logError(msg.geometryErr)
	} else {
		report := m.session.merge(msg.objects)
		m.appendLog(fmt.Sprintf("initial scene: %d object(s)", len(report.Added)))
	}
	if msg.listErr != nil {
		m.appendLog("file listing failed: " + msg.listErr.Error())
	} else {
		m.explorer.setListing(msg.listing)
	}
	if msg.historyErr != nil {
		m.appendLog("history load failed: " + msg.historyErr.Error())
	} else if len(msg.history) > 0 {
		m.cursor = history.NewCursor(append(history.Codes(msg.history), m.cursor.Entries()...))
		m.appendLog(fmt.Sprintf("history: %d command(s)", m.cursor.Len()))
	}
}

func (m *model) handleSceneOp(msg sceneOpDoneMsg) {
	if msg.err != nil {
		m.session.fail(msg.err, false)
		m.logError(msg.err)
		return
	}
	switch msg.op {
	case "reset":
		m.session.teardown(msg.seq)
		m.termLog.Clear()
		m.session.say(nullCoalesce(msg.message, "Environment reset"), termlog.SeveritySuccess, successTTL, false)
	case "clear":
		m.session.replace(msg.seq, nil)
		m.session.say(nullCoalesce(msg.message, "Scene cleared"), termlog.SeveritySuccess, successTTL, false)
	}
	m.statusLine = msg.op + " done"
	m.appendLog(msg.op + ": " + nullCoalesce(msg.message, "ok"))
}

func (m *model) handleFileOp(msg fileOpDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.alert(msg.op+" "+msg.path, msg.err)
		return nil
	}
	m.appendLog(msg.op + " " + msg.path)
	switch msg.op {
	case "create":
		m.statusLine = "created " + msg.path
		return tea.Batch(m.refreshListing(msg.path), openFileCmd(m.store, msg.path))
	case "mkdir":
		m.statusLine = "created folder " + msg.path
		return m.refreshListing(msg.path)
	case "delete":
		m.statusLine = "deleted " + msg.path
		if m.editor.path == msg.path || strings.HasPrefix(m.editor.path, msg.path+"/") {
			m.editor.load("", "")
		}
		return m.refreshListing(msg.path)
	}
	return nil
}

// refreshListing reloads the explorer when changed lives in the directory
// it shows.
func (m *model) refreshListing(changed string) tea.Cmd {
	if storage.ParentPath(changed) != m.explorer.dir && changed != m.explorer.dir {
		return nil
	}
	return listCmd(m.store, m.explorer.dir)
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch m.activeTab {
	case tabTerminal:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.canvas.ZoomBy(zoomFactor)
		case tea.MouseButtonWheelDown:
			m.canvas.ZoomBy(1 / zoomFactor)
		}
		return m, nil
	case tabHelp:
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitConfirm {
		switch strings.ToLower(msg.String()) {
		case "y", "enter", "ctrl+c":
			return m, tea.Quit
		case "n", "esc":
			m.quitConfirm = false
			m.statusLine = "ready"
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.explorer.pendingDelete != "" {
			m.explorer.pendingDelete = ""
			m.statusLine = "delete cancelled"
			return m, nil
		}
		m.beginQuitConfirm()
		return m, nil
	case "tab":
		m.switchTab((m.activeTab + 1) % tabCount)
		return m, nil
	case "shift+tab":
		m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		return m, nil
	}

	switch m.activeTab {
	case tabTerminal:
		return m.handleTerminalKey(msg)
	case tabFiles:
		return m.handleFilesKey(msg)
	case tabEditor:
		return m.handleEditorKey(msg)
	case tabHelp:
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	promptEmpty := strings.TrimSpace(m.input.Value()) == ""
	switch msg.String() {
	case "enter":
		return m, m.submitPrompt()
	case "up":
		if code, ok := m.cursor.Prev(m.input.Value()); ok {
			m.input.SetValue(code)
			m.input.CursorEnd()
		}
		return m, nil
	case "down":
		if code, ok := m.cursor.Next(); ok {
			m.input.SetValue(code)
			m.input.CursorEnd()
		}
		return m, nil
	case "shift+up":
		m.canvas.Pan(0, panStep)
		return m, nil
	case "shift+down":
		m.canvas.Pan(0, -panStep)
		return m, nil
	case "shift+left":
		m.canvas.Pan(-panStep, 0)
		return m, nil
	case "shift+right":
		m.canvas.Pan(panStep, 0)
		return m, nil
	case "+", "=":
		if promptEmpty {
			m.canvas.ZoomBy(zoomFactor)
			return m, nil
		}
	case "-":
		if promptEmpty {
			m.canvas.ZoomBy(1 / zoomFactor)
			return m, nil
		}
	case "0":
		if promptEmpty {
			m.canvas.ResetCamera()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if pending := m.explorer.pendingDelete; pending != "" {
		m.explorer.pendingDelete = ""
		if msg.String() == "y" {
			m.statusLine = "deleting " + pending
			return m, deleteCmd(m.store, pending)
		}
		m.statusLine = "delete cancelled"
		return m, nil
	}

	switch msg.String() {
	case "enter":
		item, ok := m.explorer.selected()
		if !ok {
			return m, nil
		}
		if item.kind == entryFile {
			if m.editor.dirty() && m.editor.path != item.path {
				m.appendLog("discarding unsaved changes to " + m.editor.path)
			}
			m.statusLine = "opening " + item.path
			return m, openFileCmd(m.store, item.path)
		}
		m.statusLine = "listing " + nullCoalesce(item.path, "~")
		return m, listCmd(m.store, item.path)
	case "backspace":
		if m.explorer.dir == "" {
			return m, nil
		}
		return m, listCmd(m.store, storage.ParentPath(m.explorer.dir))
	case "r":
		return m, listCmd(m.store, m.explorer.dir)
	case "d":
		item, ok := m.explorer.selected()
		if !ok || item.kind == entryParent {
			return m, nil
		}
		m.explorer.pendingDelete = item.path
		m.statusLine = fmt.Sprintf("delete %s? press y to confirm", item.path)
		return m, nil
	}
	var cmd tea.Cmd
	m.explorer.list, cmd = m.explorer.list.Update(msg)
	return m, cmd
}

func (m *model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		if m.editor.path == "" {
			m.statusLine = "error: no file open; use /new <name.py>"
			return m, nil
		}
		m.statusLine = "saving " + m.editor.path
		return m, saveFileCmd(m.store, m.editor.path, m.editor.area.Value())
	case "ctrl+r":
		code := strings.TrimSpace(m.editor.area.Value())
		if code == "" {
			return m, nil
		}
		return m, m.run(code, true)
	}
	var cmd tea.Cmd
	m.editor.area, cmd = m.editor.area.Update(msg)
	return m, cmd
}

func (m *model) submitPrompt() tea.Cmd {
	code := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.cursor.Reset()
	if code == "" {
		return nil
	}
	if strings.HasPrefix(code, "/") {
		return m.handleSlash(code)
	}
	return m.run(code, false)
}

// run submits code. Persistent runs keep their output until /clear.
func (m *model) run(code string, persistent bool) tea.Cmd {
	sub := m.session.submit(code, persistent)
	m.inflight++
	m.statusLine = fmt.Sprintf("running #%d...", sub.Seq)
	cmds := []tea.Cmd{executeCmd(m.exec, sub)}
	if !persistent {
		m.cursor.Push(code)
		cmds = append(cmds, recordHistoryCmd(m.hist, code, m.cfg.HistoryLimit, m.logger))
	}
	return tea.Batch(cmds...)
}

func (m *model) handleSlash(input string) tea.Cmd {
	name, arg := splitCommand(input)
	switch name {
	case "/clear":
		m.termLog.Clear()
		m.statusLine = "terminal cleared"
		return nil
	case "/reset":
		m.inflight++
		m.statusLine = "resetting environment..."
		return resetCmd(m.exec, m.session.next())
	case "/scene":
		if strings.ToLower(arg) != "clear" {
			m.statusLine = "usage: /scene clear"
			return nil
		}
		m.inflight++
		m.statusLine = "clearing scene..."
		return clearSceneCmd(m.exec, m.session.next())
	case "/reload":
		m.inflight++
		m.statusLine = "reloading geometry..."
		return reloadGeometryCmd(m.exec)
	case "/drop":
		if arg == "" {
			m.statusLine = "usage: /drop <id>"
			return nil
		}
		if m.scene.Remove(arg) {
			m.statusLine = "dropped " + arg
		} else {
			m.statusLine = "error: no object " + arg
		}
		return nil
	case "/view":
		switch strings.ToLower(arg) {
		case "3d":
			m.canvas.SetMode(render.ModePerspective3D)
		case "layout", "2d":
			m.canvas.SetMode(render.ModeLayout)
		default:
			m.statusLine = "usage: /view 3d|layout"
			return nil
		}
		m.statusLine = "view: " + m.canvas.Mode().String()
		return nil
	case "/new":
		if arg == "" {
			m.statusLine = "usage: /new <name.py>"
			return nil
		}
		if !storage.IsScript(arg) {
			arg += storage.ScriptExt
		}
		return newFileCmd(m.store, m.explorer.resolve(arg))
	case "/mkdir":
		if arg == "" {
			arg = storage.DefaultFolderName
		}
		return mkdirCmd(m.store, m.explorer.dir, arg)
	case "/rm":
		if arg == "" {
			m.statusLine = "usage: /rm <path>"
			return nil
		}
		return deleteCmd(m.store, m.explorer.resolve(arg))
	case "/help":
		m.switchTab(tabHelp)
		return nil
	case "/quit", "/exit":
		return tea.Quit
	default:
		m.statusLine = "error: unknown command " + name + " (try /help)"
		return nil
	}
}

func (m *model) switchTab(tab tabID) {
	m.activeTab = tab
	m.explorer.pendingDelete = ""
	switch tab {
	case tabTerminal:
		m.input.Focus()
		m.editor.area.Blur()
	case tabEditor:
		m.input.Blur()
		m.editor.area.Focus()
	default:
		m.input.Blur()
		m.editor.area.Blur()
	}
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit? y/enter to exit, n/esc to stay"
}

// alert reports a failed user operation in the status bar and the
// terminal.
func (m *model) alert(op string, err error) {
	text := op + ": " + err.Error()
	if errors.Is(err, storage.ErrNotFound) {
		text = op + ": not found"
	}
	m.session.say(text, termlog.SeverityError, termlog.DefaultTTL(termlog.SeverityError), false)
	m.logError(errors.New(text))
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	m.logs = append(m.logs, fmt.Sprintf("%s %s", m.sched.Now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *model) logError(err error) {
	if err == nil {
		return
	}
	m.logger.Warn("operation failed", zap.Error(err))
	m.appendLog("error: " + err.Error())
	m.statusLine = "error: " + compactSingleLine(err.Error(), 160)
}

// Layout.

func (m *model) contentSize() (int, int) {
	return maxInt(40, m.width-4), maxInt(8, m.height-12)
}

// logRows is the height of the terminal feed under the viewport.
func (m *model) logRows() int {
	return clampInt(m.termLog.Capacity(), 1, 12)
}

func (m *model) resize() {
	width, height := m.contentSize()
	m.input.Width = maxInt(10, width-10)
	m.explorer.setSize(width-4, height-3)
	m.editor.setSize(width-4, height-3)
	m.help.Width = width - 4
	m.help.Height = maxInt(3, height-2)
	if m.helpWidth != m.help.Width {
		m.helpWidth = m.help.Width
		m.help.SetContent(renderHelp(m.help.Width))
	}
}

func (m *model) View() string {
	if m.quitConfirm {
		return m.theme.root.Render(m.renderQuitModal())
	}
	return m.theme.root.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderInput(),
		m.renderFooter(),
	))
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabTerminal, "Terminal"},
		{tabFiles, "Files"},
		{tabEditor, "Editor"},
		{tabHelp, "Help"},
	}
	segments := make([]string, 0, len(tabs)+1)
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	meta := fmt.Sprintf(" %s · %d object(s) · %s", m.exec.BaseURL(), m.scene.Len(), m.canvas.Mode())
	segments = append(segments, m.theme.helpText.Render(meta))
	joined := lipgloss.JoinHorizontal(lipgloss.Left, segments...)
	return m.theme.header.Width(maxInt(20, m.width-4)).Render(joined)
}

func (m *model) renderContent() string {
	width, height := m.contentSize()
	switch m.activeTab {
	case tabFiles:
		title := m.theme.panelTitle.Render("Files  " + m.explorer.breadcrumbs())
		body := m.explorer.list.View()
		if empty := m.explorer.emptyText(); empty != "" {
			body = m.theme.helpText.Render(empty)
		}
		return m.theme.panel.Width(width).Height(height).Render(title + "\n" + body)
	case tabEditor:
		title := m.theme.panelTitle.Render(m.editor.title())
		return m.theme.panel.Width(width).Height(height).Render(title + "\n" + m.editor.area.View())
	case tabHelp:
		title := m.theme.panelTitle.Render("Help")
		body := m.help.View()
		if len(m.logs) > 0 {
			recent := m.logs[maxInt(0, len(m.logs)-3):]
			body += "\n" + m.theme.helpText.Render(strings.Join(recent, "\n"))
		}
		return m.theme.panel.Width(width).Height(height).Render(title + "\n" + body)
	default:
		return m.renderTerminal(width, height)
	}
}

func (m *model) renderTerminal(width, height int) string {
	rows := m.logRows()
	canvasHeight := maxInt(3, height-rows-3)
	innerWidth := maxInt(10, width-4)
	title := m.theme.panelTitle.Render("Viewport") + m.theme.helpText.Render(fmt.Sprintf("  zoom %.2fx", m.canvas.Camera().Zoom))
	plot := m.theme.canvas.Render(m.canvas.Render(innerWidth, canvasHeight))
	feed := renderFeed(m.theme, m.termLog.Lines(), innerWidth, rows)
	return m.theme.panel.Width(width).Height(height).Render(title + "\n" + plot + "\n" + feed)
}

// renderFeed draws the newest rows of the terminal log, one row per text
// line.
func renderFeed(theme uiTheme, lines []termlog.Line, width int, rows int) string {
	out := make([]string, 0, rows)
	for _, line := range lines {
		style := theme.lineStyle(line)
		for _, text := range strings.Split(line.Text, "\n") {
			out = append(out, style.Render(truncate(text, width)))
		}
	}
	if len(out) > rows {
		out = out[len(out)-rows:]
	}
	for len(out) < rows {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func (m *model) renderInput() string {
	width, _ := m.contentSize()
	if m.inflight > 0 {
		status := fmt.Sprintf("%s running (%d pending)...", m.spinner.View(), m.inflight)
		if m.activeTab != tabTerminal {
			return m.theme.inputPanel.Width(width).Render(status)
		}
		return m.theme.inputPanel.Width(width).Render(m.input.View() + "\n" + m.theme.helpText.Render(status))
	}
	if m.activeTab != tabTerminal {
		return m.theme.inputPanel.Width(width).Render(m.theme.helpText.Render("Tab back to Terminal to type code"))
	}
	return m.theme.inputPanel.Width(width).Render(m.input.View())
}

func (m *model) renderFooter() string {
	width, _ := m.contentSize()
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	var hints string
	switch m.activeTab {
	case tabFiles:
		hints = "Keys: Enter open · Backspace up · d delete · r refresh · Tab switch view · Esc quit prompt"
	case tabEditor:
		hints = "Keys: Ctrl+S save · Ctrl+R run · Tab switch view · Esc quit prompt"
	default:
		hints = "Keys: Enter run · Up/Down history · Shift+arrows pan · +/- zoom · 0 reset view · Tab switch view · Esc quit prompt"
	}
	return m.theme.footer.Width(width).Render(line + "\n" + m.theme.helpText.Render(compactSingleLine(hints, width-2)))
}

func (m *model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 32, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	title := m.theme.errorStatus.Render("QUIT VIEWPORT?")
	prompt := m.theme.settingPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return")
	accent := m.theme.modalAccent.Render(strings.Repeat("=", maxInt(10, modalWidth-8)))
	note := "Scripts on the server are unaffected."
	if m.editor.dirty() {
		note = "Unsaved changes in " + m.editor.path + " will be lost."
	}
	body := strings.Join([]string{
		title,
		"",
		accent,
		m.theme.helpText.Render(note),
		accent,
		"",
		prompt,
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#120924")),
	)
}
