package main

import (
	"github.com/charmbracelet/lipgloss"

	"compasview/internal/termlog"
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	settingKey  lipgloss.Style
	settingPick lipgloss.Style
	modalFrame  lipgloss.Style
	modalAccent lipgloss.Style
	canvas      lipgloss.Style
	dirItem     lipgloss.Style
	fileItem    lipgloss.Style
	lines       map[termlog.Severity]lipgloss.Style
	fading      lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		settingKey:  lipgloss.NewStyle().Foreground(blue),
		settingPick: lipgloss.NewStyle().Foreground(pink).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		modalAccent: lipgloss.NewStyle().Foreground(mint),
		canvas:      lipgloss.NewStyle().Foreground(lipgloss.Color("#b8c0ff")),
		dirItem:     lipgloss.NewStyle().Foreground(blue).Bold(true),
		fileItem:    lipgloss.NewStyle().Foreground(text),
		lines: map[termlog.Severity]lipgloss.Style{
			termlog.SeverityCommand: lipgloss.NewStyle().Foreground(lipgloss.Color("#64ffda")).Bold(true),
			termlog.SeverityOutput:  lipgloss.NewStyle().Foreground(text),
			termlog.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")).Italic(true),
			termlog.SeverityError:   lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
		fading: lipgloss.NewStyle().Foreground(muted).Faint(true),
	}
}

func (t uiTheme) lineStyle(line termlog.Line) lipgloss.Style {
	if line.State == termlog.StateFadingOut {
		return t.fading
	}
	if style, ok := t.lines[line.Severity]; ok {
		return style
	}
	return t.lines[termlog.SeverityOutput]
}
