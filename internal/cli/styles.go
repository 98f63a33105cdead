// Package cli provides styled terminal output and line-based prompts for
// the orbit commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colors keep reports readable on light terminals.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#5B4FCF", Dark: "#A99BFF"}
	successColor = lipgloss.AdaptiveColor{Light: "#1E8A5A", Dark: "#5FD7A0"}
	warningColor = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F5C26B"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF7A7A"}
	infoColor    = lipgloss.AdaptiveColor{Light: "#2471A3", Dark: "#8CC8F0"}
	subtleColor  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	borderColor  = lipgloss.AdaptiveColor{Light: "#C8C8C8", Dark: "#3A3A4A"}
)

var (
	// TitleStyle renders section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(successColor)
	WarningStyle = lipgloss.NewStyle().Foreground(warningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(infoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	// TableHeaderStyle underlines the header row of report tables.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(borderColor)

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)
)

const (
	orbitIcon = "🪐"
	// GhostIcon marks ghosted applications.
	GhostIcon = "👻"
	// InboxIcon prefixes intake reports.
	InboxIcon = "📬"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render("✓ " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return ErrorStyle.Render("✗ " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render("! " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render("• " + message)
}

// FormatTitle renders a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(orbitIcon + " " + title)
}

// FormatPrompt renders an input prompt ending in an arrow.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " › ")
}

// RenderBox draws content under title inside a rounded border.
func RenderBox(title, content string) string {
	header := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
