package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by command output.
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorMuted     = lipgloss.Color("#6C7086")
	colorSuccess   = lipgloss.Color("#A6E3A1")
	colorWarning   = lipgloss.Color("#F9E2AF")
	colorError     = lipgloss.Color("#F38BA8")
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
)
