package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#5FAFD7") // Ice blue - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - passed checks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - failed checks
	WarningColor = lipgloss.Color("#FFA500") // Orange - skipped checks
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

var (
	headerTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	headerCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	paramKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	noteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	resultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	stepPendingStyle  = lipgloss.NewStyle().Foreground(MutedColor)
	stepRunningStyle  = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	stepCompleteStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	stepFailedStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	stepSkippedStyle  = lipgloss.NewStyle().Foreground(WarningColor)
)

// Check markers
const (
	PassMarker = "✓"
	FailMarker = "✗"
	SkipMarker = "·"

	PendingMarker = "○"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}
