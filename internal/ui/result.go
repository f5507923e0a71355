package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CheckStatus is the outcome of one check line.
type CheckStatus int

const (
	CheckPassed CheckStatus = iota
	CheckFailed
	CheckSkipped
)

// Check is one line of a checklist.
type Check struct {
	Name   string
	Status CheckStatus
	Detail string // value on success, error text on failure, reason when skipped
}

// Result is the summary box printed after a set of checks.
type Result struct {
	Title  string
	Checks []Check
	Width  int
}

// NewResult creates a result sized to the terminal.
func NewResult(title string, checks []Check) *Result {
	return &Result{Title: title, Checks: checks, Width: GetTerminalWidth()}
}

// Failed reports whether any check failed.
func (r *Result) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == CheckFailed {
			return true
		}
	}
	return false
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	color, marker, verdict := SuccessColor, PassMarker, "PASSED"
	if r.Failed() {
		color, marker, verdict = ErrorColor, FailMarker, "FAILED"
	}

	title := lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(fmt.Sprintf("   %s  %s  ─  %s", marker, verdict, r.Title))

	lines := []string{"", title, ""}
	for _, c := range r.Checks {
		lines = append(lines, renderCheck(c))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

func renderCheck(c Check) string {
	var marker, detail string
	switch c.Status {
	case CheckPassed:
		marker = lipgloss.NewStyle().Foreground(SuccessColor).Render(PassMarker)
		detail = valueStyle.Render(c.Detail)
	case CheckFailed:
		marker = lipgloss.NewStyle().Foreground(ErrorColor).Render(FailMarker)
		detail = lipgloss.NewStyle().Foreground(ErrorColor).Render(c.Detail)
	default:
		marker = lipgloss.NewStyle().Foreground(WarningColor).Render(SkipMarker)
		detail = noteStyle.Render(c.Detail)
	}
	return "   " + marker + " " + resultKeyStyle.Render(c.Name) + " " + detail
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
