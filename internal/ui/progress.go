package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Passed
	StepFailed                     // Failed
	StepSkipped                    // Not applicable
)

// Step is one line of a Progress display.
type Step struct {
	Number  int    // 1-based
	Name    string // e.g. "Sensor"
	Status  StepStatus
	Message string // detail shown after the marker
}

// Progress is a progress bar above a list of steps.
type Progress struct {
	Steps   []Step
	Current int     // step running now, 1-based
	Percent float64 // finished steps / total, 0.0 - 1.0
	Width   int

	// RunningMarker is drawn next to the running step, e.g. a spinner frame.
	RunningMarker string

	bar progress.Model
}

// NewProgress creates a display with one pending step per name.
func NewProgress(names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}

	p := &Progress{Steps: steps, RunningMarker: "…"}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width and resizes the bar to fit.
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20 // room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithGradient(string(PrimaryColor), string(SuccessColor)),
		progress.WithWidth(barWidth),
	)
	return p
}

// UpdateStep sets a step's status and message. Out-of-range steps are ignored.
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	p.Steps[stepNumber-1].Status = status
	p.Steps[stepNumber-1].Message = message

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	finished := 0
	for _, s := range p.Steps {
		if s.Status != StepPending && s.Status != StepRunning {
			finished++
		}
	}
	p.Percent = float64(finished) / float64(len(p.Steps))
}

// Render returns the bar and step list as a string
func (p *Progress) Render() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, len(p.Steps)),
	))
	b.WriteString("\n\n")

	lines := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		lines = append(lines, p.renderStepLine(step))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

func (p *Progress) renderStepLine(step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepRunning:
		marker, style = p.RunningMarker, stepRunningStyle
	case StepComplete:
		marker, style = PassMarker, stepCompleteStyle
	case StepFailed:
		marker, style = FailMarker, stepFailedStyle
	case StepSkipped:
		marker, style = SkipMarker, stepSkippedStyle
	default:
		marker, style = PendingMarker, stepPendingStyle
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  [%d/%d] ", step.Number, len(p.Steps)))
	b.WriteString(style.Render(step.Name))

	padding := 20 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(noteStyle.Render(step.Message))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}

// stepStatus maps a finished check onto a step state.
func stepStatus(s CheckStatus) StepStatus {
	switch s {
	case CheckPassed:
		return StepComplete
	case CheckFailed:
		return StepFailed
	default:
		return StepSkipped
	}
}
