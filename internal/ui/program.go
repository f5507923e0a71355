package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrInterrupted is returned by RunChecks when the user quits early.
var ErrInterrupted = errors.New("checks interrupted")

// Task is one check run by RunChecks.
type Task struct {
	Name string
	Run  func(ctx context.Context) Check
}

type taskDoneMsg struct {
	index int
	check Check
}

// checkModel is a Bubble Tea model that runs tasks one after another and
// quits after the last one.
type checkModel struct {
	ctx         context.Context
	tasks       []Task
	progress    *Progress
	spinner     spinner.Model
	results     []Check
	interrupted bool
}

func newCheckModel(ctx context.Context, tasks []Task) checkModel {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	return checkModel{
		ctx:      ctx,
		tasks:    tasks,
		progress: NewProgress(names),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(PrimaryColor)),
		),
		results: make([]Check, len(tasks)),
	}
}

// Init implements tea.Model
func (m checkModel) Init() tea.Cmd {
	if len(m.tasks) == 0 {
		return tea.Quit
	}
	m.progress.UpdateStep(1, StepRunning, "")
	return tea.Batch(m.spinner.Tick, m.run(0))
}

func (m checkModel) run(i int) tea.Cmd {
	ctx, task := m.ctx, m.tasks[i]
	return func() tea.Msg {
		return taskDoneMsg{index: i, check: runTask(ctx, task)}
	}
}

// Update implements tea.Model
func (m checkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.results[msg.index] = msg.check
		m.progress.UpdateStep(msg.index+1, stepStatus(msg.check.Status), msg.check.Detail)

		next := msg.index + 1
		if next >= len(m.tasks) {
			return m, tea.Quit
		}
		m.progress.UpdateStep(next+1, StepRunning, "")
		return m, m.run(next)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.progress.SetWidth(clampWidth(msg.Width))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m checkModel) View() string {
	m.progress.RunningMarker = m.spinner.View()
	return m.progress.Render() + "\n"
}

func runTask(ctx context.Context, t Task) Check {
	c := t.Run(ctx)
	if c.Name == "" {
		c.Name = t.Name
	}
	return c
}

// RunChecks runs tasks in order. On a terminal it shows a live progress
// view; otherwise one line is printed per finished task. Tasks that never
// ran are returned as skipped.
func RunChecks(ctx context.Context, w io.Writer, tasks []Task) ([]Check, error) {
	var results []Check
	var runErr error

	if isTerminal(w) {
		final, err := tea.NewProgram(newCheckModel(ctx, tasks), tea.WithOutput(w), tea.WithContext(ctx)).Run()
		if err != nil {
			return nil, fmt.Errorf("failed to run checks: %w", err)
		}
		m := final.(checkModel)
		results = m.results
		if m.interrupted {
			runErr = ErrInterrupted
		}
	} else {
		results = runPlain(ctx, w, tasks)
	}

	for i, c := range results {
		if c.Name == "" {
			results[i] = Check{Name: tasks[i].Name, Status: CheckSkipped, Detail: "not run"}
		}
	}
	return results, runErr
}

func runPlain(ctx context.Context, w io.Writer, tasks []Task) []Check {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	p := NewProgress(names)

	results := make([]Check, len(tasks))
	for i, t := range tasks {
		results[i] = runTask(ctx, t)
		p.UpdateStep(i+1, stepStatus(results[i].Status), results[i].Detail)
		_, _ = fmt.Fprintln(w, p.renderStepLine(p.Steps[i]))
	}
	return results
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
