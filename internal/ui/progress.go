package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relforge/relgate/internal/sequencer"
)

// EventMsg delivers a sequencer transition into the TUI event loop. The
// check command forwards these with Program.Send from the run goroutine.
type EventMsg sequencer.Event

type stepStatus int

const (
	statusPending stepStatus = iota
	statusRunning
	statusPassed
	statusFailed
	statusSkipped
)

type stepView struct {
	name   string
	status stepStatus
	err    error
}

// Model renders gate progress: one line per step with a spinner on the
// running one.
type Model struct {
	spinner  spinner.Model
	steps    []stepView
	done     bool
	aborted  bool
	quitting bool
}

// NewModel initializes the progress model for the named steps, in order.
func NewModel(stepNames []string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(highlight)

	steps := make([]stepView, len(stepNames))
	for i, name := range stepNames {
		steps[i] = stepView{name: name}
	}
	return Model{spinner: s, steps: steps}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case EventMsg:
		switch msg.Type {
		case sequencer.StepStarted:
			m.setStatus(msg.Step, statusRunning, nil)
		case sequencer.StepPassed:
			m.setStatus(msg.Step, statusPassed, nil)
		case sequencer.StepFailed:
			m.setStatus(msg.Step, statusFailed, msg.Err)
		case sequencer.RunFinished:
			m.done = true
			m.aborted = msg.Err != nil
			m.markSkipped()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("RELGATE // release quality gate"))
	b.WriteString("\n\n")

	for _, s := range m.steps {
		switch s.status {
		case statusRunning:
			fmt.Fprintf(&b, " %s %s\n", m.spinner.View(), s.name)
		case statusPassed:
			fmt.Fprintf(&b, " %s %s\n", iconPass, s.name)
		case statusFailed:
			fmt.Fprintf(&b, " %s %s  %s\n", iconFail, s.name, failStyle.Render(truncate(s.err)))
		case statusSkipped:
			fmt.Fprintf(&b, "   %s\n", dimStyle.Render(s.name+" (skipped)"))
		default:
			fmt.Fprintf(&b, "   %s\n", dimStyle.Render(s.name))
		}
	}

	b.WriteString("\n")
	switch {
	case m.quitting:
		b.WriteString(dimStyle.Render("cancelled\n"))
	case m.done && m.aborted:
		b.WriteString(failStyle.Render("ABORTED") + dimStyle.Render(" — fix the failing step and re-run\n"))
	case m.done:
		b.WriteString(passStyle.Render("ALL PASSED\n"))
	default:
		b.WriteString(dimStyle.Render("q to cancel\n"))
	}
	return b.String()
}

func (m *Model) setStatus(name string, st stepStatus, err error) {
	for i := range m.steps {
		if m.steps[i].name == name {
			m.steps[i].status = st
			m.steps[i].err = err
		}
	}
}

// markSkipped dims the steps that never ran because of an earlier failure.
func (m *Model) markSkipped() {
	for i := range m.steps {
		if m.steps[i].status == statusPending {
			m.steps[i].status = statusSkipped
		}
	}
}

func truncate(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
