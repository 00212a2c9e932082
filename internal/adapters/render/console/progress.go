package console

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Progress reports how many of total items have finished.
type Progress func(done, total int)

type progressMsg struct {
	done  int
	total int
}

type progressDoneMsg struct {
	err error
}

type progressSpinnerModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	done    int
	total   int
	err     error
	stopped bool
}

func newProgressSpinnerModel(label string, total int, run tea.Cmd) progressSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
		total:   total,
	}
}

func (m progressSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m progressSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressMsg:
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case progressDoneMsg:
		m.stopped = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressSpinnerModel) View() string {
	if m.stopped {
		return ""
	}
	if m.total == 0 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s %d/%d", m.spinner.View(), m.label, m.done, m.total)
}

// RunWithProgress runs fn behind a spinner written to output. fn receives a
// Progress callback it may call from any goroutine. When output is not a
// terminal fn runs without the spinner and nothing is written.
func RunWithProgress(ctx context.Context, output io.Writer, label string, total int, fn func(context.Context, Progress) error) error {
	if !isTerminal(output) {
		return fn(ctx, func(int, int) {})
	}
	return runSpinner(ctx, output, label, total, fn)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runSpinner(ctx context.Context, output io.Writer, label string, total int, fn func(context.Context, Progress) error) error {
	var p *tea.Program
	report := func(done, total int) {
		p.Send(progressMsg{done: done, total: total})
	}
	runCmd := func() tea.Msg {
		return progressDoneMsg{err: fn(ctx, report)}
	}

	p = tea.NewProgram(
		newProgressSpinnerModel(label, total, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
