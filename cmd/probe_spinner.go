package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type probeDoneMsg struct {
	err error
}

type probeSpinnerModel struct {
	spinner spinner.Model
	label   string
	wait    tea.Cmd
	err     error
	done    bool
}

func newProbeSpinnerModel(label string, wait tea.Cmd) probeSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return probeSpinnerModel{
		spinner: s,
		label:   label,
		wait:    wait,
	}
}

func (m probeSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait)
}

func (m probeSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case probeDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m probeSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runProbeSpinner(ctx context.Context, output io.Writer, wait func(context.Context) error) error {
	waitCmd := func() tea.Msg {
		return probeDoneMsg{err: wait(ctx)}
	}

	p := tea.NewProgram(
		newProbeSpinnerModel("Connecting to the chat service...", waitCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(probeSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
