package tree

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/parley-cli/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	servers []domain.Server
	layout  []domain.CategoryView
	server  *domain.Server
	opts    RenderOptions
	styles  styles
	output  string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		if m.server != nil {
			m.output = renderLayoutView(*m.server, m.layout, m.opts, m.styles)
		} else {
			m.output = renderServersView(m.servers, m.opts, m.styles)
		}
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// RenderServers renders the reconciled server list.
func RenderServers(servers []domain.Server, opts RenderOptions) (string, error) {
	return run(model{servers: servers, opts: opts, styles: newStyles()})
}

// RenderLayout renders one server's reconciled category/channel tree.
func RenderLayout(server domain.Server, layout []domain.CategoryView, opts RenderOptions) (string, error) {
	return run(model{server: &server, layout: layout, opts: opts, styles: newStyles()})
}

func run(m model) (string, error) {
	p := tea.NewProgram(
		m,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
