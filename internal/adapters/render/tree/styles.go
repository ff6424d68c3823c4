package tree

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	server   lipgloss.Style
	category lipgloss.Style
	text     lipgloss.Style
	voice    lipgloss.Style
	topic    lipgloss.Style
	position lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		server:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		category: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),
		text:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		voice:    lipgloss.NewStyle().Foreground(lipgloss.Color("108")),
		topic:    lipgloss.NewStyle().Faint(true),
		position: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}
