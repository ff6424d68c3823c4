package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	key     lipgloss.Style
	value   lipgloss.Style
	detail  lipgloss.Style
	good    lipgloss.Style
	warning lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		good:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("108")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
