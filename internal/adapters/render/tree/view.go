package tree

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/parley-cli/internal/domain"
)

type RenderOptions struct {
	// ShowPositions prefixes every entry with its display index, the form
	// the move commands take.
	ShowPositions bool
}

func renderServersView(servers []domain.Server, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Servers"),
		s.header.Render(fmt.Sprintf("servers: %d", len(servers))),
	}

	if len(servers) == 0 {
		lines = append(lines, s.empty.Render("No servers available."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, server := range servers {
		label := s.server.Render(fmt.Sprintf("%s (%s)", server.Name, server.ID))
		if opts.ShowPositions {
			label = s.position.Render(fmt.Sprintf("%2d ", i)) + label
		}
		lines = append(lines, label)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderLayoutView(server domain.Server, layout []domain.CategoryView, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(server.Name),
		s.header.Render(fmt.Sprintf("categories: %d", len(layout))),
	}

	if len(layout) == 0 {
		lines = append(lines, s.empty.Render("No categories on this server."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i, view := range layout {
		lines = append(lines, renderCategory(i, view, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCategory(index int, view domain.CategoryView, opts RenderOptions, s styles) string {
	header := s.category.Render(view.Category.Name)
	if opts.ShowPositions {
		header = s.position.Render(fmt.Sprintf("%2d ", index)) + header
	}

	parts := []string{header}
	for i, channel := range view.Text {
		parts = append(parts, channelLine(i, channel, "#", s.text, opts, s))
	}
	for i, channel := range view.Voice {
		parts = append(parts, channelLine(i, channel, "[v]", s.voice, opts, s))
	}
	if len(view.Text) == 0 && len(view.Voice) == 0 {
		parts = append(parts, "  "+s.empty.Render("(no channels)"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func channelLine(index int, channel domain.Channel, prefix string, style lipgloss.Style, opts RenderOptions, s styles) string {
	line := "  " + style.Render(fmt.Sprintf("%s %s", prefix, channel.Name))
	if opts.ShowPositions {
		line = "  " + s.position.Render(fmt.Sprintf("%2d ", index)) + style.Render(fmt.Sprintf("%s %s", prefix, channel.Name))
	}
	if channel.Topic != "" {
		line += " " + s.topic.Render("~ "+channel.Topic)
	}
	return line
}
