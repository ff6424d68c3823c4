package status

import (
	"github.com/charmbracelet/lipgloss"
)

// Report is the display form of the client's session and connection state.
type Report struct {
	Auth       string
	AccountID  string
	Connection string
	ServerURL  string
	LastError  string
}

func renderView(report Report, s styles) string {
	lines := []string{
		s.title.Render("Parley Client Status"),
		line("auth", report.Auth, authStyle(report.Auth, s), s),
	}

	if report.AccountID != "" {
		lines = append(lines, line("account", report.AccountID, s.value, s))
	}

	lines = append(lines, line("connection", report.Connection, connectionStyle(report.Connection, s), s))

	if report.ServerURL != "" {
		lines = append(lines, line("server", report.ServerURL, s.detail, s))
	}
	if report.LastError != "" {
		lines = append(lines, line("last error", report.LastError, s.warning, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func line(key, value string, valueStyle lipgloss.Style, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render(key+":"),
		" ",
		valueStyle.Render(value),
	)
}

func authStyle(auth string, s styles) lipgloss.Style {
	switch auth {
	case "authenticated":
		return s.good
	case "error":
		return s.warning
	default:
		return s.value
	}
}

func connectionStyle(connection string, s styles) lipgloss.Style {
	switch connection {
	case "ready":
		return s.good
	case "error":
		return s.warning
	default:
		return s.value
	}
}
