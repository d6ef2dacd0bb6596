package report

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	bucket     lipgloss.Style
	line       lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	footer     lipgloss.Style
	barBracket lipgloss.Style
	barFill    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		bucket:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		line:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		footer:     lipgloss.NewStyle().Faint(true).MarginTop(1),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barFill:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
