package console

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	link    lipgloss.Style
	tags    lipgloss.Style
	clicks  lipgloss.Style
	detail  lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	empty   lipgloss.Style
	border  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		link:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		tags:    lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		clicks:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:   lipgloss.NewStyle().Faint(true),
		border:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
