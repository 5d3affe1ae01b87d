package ui

import "github.com/charmbracelet/lipgloss"

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	rowStyle      = lipgloss.NewStyle()
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#404040", Dark: "#303030"}).
			Bold(true)

	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#9a9a9a"})
)
