package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type tab int

const (
	tabTopics tab = iota
	tabMessage
)

var (
	activeTabBorder = lipgloss.Border{
		Top:         "─",
		Bottom:      " ",
		Left:        "│",
		Right:       "│",
		TopLeft:     "╭",
		TopRight:    "╮",
		BottomLeft:  "┘",
		BottomRight: "└",
	}

	tabBorder = lipgloss.Border{
		Top:         "─",
		Bottom:      "─",
		Left:        "│",
		Right:       "│",
		TopLeft:     "╭",
		TopRight:    "╮",
		BottomLeft:  "┴",
		BottomRight: "┴",
	}

	tabStyle = lipgloss.NewStyle().
			Border(tabBorder, true).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)

	activeTabStyle = tabStyle.Border(activeTabBorder, true)

	tabGap = tabStyle.
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false)
)

func (m Model) RenderTabs() string {
	message := "Message"
	if m.detail != nil {
		message = "Message: " + m.detail.topic
	}
	tabs := []string{
		tabStyle.Render("Topics"),
		tabStyle.Render(message),
	}
	switch m.tab {
	case tabMessage:
		tabs[1] = activeTabStyle.Render(message)
	default:
		tabs[0] = activeTabStyle.Render("Topics")
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.width > 0 {
		gapWidth := m.width - lipgloss.Width(row)
		if gapWidth < 0 {
			gapWidth = 0
		}
		row = lipgloss.JoinHorizontal(lipgloss.Bottom,
			row,
			tabGap.Render(strings.Repeat(" ", gapWidth)),
		)
	}
	return row
}
