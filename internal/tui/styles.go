package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	starStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	faceStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(1, 2)
)
