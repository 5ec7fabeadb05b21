package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/berth/internal/ui/style"
)

var (
	pendingStyle = lipgloss.NewStyle().Foreground(style.Slate)

	runningStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	doneStyle  = lipgloss.NewStyle().Foreground(style.Green)
	errorStyle = lipgloss.NewStyle().Foreground(style.Red)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	durationStyle = lipgloss.NewStyle().Faint(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	failureTitleStyle = titleStyle.Background(style.Red)

	listStyle = lipgloss.NewStyle().PaddingRight(1)
	logStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Slate).
			PaddingLeft(1)
)
