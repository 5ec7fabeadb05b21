package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/berth/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.stepList(), m.logPane())
}

func (m *Model) stepList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("STAGES") + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Steps))
	start := min(m.ListOffset, end)
	now := m.clock()
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, m.Steps[i], now) + "\n")
	}
	return listStyle.Render(b.String())
}

func (m *Model) renderRow(index int, node *StepNode, now time.Time) string {
	rowStyle := statusStyle(node.Status)
	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
		if node.Status == StatusPending || node.Status == StatusRunning {
			rowStyle = selectedStyle
		}
	}

	row := cursor + strings.Repeat("  ", node.Depth) + rowStyle.Render(statusIcon(node.Status)+" "+node.Name)
	if node.Status != StatusPending {
		row += " " + durationStyle.Render(node.Elapsed(now).Round(100*time.Millisecond).String())
	}
	return row
}

func statusIcon(status StepStatus) string {
	switch status {
	case StatusRunning:
		return style.Dot
	case StatusDone:
		return style.Check
	case StatusError:
		return style.Cross
	default:
		return "○"
	}
}

func statusStyle(status StepStatus) lipgloss.Style {
	switch status {
	case StatusRunning:
		return runningStyle
	case StatusDone:
		return doneStyle
	case StatusError:
		return errorStyle
	default:
		return pendingStyle
	}
}

func (m *Model) logPane() string {
	node := m.Selected()
	if node == nil {
		return logStyle.Render(titleStyle.Render("LOGS (waiting...)"))
	}

	mode := " (manual)"
	if m.FollowMode {
		mode = " (following)"
	}
	header := titleStyle.Render("LOGS: " + node.Name + mode)
	content := node.Term.View()
	if node.Err != nil {
		header = failureTitleStyle.Render("FAILED: " + node.Name)
		if content == "" {
			content = errorStyle.Render(node.Err.Error())
		}
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, content))
}
