// Package tui renders pipeline progress as an interactive terminal interface:
// a list of stages and steps next to the live output of the selected step.
package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/berth/internal/ui/output"
)

const (
	listWidthRatio  = 0.3
	paneBorderWidth = 4
)

// StepStatus is the lifecycle state of a stage or step.
type StepStatus string

const (
	// StatusPending marks a planned stage that has not started.
	StatusPending StepStatus = "Pending"
	// StatusRunning marks a stage or step in progress.
	StatusRunning StepStatus = "Running"
	// StatusDone marks a stage or step that succeeded.
	StatusDone StepStatus = "Done"
	// StatusError marks a stage or step that failed.
	StatusError StepStatus = "Error"
)

// StepNode is one row of the list: a stage, or a step nested under its stage.
type StepNode struct {
	Name   string
	Depth  int
	Status StepStatus
	Err    error
	Start  time.Time
	End    time.Time
	Term   *Vterm
}

// Elapsed returns the running or final duration of the node.
func (n *StepNode) Elapsed(now time.Time) time.Duration {
	switch {
	case n.Start.IsZero():
		return 0
	case n.End.IsZero():
		return now.Sub(n.Start)
	default:
		return n.End.Sub(n.Start)
	}
}

// MsgPlan announces the stages of a run.
type MsgPlan struct {
	Stages []string
}

// MsgTaskStart reports that a stage or step began.
type MsgTaskStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgTaskLog carries output written by a step.
type MsgTaskLog struct {
	SpanID string
	Data   []byte
}

// MsgTaskComplete reports that a stage or step finished.
type MsgTaskComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}

// Model is the Bubble Tea model of the interface.
type Model struct {
	Steps   []*StepNode
	SpanMap map[string]*StepNode

	SelectedIdx int
	ListOffset  int
	ListHeight  int
	LogWidth    int
	LogHeight   int
	// FollowMode moves the selection to whichever step started last.
	FollowMode bool

	now func() time.Time
}

// NewModel creates a model whose styles use the color profile of w.
func NewModel(w io.Writer, profile func() termenv.Profile) *Model {
	lipgloss.SetColorProfile(output.NewWithProfile(w, profile).Profile)
	return &Model{
		SpanMap:    make(map[string]*StepNode),
		FollowMode: true,
		now:        time.Now,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case MsgPlan:
		m.Steps = m.Steps[:0]
		m.SpanMap = make(map[string]*StepNode)
		for _, stage := range msg.Stages {
			m.Steps = append(m.Steps, m.newNode(stage, 0))
		}

	case MsgTaskStart:
		if m.SpanMap == nil {
			m.SpanMap = make(map[string]*StepNode)
		}
		node := m.startNode(msg)
		node.Status = StatusRunning
		node.Start = msg.StartTime
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.selectNode(node)
		}

	case MsgTaskLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Term.Write(msg.Data)
		}

	case MsgTaskComplete:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			node.End = msg.EndTime
			node.Err = msg.Err
			node.Status = StatusDone
			if msg.Err != nil {
				node.Status = StatusError
			}
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Steps)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
		}
	case "esc":
		m.FollowMode = true
		for i := len(m.Steps) - 1; i >= 0; i-- {
			if m.Steps[i].Status == StatusRunning {
				m.selectNode(m.Steps[i])
				break
			}
		}
	default:
		if node := m.Selected(); node != nil {
			node.Term.Update(msg)
		}
	}
	return nil
}

// startNode finds the planned row for a stage, or inserts a row for a step
// directly after the last row already nested under its parent.
func (m *Model) startNode(msg MsgTaskStart) *StepNode {
	parent, nested := m.SpanMap[msg.ParentID]
	if !nested {
		for _, node := range m.Steps {
			if node.Depth == 0 && node.Name == msg.Name && node.Status == StatusPending {
				return node
			}
		}
		node := m.newNode(msg.Name, 0)
		m.Steps = append(m.Steps, node)
		return node
	}

	at := len(m.Steps)
	for i, node := range m.Steps {
		if node != parent {
			continue
		}
		at = i + 1
		for at < len(m.Steps) && m.Steps[at].Depth > parent.Depth {
			at++
		}
		break
	}

	node := m.newNode(msg.Name, parent.Depth+1)
	m.Steps = append(m.Steps, nil)
	copy(m.Steps[at+1:], m.Steps[at:])
	m.Steps[at] = node
	if at <= m.SelectedIdx && !m.FollowMode {
		m.SelectedIdx++
	}
	return node
}

func (m *Model) newNode(name string, depth int) *StepNode {
	term := NewVterm()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		term.SetSize(m.LogWidth, m.LogHeight)
	}
	return &StepNode{Name: name, Depth: depth, Status: StatusPending, Term: term}
}

func (m *Model) selectNode(target *StepNode) {
	for i, node := range m.Steps {
		if node == target {
			m.SelectedIdx = i
			break
		}
	}
	m.ensureVisible()
	target.Term.ScrollToBottom()
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Selected returns the highlighted row, if any.
func (m *Model) Selected() *StepNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Steps) {
		return m.Steps[m.SelectedIdx]
	}
	return nil
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * listWidthRatio)
	m.LogWidth = width - listWidth - paneBorderWidth
	m.LogHeight = height - lipgloss.Height(titleStyle.Render("LOGS"))
	m.ListHeight = height - lipgloss.Height(titleStyle.Render("STAGES")+"\n\n")
	m.ensureVisible()

	for _, node := range m.Steps {
		node.Term.SetSize(m.LogWidth, m.LogHeight)
	}
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}
