package inspector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/pose"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/task"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/world"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultTableHeight = 12

// tickMsg advances the world by one frame.
type tickMsg time.Time

// Model is a bubbletea model that steps a world and shows the poses recorded for each task of a
// character. Pose recording must be enabled on the characters' pools for per-task poses to appear;
// otherwise the final pose is shown.
type Model struct {
	world     world.World
	deltaTime float32
	interval  time.Duration

	table     table.Model
	character int
	task      int
	paused    bool
	err       error
}

// New creates an inspector stepping w every interval with a fixed time step.
//
// Parameters:
//   - w: the world to step and inspect
//   - interval: the wall time between frames
//
// Returns:
//   - Model: the inspector model
func New(w world.World, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second / 30
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(headerBorder).BorderBottom(true).Bold(true)
	styles.Selected = selectedRow

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Bone", Width: 14},
			{Title: "Parent", Width: 14},
			{Title: "Translation", Width: 26},
			{Title: "Rotation", Width: 32},
			{Title: "Scale", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
		table.WithStyles(styles),
	)

	m := Model{
		world:     w,
		deltaTime: float32(interval.Seconds()),
		interval:  interval,
		table:     t,
	}
	m.refresh()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles key presses and frame ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
			return m, nil
		case ".":
			if m.paused {
				m.step()
			}
			return m, nil
		case "right", "l":
			m.character++
			m.task = 0
			m.refresh()
			return m, nil
		case "left", "h":
			m.character--
			m.task = 0
			m.refresh()
			return m, nil
		case "tab", "n":
			m.task++
			m.refresh()
			return m, nil
		case "shift+tab", "N":
			m.task--
			m.refresh()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-8, 3))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the header, the bone table and the key help.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("oxy-anim inspector"))
	b.WriteString("  ")
	b.WriteString(field("frame", fmt.Sprintf("%d", m.world.FrameCount())))
	if m.paused {
		b.WriteString("  ")
		b.WriteString(pausedStyle.Render("PAUSED"))
	}
	b.WriteString("\n")

	chars := m.world.Characters()
	if len(chars) == 0 {
		b.WriteString(helpStyle.Render("no characters"))
		b.WriteString("\n")
		return b.String()
	}

	c := chars[m.characterIndex(len(chars))]
	ts := c.Tasks()
	b.WriteString(field("character", fmt.Sprintf("%s (%d/%d)", c.Name(), m.characterIndex(len(chars))+1, len(chars))))
	b.WriteString("  ")
	if ts.TaskCount() > 0 {
		idx := m.taskIndex(ts.TaskCount())
		b.WriteString(field("task", fmt.Sprintf("%d/%d %s", idx+1, ts.TaskCount(), ts.Task(task.TaskIndex(idx)).Name())))
	} else {
		b.WriteString(field("task", "none"))
	}
	b.WriteString("  ")
	b.WriteString(field("recorded", fmt.Sprintf("%d", ts.Pool().RecordedPoseCount())))
	b.WriteString("\n")

	stats := ts.Pool().Stats()
	b.WriteString(field("buffers", fmt.Sprintf("%d/%d", stats.TransientInUse, stats.TransientBuffers)))
	b.WriteString("  ")
	b.WriteString(field("cached", fmt.Sprintf("%d/%d", stats.CachedInUse, stats.CachedBuffers)))
	b.WriteString("  ")
	b.WriteString(field("debug", fmt.Sprintf("%d", stats.DebugBuffers)))
	b.WriteString("\n")

	b.WriteString(tableBorder.Render(m.table.View()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("←/→ character • tab/shift+tab task • ↑/↓ bone • space pause • . step • q quit"))
	b.WriteString("\n")
	return b.String()
}

// step advances the world by one frame and refreshes the table.
func (m *Model) step() {
	if err := m.world.Update(context.Background(), m.deltaTime); err != nil {
		m.err = err
	}
	m.refresh()
}

// refresh fills the bone table from the selected character and task.
func (m *Model) refresh() {
	chars := m.world.Characters()
	if len(chars) == 0 {
		m.table.SetRows(nil)
		return
	}
	m.character = m.characterIndex(len(chars))
	c := chars[m.character]

	p := c.Pose()
	if count := c.Tasks().TaskCount(); count > 0 {
		m.task = m.taskIndex(count)
		if rec, ok := c.Tasks().RecordedTaskPose(task.TaskIndex(m.task)); ok {
			p = rec.Pose
		}
	}
	m.table.SetRows(poseRows(p))
}

func (m Model) characterIndex(n int) int {
	return ((m.character % n) + n) % n
}

func (m Model) taskIndex(n int) int {
	return ((m.task % n) + n) % n
}

// poseRows renders one table row per bone.
func poseRows(p *pose.Pose) []table.Row {
	skel := p.Skeleton()
	rows := make([]table.Row, p.BoneCount())
	for i := range rows {
		t := p.Transform(i)
		parent := "-"
		if pi := skel.ParentIndex(i); pi >= 0 {
			parent = skel.Bones[pi].Name
		}
		rows[i] = table.Row{
			skel.Bones[i].Name,
			parent,
			fmt.Sprintf("%.3f %.3f %.3f", t.Translation[0], t.Translation[1], t.Translation[2]),
			fmt.Sprintf("%.3f %.3f %.3f %.3f", t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]),
			fmt.Sprintf("%.2f %.2f %.2f", t.Scale[0], t.Scale[1], t.Scale[2]),
		}
	}
	return rows
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label+": "), valueStyle.Render(value))
}
