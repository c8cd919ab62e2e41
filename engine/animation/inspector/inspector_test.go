package inspector

import (
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/graph"
	"github.com/Carmen-Shannon/oxy-anim/engine/animation/world"
	"github.com/Carmen-Shannon/oxy-anim/engine/config"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	tea "github.com/charmbracelet/bubbletea"
)

func nodClip() *model.AnimationClip {
	return &model.AnimationClip{
		Name:     "nod",
		Duration: 2,
		Channels: []model.AnimationChannel{{
			BoneIndex: 3,
			PositionKeys: []model.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0.25, 0}},
				{Time: 2, Value: [3]float32{2, 0.25, 0}},
			},
		}},
	}
}

func newWorld(t *testing.T, names ...string) world.World {
	t.Helper()
	skel, err := config.DefaultSkeleton().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := world.NewWorld(
		world.WithWorkers(1),
		world.WithPoolConfig(config.PosePoolConfig{InitialBuffers: 4, GrowAmount: 2, DebugRecording: true}),
	)
	for _, name := range names {
		g, err := graph.NewGraph(&graph.CachedPoseNode{Input: graph.NewClipNode(nodClip(), true)})
		if err != nil {
			t.Fatalf("NewGraph: %v", err)
		}
		if _, err := w.AddCharacter(name, skel, g); err != nil {
			t.Fatalf("AddCharacter: %v", err)
		}
	}
	t.Cleanup(w.Shutdown)
	return w
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_TickStepsWorld(t *testing.T) {
	w := newWorld(t, "alpha")
	m := New(w, time.Second)

	if m.Init() == nil {
		t.Fatalf("Init should schedule a tick")
	}

	m, cmd := send(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Errorf("a tick should schedule the next tick")
	}
	if w.FrameCount() != 1 {
		t.Fatalf("expected 1 frame, got %d", w.FrameCount())
	}

	rows := m.table.Rows()
	if len(rows) != 4 {
		t.Fatalf("expected a row per bone, got %d", len(rows))
	}
	// first task samples the clip one second in
	if rows[3][0] != "head" || rows[3][1] != "neck" || rows[3][2] != "1.000 0.250 0.000" {
		t.Errorf("unexpected head row %v", rows[3])
	}
	if rows[0][1] != "-" {
		t.Errorf("root should have no parent, got %q", rows[0][1])
	}

	view := m.View()
	for _, want := range []string{"oxy-anim inspector", "alpha", "sample nod", "recorded"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_TaskNavigation(t *testing.T) {
	w := newWorld(t, "alpha")
	m := New(w, time.Second)
	m, _ = send(t, m, tickMsg(time.Now()))

	m, _ = send(t, m, key("tab"))
	if m.task != 1 || !strings.Contains(m.View(), "write cached pose") {
		t.Errorf("tab should select the cache write task, got %d", m.task)
	}

	m, _ = send(t, m, key("tab"))
	if m.task != 0 {
		t.Errorf("tab should wrap to the first task, got %d", m.task)
	}

	m, _ = send(t, m, key("shift+tab"))
	if m.task != 1 {
		t.Errorf("shift+tab should wrap to the last task, got %d", m.task)
	}
}

func TestModel_CharacterNavigation(t *testing.T) {
	w := newWorld(t, "alpha", "beta")
	m := New(w, time.Second)
	m, _ = send(t, m, tickMsg(time.Now()))

	if !strings.Contains(m.View(), "alpha (1/2)") {
		t.Fatalf("expected the first character selected:\n%s", m.View())
	}

	m, _ = send(t, m, key("tab"))
	m, _ = send(t, m, key("right"))
	if !strings.Contains(m.View(), "beta (2/2)") {
		t.Errorf("right should select the second character:\n%s", m.View())
	}
	if m.task != 0 {
		t.Errorf("changing character should reset the task selection")
	}

	m, _ = send(t, m, key("left"))
	m, _ = send(t, m, key("left"))
	if !strings.Contains(m.View(), "beta (2/2)") {
		t.Errorf("left should wrap around:\n%s", m.View())
	}
}

func TestModel_PauseAndStep(t *testing.T) {
	w := newWorld(t, "alpha")
	m := New(w, time.Second)

	m, _ = send(t, m, key(" "))
	if !m.paused || !strings.Contains(m.View(), "PAUSED") {
		t.Fatalf("space should pause")
	}

	m, cmd := send(t, m, tickMsg(time.Now()))
	if w.FrameCount() != 0 {
		t.Errorf("a paused inspector should not step the world")
	}
	if cmd == nil {
		t.Errorf("ticks should keep being scheduled while paused")
	}

	m, _ = send(t, m, key("."))
	if w.FrameCount() != 1 {
		t.Errorf("expected a single step, got %d frames", w.FrameCount())
	}

	m, _ = send(t, m, key("p"))
	if m.paused {
		t.Errorf("p should resume")
	}
	m, _ = send(t, m, key("."))
	if w.FrameCount() != 1 {
		t.Errorf("step should be ignored while running")
	}
}

func TestModel_Quit(t *testing.T) {
	m := New(newWorld(t, "alpha"), time.Second)
	for _, k := range []string{"q", "esc"} {
		var msg tea.KeyMsg
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = key(k)
		}
		_, cmd := send(t, m, msg)
		if cmd == nil {
			t.Fatalf("%s: expected a quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestModel_EmptyWorld(t *testing.T) {
	m := New(newWorld(t), 0)
	if m.interval <= 0 {
		t.Errorf("a zero interval should fall back to a default")
	}
	m, _ = send(t, m, tickMsg(time.Now()))
	if !strings.Contains(m.View(), "no characters") {
		t.Errorf("expected an empty world notice:\n%s", m.View())
	}
}

func TestModel_WindowResize(t *testing.T) {
	m := New(newWorld(t, "alpha"), time.Second)
	before := m.table.Height()
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.table.Height() <= before {
		t.Errorf("expected the table to grow with the window, got %d from %d", m.table.Height(), before)
	}
}
