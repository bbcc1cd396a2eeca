package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/sim"
)

var baseField = motion.FieldGeometry{Size: mgl64.Vec2{720, 1200}, Background: mgl64.Vec2{1000, 1400}}

type harness struct {
	model    Model
	loop     *sim.Loop
	sink     *Sink
	layout   *TerminalLayout
	clock    *sim.ManualScheduler
	keyboard *sensor.Keyboard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sink:     NewSink(),
		layout:   NewTerminalLayout(baseField),
		clock:    sim.NewManualScheduler(),
		keyboard: sensor.NewKeyboard(),
	}
	h.loop = sim.New(sim.Options{Layout: h.layout, Renderer: h.sink, Scheduler: h.clock})
	set := metrics.Standard()
	h.loop.AddObserver(set)
	if err := h.loop.SwitchMode(motion.Roll); err != nil {
		t.Fatal(err)
	}
	h.model = NewModel(Options{Loop: h.loop, Sink: h.sink, Layout: h.layout, Keyboard: h.keyboard, Metrics: set})
	return h
}

func (h *harness) send(msg tea.Msg) {
	next, _ := h.model.Update(msg)
	h.model = next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTerminalLayoutDefaults(t *testing.T) {
	l := NewTerminalLayout(baseField)
	f := l.Field()
	if f.Size != baseField.Size {
		t.Errorf("expected %v, got %v", baseField.Size, f.Size)
	}
	if f.Background != baseField.Background {
		t.Errorf("expected background %v, got %v", baseField.Background, f.Background)
	}
	if l.SetWindow(36+statsWidth+2, 33) {
		t.Error("same canvas should not report a change")
	}
	if !l.SetWindow(120, 40) {
		t.Error("expected change")
	}
	cols, rows := l.Cells()
	if cols != 120-statsWidth-2 || rows != 37 {
		t.Errorf("unexpected cells %dx%d", cols, rows)
	}
}

func TestSinkKeepsLatestFrame(t *testing.T) {
	s := NewSink()
	s.ApplyMode(motion.Float, mgl64.Vec2{100, 100}, baseField)
	s.Render(sim.Frame{Tick: 1, Mode: motion.Float})
	s.Render(sim.Frame{Tick: 2, Mode: motion.Float, StrongHit: true})

	scene, fresh := s.Latest()
	if !fresh || scene.Frame.Tick != 2 || !scene.HasData {
		t.Errorf("unexpected scene %+v fresh=%v", scene, fresh)
	}
	if scene.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", scene.Hits)
	}
	if _, fresh := s.Latest(); fresh {
		t.Error("second read should not be fresh")
	}

	s.ApplyMode(motion.Orbit, mgl64.Vec2{50, 50}, baseField)
	scene, _ = s.Latest()
	if scene.HasData {
		t.Error("frame from the previous mode should be hidden")
	}
}

func TestModelArrowKeysTilt(t *testing.T) {
	h := newHarness(t)
	h.send(key("right"))
	h.send(key("right"))
	h.send(key("up"))

	a, ok := h.loop.Sample()
	if !ok {
		t.Fatal("expected sample after key press")
	}
	if a.X != -2 || a.Z != 1 {
		t.Errorf("unexpected sample %+v", a)
	}

	h.send(key("0"))
	a, _ = h.loop.Sample()
	if a != (motion.AccelerationSample{}) {
		t.Errorf("expected level sample, got %+v", a)
	}
}

func TestModelSwitchesModes(t *testing.T) {
	h := newHarness(t)
	h.send(key("3"))
	if h.loop.Mode() != motion.Orbit {
		t.Errorf("expected orbit, got %s", h.loop.Mode())
	}
	h.send(key("2"))
	if h.loop.Mode() != motion.Float {
		t.Errorf("expected float, got %s", h.loop.Mode())
	}
}

func TestModelPauseResume(t *testing.T) {
	h := newHarness(t)
	h.loop.Start()
	h.send(key(" "))
	if h.loop.Running() || !h.model.paused {
		t.Error("expected paused loop")
	}
	if !strings.Contains(h.model.View(), "PAUSED") {
		t.Error("view should show paused")
	}
	h.send(key(" "))
	if !h.loop.Running() {
		t.Error("expected running loop")
	}
}

func TestModelResizeUpdatesField(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 100, Height: 30})

	want := mgl64.Vec2{float64((100-statsWidth-2)*2) * DotSize, float64(27*4) * DotSize}
	if got := h.loop.Context().Field.Size; got != want {
		t.Errorf("expected field %v, got %v", want, got)
	}
	if w, _ := h.model.canvas.Dots(); w != (100-statsWidth-2)*2 {
		t.Errorf("canvas not resized, %d dots wide", w)
	}
}

func TestModelPaintsFrames(t *testing.T) {
	h := newHarness(t)
	h.send(key("left"))
	h.loop.Start()
	h.clock.Advance(5 * sim.DefaultInterval)

	h.send(TickMsg{})
	if !h.model.scene.HasData || h.model.scene.Frame.Tick != 5 {
		t.Fatalf("expected tick 5 scene, got %+v", h.model.scene)
	}
	if len(h.model.speeds) != 1 {
		t.Errorf("expected one speed sample, got %d", len(h.model.speeds))
	}

	painted := false
	for _, row := range h.model.canvas.Grid {
		for _, r := range row {
			if r != blank {
				painted = true
			}
		}
	}
	if !painted {
		t.Error("expected body on the canvas")
	}
	if !strings.Contains(h.model.View(), "ROLL") {
		t.Error("view should name the mode")
	}
}

func TestModelQuit(t *testing.T) {
	h := newHarness(t)
	h.loop.Start()
	_, cmd := h.model.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if h.loop.Running() {
		t.Error("loop should stop on quit")
	}
}
