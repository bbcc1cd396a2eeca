package viz

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/sim"
	"github.com/sirupsen/logrus"
)

const (
	historyCapacity = 120
	trailCapacity   = 30
	flashFrames     = 6
	starCount       = 80
)

type TickMsg time.Time

type Options struct {
	Loop   *sim.Loop
	Sink   *Sink
	Layout *TerminalLayout
	// Keyboard is set when arrow keys drive the tilt. Other sources feed
	// the loop on their own.
	Keyboard  *sensor.Keyboard
	Metrics   *metrics.Set
	Logger    logrus.FieldLogger
	FrameRate int
}

// Model is the live view. The loop runs on its own timer; the model only
// forwards input and repaints the latest published frame.
type Model struct {
	opts   Options
	canvas *Canvas
	scene  Scene

	version  int
	trail    []mgl64.Vec2
	speeds   []float64
	tilts    []float64
	stars    []mgl64.Vec2
	lastHits int
	flash    int

	paused   bool
	showHelp bool
	status   string
}

func NewModel(opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 30
	}
	if opts.Sink == nil {
		opts.Sink = NewSink()
	}
	if opts.Logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		opts.Logger = quiet
	}
	cols, rows := 36, 30
	if opts.Layout != nil {
		cols, rows = opts.Layout.Cells()
	}

	rng := rand.New(rand.NewSource(7))
	stars := make([]mgl64.Vec2, starCount)
	for i := range stars {
		stars[i] = mgl64.Vec2{rng.Float64(), rng.Float64()}
	}

	return Model{
		opts:    opts,
		canvas:  NewCanvas(cols, rows),
		version: -1,
		trail:   make([]mgl64.Vec2, 0, trailCapacity),
		speeds:  make([]float64, 0, historyCapacity),
		tilts:   make([]float64, 0, historyCapacity),
		stars:   stars,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FrameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.opts.Layout != nil && m.opts.Layout.SetWindow(msg.Width, msg.Height) {
			m.canvas.Resize(m.opts.Layout.Cells())
			if m.opts.Loop != nil {
				m.report(m.opts.Loop.Resize())
			}
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.poll()
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.opts.Loop != nil {
			m.opts.Loop.Stop()
		}
		return m, tea.Quit
	case " ":
		m.togglePause()
	case "1", "2", "3":
		m.switchMode(motion.Modes()[msg.String()[0]-'1'])
	case "r":
		m.switchMode(m.scene.Mode)
	case "?":
		m.showHelp = !m.showHelp
	case "left":
		m.nudge(1, 0)
	case "right":
		m.nudge(-1, 0)
	case "up":
		m.nudge(0, 1)
	case "down":
		m.nudge(0, -1)
	case "0":
		if m.opts.Keyboard != nil && m.opts.Loop != nil {
			m.opts.Loop.SetSample(m.opts.Keyboard.Level())
		}
	}
	return m, nil
}

func (m *Model) nudge(dx, dz float64) {
	if m.opts.Keyboard == nil || m.opts.Loop == nil {
		return
	}
	m.opts.Loop.SetSample(m.opts.Keyboard.Nudge(dx, dz))
}

func (m *Model) togglePause() {
	if m.opts.Loop == nil {
		return
	}
	if m.paused {
		m.opts.Loop.Resume()
	} else {
		m.opts.Loop.Pause()
	}
	m.paused = !m.paused
}

func (m *Model) switchMode(mode motion.Mode) {
	if m.opts.Loop == nil {
		return
	}
	if m.report(m.opts.Loop.SwitchMode(mode)) && m.opts.Metrics != nil {
		m.opts.Metrics.Reset()
	}
}

// report shows err in the status line and reports whether it was nil.
func (m *Model) report(err error) bool {
	if err != nil {
		m.status = err.Error()
		return false
	}
	m.status = ""
	return true
}

// poll takes the latest scene from the sink and updates the histories.
func (m *Model) poll() {
	scene, fresh := m.opts.Sink.Latest()
	if scene.Version != m.version {
		m.version = scene.Version
		m.trail = m.trail[:0]
		m.speeds = m.speeds[:0]
		m.tilts = m.tilts[:0]
	}
	m.scene = scene

	if scene.Hits != m.lastHits {
		m.lastHits = scene.Hits
		m.flash = flashFrames
	} else if m.flash > 0 {
		m.flash--
	}

	if !fresh || !scene.HasData {
		return
	}
	f := scene.Frame
	if f.Escaped {
		m.trail = m.trail[:0]
	}
	m.trail = appendCapped(m.trail, f.Position.Add(f.Size.Mul(0.5)), trailCapacity)
	m.speeds = appendCapped(m.speeds, f.Speed(), historyCapacity)
	m.tilts = appendCapped(m.tilts, math.Hypot(f.Sample.X, f.Sample.Z), historyCapacity)
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[1:]
	}
	return s
}

// project maps field pixels to canvas dots.
func (m *Model) project(p mgl64.Vec2) (float64, float64) {
	dw, dh := m.canvas.Dots()
	size := m.scene.Field.Size
	if size[0] <= 0 || size[1] <= 0 {
		return p[0] / DotSize, p[1] / DotSize
	}
	return p[0] * float64(dw) / size[0], p[1] * float64(dh) / size[1]
}

func (m *Model) draw() {
	m.canvas.Clear()
	if !m.scene.HasData {
		return
	}
	f := m.scene.Frame

	if f.Mode == motion.Orbit {
		m.drawStars()
	}
	for _, p := range m.trail {
		x, y := m.project(p)
		m.canvas.Set(int(x), int(y))
	}

	// The body is painted before the attractor when it passes behind it.
	if f.Front {
		m.drawAttractor()
		m.drawBody(f)
	} else {
		m.drawBody(f)
		m.drawAttractor()
	}
}

func (m *Model) drawStars() {
	field := m.scene.Field
	offset := m.scene.Frame.Background
	for _, s := range m.stars {
		p := mgl64.Vec2{s[0] * field.Background[0], s[1] * field.Background[1]}.Add(offset)
		x, y := m.project(p)
		m.canvas.Set(int(x), int(y))
	}
}

func (m *Model) drawAttractor() {
	a := m.scene.Field.Attractor
	if a == nil {
		return
	}
	cx, cy := m.project(a.Center())
	rx, ry := m.project(a.Size.Mul(0.5))
	m.canvas.Disc(cx, cy, rx, ry)
}

func (m *Model) drawBody(f sim.Frame) {
	cx, cy := m.project(f.Position.Add(f.Size.Mul(0.5)))
	rx, ry := m.project(f.Size.Mul(0.5))

	switch f.Mode {
	case motion.Roll:
		m.canvas.Disc(cx, cy, rx, ry)
	case motion.Float:
		m.canvas.Ellipse(cx, cy, rx, ry)
		m.canvas.DrawLine(int(cx), int(cy+ry), int(cx), int(cy+ry*2))
	default:
		m.canvas.Ellipse(cx, cy, rx, ry)
	}
}

func (m Model) View() string {
	theme := ThemeFor(m.scene.Mode)
	canvasView := canvasStyle.Render(theme.SceneStyle().Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(theme.TitleStyle().Render(strings.ToUpper(m.scene.Mode.String())) + "\n")
	if m.paused {
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	} else {
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	}

	f := m.scene.Frame
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", f.Tick))
	row("Tilt", fmt.Sprintf("x=%.1f y=%.1f z=%.1f", f.Sample.X, f.Sample.Y, f.Sample.Z))
	if kb := m.opts.Keyboard; kb != nil {
		row("  X", TiltGauge(f.Sample.X, kb.Max, 21))
		row("  Z", TiltGauge(f.Sample.Z, kb.Max, 21))
	}
	row("Position", fmt.Sprintf("(%.0f, %.0f)", f.Position[0], f.Position[1]))
	row("Velocity", fmt.Sprintf("(%.2f, %.2f)", f.Velocity[0], f.Velocity[1]))
	row("Speed", fmt.Sprintf("%.2f", f.Speed()))
	if f.Contacts != 0 {
		row("Contact", f.Contacts.String())
	} else {
		row("Contact", "-")
	}
	hits := fmt.Sprintf("%d", m.scene.Hits)
	if m.flash > 0 {
		hits += " " + lipgloss.NewStyle().Bold(true).Foreground(theme.Warning).Render("BUMP")
	}
	row("Hits", hits)
	freq, q := motion.FilterControls(motion.MotionState{Position: f.Position}, m.scene.Field)
	row("Filter", fmt.Sprintf("%.0fHz Q=%.1f", freq, q))
	if f.Mode == motion.Orbit {
		side := "behind"
		if f.Front {
			side = "front"
		}
		row("Layer", fmt.Sprintf("%s (z=%d)", side, f.ZIndex()))
	}

	if m.opts.Metrics != nil {
		snap := m.opts.Metrics.Snapshot()
		s.WriteString("\n")
		for _, name := range metrics.Names(snap) {
			row(name, fmt.Sprintf("%.2f", snap[name]))
		}
	}

	if len(m.speeds) > 1 {
		chart := asciigraph.Plot(m.speeds, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("speed"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	row("Tilt hist", SparklineChart(m.tilts, 28))

	if m.status != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(theme.Warning).Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render("1/2/3:Mode SP:Pause R:Restart\n←→↑↓:Tilt 0:Level ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  1 / 2 / 3  - Roll / Float / Orbit   ║
║  Arrows     - Tilt the device        ║
║  0          - Level the device       ║
║  Space      - Pause/Resume           ║
║  R          - Restart current mode   ║
║  Q          - Quit                   ║
║  ?          - Toggle this help       ║
╚══════════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

// Run blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewModel(opts), tea.WithAltScreen()).Run()
	return err
}
