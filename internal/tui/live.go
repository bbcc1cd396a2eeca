package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
)

const (
	width       = 36
	height      = 24
	trailLen    = 40
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

var bodyGlyph = map[motion.Mode]rune{
	motion.Roll:  'O',
	motion.Float: 'o',
	motion.Orbit: '@',
}

// LiveRenderer paints the field with plain ANSI escapes. It is the renderer
// for headless runs watched in a terminal; the bubbletea view lives in viz.
type LiveRenderer struct {
	mu        sync.Mutex
	out       io.Writer
	frameRate int
	lastFrame time.Time
	now       func() time.Time

	mode   motion.Mode
	field  motion.FieldGeometry
	canvas [][]rune
	trail  []struct{ x, y int }
	hits   int
}

func NewLiveRenderer(out io.Writer, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	if frameRate <= 0 {
		frameRate = 25
	}
	return &LiveRenderer{
		out:       out,
		frameRate: frameRate,
		now:       time.Now,
		canvas:    canvas,
		trail:     make([]struct{ x, y int }, 0, trailLen),
	}
}

func (r *LiveRenderer) ApplyMode(mode motion.Mode, _ mgl64.Vec2, field motion.FieldGeometry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.field = field
	r.trail = r.trail[:0]
}

func (r *LiveRenderer) Render(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.StrongHit {
		r.hits++
	}

	bx, by, ok := r.cell(f.Position.Add(f.Size.Mul(0.5)))
	if f.Escaped {
		r.trail = r.trail[:0]
	}
	if ok {
		r.trail = append(r.trail, struct{ x, y int }{bx, by})
		if len(r.trail) > trailLen {
			r.trail = r.trail[1:]
		}
	}

	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now

	r.clear()
	for _, p := range r.trail {
		r.set(p.x, p.y, '.')
	}
	attractor := func() {
		if a := r.field.Attractor; a != nil {
			if ax, ay, ok := r.cell(a.Center()); ok {
				r.set(ax, ay, '*')
			}
		}
	}
	// The body sits behind the attractor unless it is in front of it.
	if f.Front {
		attractor()
	}
	if ok {
		r.set(bx, by, bodyGlyph[f.Mode])
	}
	if !f.Front {
		attractor()
	}

	r.render(f)
}

// cell maps field coordinates to a canvas cell.
func (r *LiveRenderer) cell(p mgl64.Vec2) (int, int, bool) {
	if r.field.Size[0] <= 0 || r.field.Size[1] <= 0 {
		return 0, 0, false
	}
	x := int(p[0] / r.field.Size[0] * width)
	y := int(p[1] / r.field.Size[1] * height)
	return x, y, x >= 0 && x < width && y >= 0 && y < height
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) render(f sim.Frame) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  tick=%d\n", f.Mode, f.Tick))
	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")

	for y, row := range r.canvas {
		left, right := '|', '|'
		if y == 0 && f.Contacts.Has(motion.EdgeTop) {
			left, right = '#', '#'
		}
		if y == height-1 && f.Contacts.Has(motion.EdgeBottom) {
			left, right = '#', '#'
		}
		if f.Contacts.Has(motion.EdgeLeft) {
			left = '#'
		}
		if f.Contacts.Has(motion.EdgeRight) {
			right = '#'
		}
		b.WriteString("  ")
		b.WriteRune(left)
		b.WriteString(string(row))
		b.WriteRune(right)
		b.WriteString("\n")
	}

	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")
	b.WriteString(fmt.Sprintf("  v=(%.2f, %.2f) |v|=%.2f hits=%d\n",
		f.Velocity[0], f.Velocity[1], f.Speed(), r.hits))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
