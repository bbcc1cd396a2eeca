package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
)

const (
	DefaultInterval      = 40 * time.Millisecond
	DefaultPulseDuration = 100 * time.Millisecond
)

// Frame is what the loop hands to the renderer after each tick.
type Frame struct {
	Tick       int
	Mode       motion.Mode
	Sample     motion.AccelerationSample
	Position   mgl64.Vec2
	Velocity   mgl64.Vec2
	Size       mgl64.Vec2
	Background mgl64.Vec2
	Contacts   motion.Edge
	StrongHit  bool
	Front      bool
	Escaped    bool
}

// ZIndex is the stacking hint for the body relative to the attractor.
func (f Frame) ZIndex() int {
	if f.Front {
		return 100
	}
	return 20
}

func (f Frame) Speed() float64 { return f.Velocity.Len() }

// Renderer displays the body. ApplyMode is called on every mode switch so the
// renderer can swap the body's look and size.
type Renderer interface {
	ApplyMode(mode motion.Mode, body mgl64.Vec2, field motion.FieldGeometry)
	Render(f Frame)
}

// Layout reports the current play field.
type Layout interface {
	Field() motion.FieldGeometry
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func() motion.FieldGeometry

func (f LayoutFunc) Field() motion.FieldGeometry { return f() }

// FixedLayout is a layout that never changes size.
func FixedLayout(field motion.FieldGeometry) Layout {
	return LayoutFunc(func() motion.FieldGeometry { return field })
}

// Haptic fires a pulse of the given duration.
type Haptic interface {
	Pulse(d time.Duration) error
}

type Observer interface {
	OnTick(f Frame)
}

type nopRenderer struct{}

func (nopRenderer) ApplyMode(motion.Mode, mgl64.Vec2, motion.FieldGeometry) {}
func (nopRenderer) Render(Frame)                                           {}
