package viz

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
)

// Sink is the renderer the loop publishes into. It never blocks the loop:
// it keeps the latest frame and the view picks it up on its own redraw
// tick, so frames between redraws are dropped.
type Sink struct {
	mu      sync.Mutex
	frame   sim.Frame
	fresh   bool
	mode    motion.Mode
	body    mgl64.Vec2
	field   motion.FieldGeometry
	version int
	hits    int
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) ApplyMode(mode motion.Mode, body mgl64.Vec2, field motion.FieldGeometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode, s.body, s.field = mode, body, field
	if field.Attractor != nil {
		a := *field.Attractor
		s.field.Attractor = &a
	}
	s.version++
	s.fresh = false
}

func (s *Sink) Render(f sim.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = f
	s.fresh = true
	if f.StrongHit {
		s.hits++
	}
}

// Scene is what the view needs to paint one screen.
type Scene struct {
	Mode    motion.Mode
	Body    mgl64.Vec2
	Field   motion.FieldGeometry
	Frame   sim.Frame
	HasData bool
	// Version changes on every mode switch or resize.
	Version int
	// Hits counts strong hits since the sink was created.
	Hits int
}

// Latest returns the current scene and whether a frame arrived since the
// last call.
func (s *Sink) Latest() (Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := s.fresh
	s.fresh = false
	return Scene{
		Mode:    s.mode,
		Body:    s.body,
		Field:   s.field,
		Frame:   s.frame,
		HasData: s.frame.Tick > 0 && s.frame.Mode == s.mode,
		Version: s.version,
		Hits:    s.hits,
	}, fresh
}
