package motion

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Strategy advances a context by one tick for a given sample.
type Strategy interface {
	Step(ctx *SimulationContext, a AccelerationSample) Outcome
}

// Edge is a bit set of play-field edges.
type Edge uint8

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

func (e Edge) Has(o Edge) bool { return e&o != 0 }

func (e Edge) String() string {
	if e == 0 {
		return "none"
	}
	s := ""
	for i, name := range []string{"left", "right", "top", "bottom"} {
		if e&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	return s
}

// Outcome reports the events of one tick.
type Outcome struct {
	Tilt      mgl64.Vec2
	Contacts  Edge
	StrongHit bool
	// Front is true while the body moves down the screen, toward the viewer.
	Front   bool
	Escaped bool
}

// Tilt maps a raw sample onto the play field plane. The x sign follows the
// side the device screen faces.
func Tilt(a AccelerationSample) mgl64.Vec2 {
	x := -2 * a.X
	if a.Z < 0 {
		x = 2 * a.X
	}
	return mgl64.Vec2{x, a.Z}
}

var strategies = map[Mode]Strategy{
	Roll:  RollStrategy{},
	Float: RollStrategy{},
	Orbit: OrbitStrategy{},
}

// StrategyFor is the single dispatch point from mode to behaviour.
func StrategyFor(m Mode) (Strategy, error) {
	s, ok := strategies[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, m)
	}
	return s, nil
}
