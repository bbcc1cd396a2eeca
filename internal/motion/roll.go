package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RollStrategy moves a body that rolls (ball) or drifts (balloon) inside a
// walled field. The two bodies differ only in their ModeConfig.
type RollStrategy struct{}

func (RollStrategy) Step(ctx *SimulationContext, a AccelerationSample) Outcome {
	cfg := ctx.Config
	st := &ctx.State
	field := ctx.Field.Size

	tilt := Tilt(a)
	st.Apply(mgl64.Vec2{tilt[0] * -cfg.TiltCoefficient, tilt[1] * cfg.TiltCoefficient})
	st.Velocity = st.Velocity.Mul(cfg.Resistance)

	resting := restingEdges(*st, field)

	st.Position = st.Position.Add(st.Velocity)

	out := Outcome{Tilt: tilt}
	axisEdges := [2][2]Edge{{EdgeLeft, EdgeRight}, {EdgeTop, EdgeBottom}}
	for axis := 0; axis < 2; axis++ {
		other := 1 - axis
		pos, vel, side := resolveAxis(st.Position[axis], st.Velocity[axis], st.Size[axis], field[axis], cfg)
		st.Position[axis], st.Velocity[axis] = pos, vel
		switch side {
		case sideLow:
			out.Contacts |= axisEdges[axis][0]
		case sideHigh:
			out.Contacts |= axisEdges[axis][1]
		default:
			continue
		}
		st.Velocity[other] *= cfg.SideFriction
	}

	// Speeds are read after both axes resolved: a bounce on one axis bleeds
	// speed from the other before it is classified.
	for axis := 0; axis < 2; axis++ {
		for _, e := range axisEdges[axis] {
			if out.Contacts.Has(e) && !resting.Has(e) && math.Abs(st.Velocity[axis]) > cfg.StrongHitThreshold {
				out.StrongHit = true
			}
		}
	}
	return out
}

type side int

const (
	sideNone side = iota
	sideLow
	sideHigh
)

// resolveAxis applies the wall rule on one axis: clamp into [0, limit-size],
// turn the velocity away from the wall, scale it by friction and take the
// friction epsilon off.
func resolveAxis(pos, vel, size, limit float64, cfg ModeConfig) (float64, float64, side) {
	if pos < 0 {
		return 0, math.Abs(vel)*cfg.Friction - cfg.FrictionEpsilon, sideLow
	}
	if pos+size > limit {
		pos = limit - size
		vel = -math.Abs(vel)*cfg.Friction + cfg.FrictionEpsilon
		if pos < 0 {
			pos = 0
		}
		return pos, vel, sideHigh
	}
	return pos, vel, sideNone
}

// restingEdges reports which edges the body already touches.
func restingEdges(st MotionState, field mgl64.Vec2) Edge {
	var e Edge
	if st.Position[0] <= 0 {
		e |= EdgeLeft
	}
	if st.Position[0]+st.Size[0] >= field[0] {
		e |= EdgeRight
	}
	if st.Position[1] <= 0 {
		e |= EdgeTop
	}
	if st.Position[1]+st.Size[1] >= field[1] {
		e |= EdgeBottom
	}
	return e
}
