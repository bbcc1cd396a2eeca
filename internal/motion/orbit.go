package motion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OrbitStrategy moves a planet around the field's attractor under an
// inverse-square pull. Tilt does not push the planet; it only drives the
// background parallax.
type OrbitStrategy struct{}

func (OrbitStrategy) Step(ctx *SimulationContext, a AccelerationSample) Outcome {
	cfg := ctx.Config
	st := &ctx.State
	tilt := Tilt(a)

	if ctx.Field.Attractor != nil {
		st.Apply(Gravity(ctx.Field.Attractor.Center().Sub(st.Center()), cfg.GravityConstant))
	}
	st.Velocity = capSpeed(st.Velocity, cfg.MaxSpeed)
	st.Position = st.Position.Add(st.Velocity)

	out := Outcome{Tilt: tilt}
	out.Escaped = wrapEscape(st, ctx.Field.Size, cfg)
	out.Front = st.Velocity[1] > 0

	ctx.Background.Follow(tilt, ctx.Field, cfg)
	return out
}

// Gravity returns R*d/|d|^3 for the body-to-attractor vector d. Components
// smaller than 1 in magnitude are snapped to +-1 so the divisor never
// collapses.
func Gravity(d mgl64.Vec2, r float64) mgl64.Vec2 {
	for i := range d {
		if math.Abs(d[i]) < 1 {
			if d[i] < 0 {
				d[i] = -1
			} else {
				d[i] = 1
			}
		}
	}
	d2 := d[0]*d[0] + d[1]*d[1]
	dist := math.Sqrt(d2)
	return d.Mul(r / (d2 * dist))
}

func capSpeed(v mgl64.Vec2, max float64) mgl64.Vec2 {
	if max <= 0 {
		return v
	}
	ratio := v.Len() / max
	if ratio > 1 {
		return v.Mul(1 / ratio)
	}
	return v
}

// wrapEscape moves a body that left the field by more than the border
// tolerance to the opposite side and decelerates it once per wrapped side.
func wrapEscape(st *MotionState, field mgl64.Vec2, cfg ModeConfig) bool {
	tol := cfg.BorderTolerance
	escaped := false
	for axis := 0; axis < 2; axis++ {
		if st.Position[axis] > field[axis]+tol {
			st.Position[axis] = -tol
			decelerate(st, cfg)
			escaped = true
		}
	}
	for axis := 0; axis < 2; axis++ {
		if st.Position[axis] < -tol {
			st.Position[axis] = field[axis] + tol
			decelerate(st, cfg)
			escaped = true
		}
	}
	return escaped
}

// decelerate is the escape penalty: velocity shrinks by EscapeDamping.
func decelerate(st *MotionState, cfg ModeConfig) {
	st.Velocity = st.Velocity.Mul(cfg.EscapeDamping)
}
