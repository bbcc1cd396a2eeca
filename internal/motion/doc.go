// Package motion provides the per-tick kinematics for a tilt-driven body.
//
// The package defines the data model and the stateless mode strategies:
//
//   - [MotionState]: position, velocity and size of the simulated body
//   - [ModeConfig]: per-mode physical constants
//   - [FieldGeometry]: play field, optional attractor and background
//   - [Strategy]: one tick of motion for a mode ([Roll], [Orbit])
//
// Strategies never own state. They mutate a borrowed [SimulationContext]
// and report what happened during the tick as an [Outcome]:
//
//	ctx := motion.NewContext(motion.Roll, motion.DefaultConfig(motion.Roll))
//	ctx.State.Reset(mgl64.Vec2{186, 186}, field)
//	ctx.Field = field
//	out := motion.RollStrategy{}.Step(&ctx, sample)
//
// # Thread Safety
//
// Nothing in this package locks. The owner of a SimulationContext (the
// simulation loop) serialises access to it.
package motion
