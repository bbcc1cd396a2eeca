package motion

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

type Mode int

const (
	Roll Mode = iota
	Float
	Orbit
)

var modeNames = [...]string{"roll", "float", "orbit"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes lists every mode in switch order.
func Modes() []Mode { return []Mode{Roll, Float, Orbit} }

// ParseMode accepts the mode names and the body names (ball, balloon,
// planet).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roll", "ball":
		return Roll, nil
	case "float", "balloon", "sky":
		return Float, nil
	case "orbit", "planet", "earth", "space":
		return Orbit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// AccelerationSample is one raw tilt reading including gravity.
type AccelerationSample struct {
	X, Y, Z float64
}

func (a AccelerationSample) Valid() bool {
	return finite(a.X) && finite(a.Y) && finite(a.Z)
}

// MotionState is the mutable record of the simulated body. Position is the
// top-left corner of the body's bounding box in renderer coordinates and
// Velocity is the displacement per tick.
type MotionState struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Size     mgl64.Vec2
}

// Reset installs a new body size for the given field. Velocity is kept; the
// position is pulled back inside the field so the first tick starts legal.
func (s *MotionState) Reset(size mgl64.Vec2, field FieldGeometry) {
	s.Size = size
	for i := 0; i < 2; i++ {
		limit := field.Size[i] - size[i]
		if s.Position[i] > limit {
			s.Position[i] = limit
		}
		if s.Position[i] < 0 {
			s.Position[i] = 0
		}
	}
}

// Apply adds a velocity delta.
func (s *MotionState) Apply(delta mgl64.Vec2) {
	s.Velocity = s.Velocity.Add(delta)
}

func (s MotionState) Center() mgl64.Vec2 {
	return s.Position.Add(s.Size.Mul(0.5))
}

func (s MotionState) Speed() float64 { return s.Velocity.Len() }

func (s MotionState) IsValid() bool {
	return finite(s.Position[0]) && finite(s.Position[1]) &&
		finite(s.Velocity[0]) && finite(s.Velocity[1])
}

// ModeConfig holds the physical constants of one mode. It is installed on
// mode activation and read-only while that mode ticks.
type ModeConfig struct {
	GravityConstant    float64
	Resistance         float64
	Friction           float64
	SideFriction       float64
	FrictionEpsilon    float64
	TiltCoefficient    float64
	StrongHitThreshold float64
	MaxSpeed           float64
	BorderTolerance    float64
	EscapeDamping      float64
	ParallaxBlend      float64
	ParallaxReach      float64
}

const (
	DefaultStrongHitThreshold = 1.0
	DefaultMaxSpeed           = 25.0
	DefaultBorderTolerance    = 30.0
	DefaultEscapeDamping      = 0.5
	DefaultParallaxBlend      = 0.2
	DefaultParallaxReach      = 30.0
	DefaultGravityConstant    = 2000.0
)

// DefaultConfig returns the stock constants for a mode.
func DefaultConfig(m Mode) ModeConfig {
	switch m {
	case Float:
		return ModeConfig{
			Resistance:         0.90,
			Friction:           0.98,
			SideFriction:       0.95,
			FrictionEpsilon:    0.002,
			TiltCoefficient:    0.05,
			StrongHitThreshold: DefaultStrongHitThreshold,
		}
	case Orbit:
		return ModeConfig{
			GravityConstant:    DefaultGravityConstant,
			Resistance:         1.0,
			Friction:           0.60,
			SideFriction:       0.95,
			FrictionEpsilon:    0,
			StrongHitThreshold: DefaultStrongHitThreshold,
			MaxSpeed:           DefaultMaxSpeed,
			BorderTolerance:    DefaultBorderTolerance,
			EscapeDamping:      DefaultEscapeDamping,
			ParallaxBlend:      DefaultParallaxBlend,
			ParallaxReach:      DefaultParallaxReach,
		}
	default:
		return ModeConfig{
			Resistance:         0.98,
			Friction:           0.90,
			SideFriction:       0.95,
			FrictionEpsilon:    0.002,
			TiltCoefficient:    -0.3,
			StrongHitThreshold: DefaultStrongHitThreshold,
		}
	}
}

// Profile is everything a mode switch installs: constants, body size and,
// for Orbit, the attractor size.
type Profile struct {
	Mode          Mode
	Config        ModeConfig
	Body          mgl64.Vec2
	AttractorSize mgl64.Vec2
}

func DefaultProfile(m Mode) Profile {
	p := Profile{Mode: m, Config: DefaultConfig(m)}
	switch m {
	case Float:
		p.Body = mgl64.Vec2{100, 100}
	case Orbit:
		p.Body = mgl64.Vec2{50, 50}
		p.AttractorSize = mgl64.Vec2{120, 120}
	default:
		p.Body = mgl64.Vec2{186, 186}
	}
	return p
}

// Attractor is the fixed "sun" of Orbit mode.
type Attractor struct {
	Position mgl64.Vec2
	Size     mgl64.Vec2
}

func (a Attractor) Center() mgl64.Vec2 {
	return a.Position.Add(a.Size.Mul(0.5))
}

// FieldGeometry is the play field derived from the renderer's layout.
type FieldGeometry struct {
	Size       mgl64.Vec2
	Background mgl64.Vec2
	Attractor  *Attractor
}

func (f FieldGeometry) Width() float64  { return f.Size[0] }
func (f FieldGeometry) Height() float64 { return f.Size[1] }

// WithCenteredAttractor returns a copy of f with an attractor of the given
// size placed at the centre of the field.
func (f FieldGeometry) WithCenteredAttractor(size mgl64.Vec2) FieldGeometry {
	f.Attractor = &Attractor{
		Position: f.Size.Sub(size).Mul(0.5),
		Size:     size,
	}
	return f
}

func (f FieldGeometry) Validate() error {
	if !positive(f.Size) {
		return fmt.Errorf("%w: field %vx%v", ErrDegenerateGeometry, f.Size[0], f.Size[1])
	}
	if f.Attractor != nil && !positive(f.Attractor.Size) {
		return fmt.Errorf("%w: attractor %vx%v", ErrDegenerateGeometry, f.Attractor.Size[0], f.Attractor.Size[1])
	}
	return nil
}

// ValidateBody rejects body sizes that would poison the tick with NaN.
func ValidateBody(size mgl64.Vec2) error {
	if !positive(size) {
		return fmt.Errorf("%w: body %vx%v", ErrDegenerateGeometry, size[0], size[1])
	}
	return nil
}

// SimulationContext is the single owned record a strategy works on.
type SimulationContext struct {
	Mode       Mode
	State      MotionState
	Config     ModeConfig
	Field      FieldGeometry
	Background Parallax
}

func NewContext(m Mode, cfg ModeConfig) SimulationContext {
	return SimulationContext{Mode: m, Config: cfg}
}

func positive(v mgl64.Vec2) bool {
	return finite(v[0]) && finite(v[1]) && v[0] > 0 && v[1] > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
