package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTickMs     = 40
	DefaultTicks      = 1500
	DefaultWidth      = 720.0
	DefaultHeight     = 1200.0
	DefaultBgWidth    = 1000.0
	DefaultBgHeight   = 1400.0
	DefaultPulseMs    = 100
	DefaultVolume     = 0.5
	DefaultAmplitude  = 4.0
	DefaultPeriod     = 120
	DefaultMaxFailure = 3
	DefaultCooldownS  = 30
)

type Config struct {
	Mode       string       `yaml:"mode"`
	TickMs     int          `yaml:"tick_ms"`
	Ticks      int          `yaml:"ticks"`
	Field      Size         `yaml:"field"`
	Background Size         `yaml:"background"`
	Modes      ModesConfig  `yaml:"modes"`
	Haptic     HapticConfig `yaml:"haptic"`
	Sensor     SensorConfig `yaml:"sensor"`
}

type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func (s Size) Vec() mgl64.Vec2 { return mgl64.Vec2{s.Width, s.Height} }

func sizeOf(v mgl64.Vec2) Size { return Size{Width: v[0], Height: v[1]} }

type ModesConfig struct {
	Roll  ModeSettings `yaml:"roll"`
	Float ModeSettings `yaml:"float"`
	Orbit ModeSettings `yaml:"orbit"`
}

// ModeSettings mirrors motion.ModeConfig plus the body and attractor sizes.
type ModeSettings struct {
	Body            Size    `yaml:"body"`
	Tilt            float64 `yaml:"tilt"`
	Resistance      float64 `yaml:"resistance"`
	Friction        float64 `yaml:"friction"`
	SideFriction    float64 `yaml:"side_friction"`
	Epsilon         float64 `yaml:"epsilon"`
	StrongHit       float64 `yaml:"strong_hit"`
	Gravity         float64 `yaml:"gravity,omitempty"`
	MaxSpeed        float64 `yaml:"max_speed,omitempty"`
	BorderTolerance float64 `yaml:"border_tolerance,omitempty"`
	EscapeDamping   float64 `yaml:"escape_damping,omitempty"`
	ParallaxBlend   float64 `yaml:"parallax_blend,omitempty"`
	ParallaxReach   float64 `yaml:"parallax_reach,omitempty"`
	Attractor       Size    `yaml:"attractor,omitempty"`
}

type HapticConfig struct {
	Kind        string  `yaml:"kind"` // beep, bell or none
	PulseMs     int     `yaml:"pulse_ms"`
	Volume      float64 `yaml:"volume"`
	MaxFailures uint32  `yaml:"max_failures"`
	CooldownS   int     `yaml:"cooldown_s"`
}

type SensorConfig struct {
	Source    string  `yaml:"source"` // synthetic, still, replay or keyboard
	Amplitude float64 `yaml:"amplitude"`
	Period    int     `yaml:"period"`
	Replay    string  `yaml:"replay,omitempty"`
	Loop      bool    `yaml:"loop"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Z         float64 `yaml:"z"`
}

func settingsFor(p motion.Profile) ModeSettings {
	c := p.Config
	return ModeSettings{
		Body:            sizeOf(p.Body),
		Tilt:            c.TiltCoefficient,
		Resistance:      c.Resistance,
		Friction:        c.Friction,
		SideFriction:    c.SideFriction,
		Epsilon:         c.FrictionEpsilon,
		StrongHit:       c.StrongHitThreshold,
		Gravity:         c.GravityConstant,
		MaxSpeed:        c.MaxSpeed,
		BorderTolerance: c.BorderTolerance,
		EscapeDamping:   c.EscapeDamping,
		ParallaxBlend:   c.ParallaxBlend,
		ParallaxReach:   c.ParallaxReach,
		Attractor:       sizeOf(p.AttractorSize),
	}
}

func (s ModeSettings) profile(m motion.Mode) motion.Profile {
	return motion.Profile{
		Mode: m,
		Config: motion.ModeConfig{
			GravityConstant:    s.Gravity,
			Resistance:         s.Resistance,
			Friction:           s.Friction,
			SideFriction:       s.SideFriction,
			FrictionEpsilon:    s.Epsilon,
			TiltCoefficient:    s.Tilt,
			StrongHitThreshold: s.StrongHit,
			MaxSpeed:           s.MaxSpeed,
			BorderTolerance:    s.BorderTolerance,
			EscapeDamping:      s.EscapeDamping,
			ParallaxBlend:      s.ParallaxBlend,
			ParallaxReach:      s.ParallaxReach,
		},
		Body:          s.Body.Vec(),
		AttractorSize: s.Attractor.Vec(),
	}
}

func DefaultConfig() *Config {
	return &Config{
		Mode:       motion.Roll.String(),
		TickMs:     DefaultTickMs,
		Ticks:      DefaultTicks,
		Field:      Size{Width: DefaultWidth, Height: DefaultHeight},
		Background: Size{Width: DefaultBgWidth, Height: DefaultBgHeight},
		Modes: ModesConfig{
			Roll:  settingsFor(motion.DefaultProfile(motion.Roll)),
			Float: settingsFor(motion.DefaultProfile(motion.Float)),
			Orbit: settingsFor(motion.DefaultProfile(motion.Orbit)),
		},
		Haptic: HapticConfig{
			Kind:        "bell",
			PulseMs:     DefaultPulseMs,
			Volume:      DefaultVolume,
			MaxFailures: DefaultMaxFailure,
			CooldownS:   DefaultCooldownS,
		},
		Sensor: SensorConfig{
			Source:    "synthetic",
			Amplitude: DefaultAmplitude,
			Period:    DefaultPeriod,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that would otherwise surface later as a
// rejected mode switch or a stuck loop.
func (c *Config) Validate() error {
	if _, err := motion.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.TickMs <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMs)
	}
	if err := c.FieldGeometry().Validate(); err != nil {
		return err
	}
	for m, p := range c.Profiles() {
		if err := motion.ValidateBody(p.Body); err != nil {
			return fmt.Errorf("modes.%s: %w", m, err)
		}
		if m == motion.Orbit && p.Config.MaxSpeed <= 0 {
			return fmt.Errorf("modes.orbit: max_speed must be positive")
		}
	}
	switch c.Haptic.Kind {
	case "beep", "bell", "none":
	default:
		return fmt.Errorf("haptic.kind: unknown %q", c.Haptic.Kind)
	}
	switch c.Sensor.Source {
	case "synthetic", "still", "keyboard":
	case "replay":
		if c.Sensor.Replay == "" {
			return fmt.Errorf("sensor.replay: path required for replay source")
		}
	default:
		return fmt.Errorf("sensor.source: unknown %q", c.Sensor.Source)
	}
	return nil
}

func (c *Config) StartMode() motion.Mode {
	m, err := motion.ParseMode(c.Mode)
	if err != nil {
		return motion.Roll
	}
	return m
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

func (c *Config) PulseDuration() time.Duration {
	return time.Duration(c.Haptic.PulseMs) * time.Millisecond
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Haptic.CooldownS) * time.Second
}

func (c *Config) FieldGeometry() motion.FieldGeometry {
	return motion.FieldGeometry{Size: c.Field.Vec(), Background: c.Background.Vec()}
}

func (c *Config) Profiles() map[motion.Mode]motion.Profile {
	return map[motion.Mode]motion.Profile{
		motion.Roll:  c.Modes.Roll.profile(motion.Roll),
		motion.Float: c.Modes.Float.profile(motion.Float),
		motion.Orbit: c.Modes.Orbit.profile(motion.Orbit),
	}
}

// Settings returns a pointer to one mode's block so presets and flags can
// adjust it in place.
func (c *Config) Settings(m motion.Mode) *ModeSettings {
	switch m {
	case motion.Float:
		return &c.Modes.Float
	case motion.Orbit:
		return &c.Modes.Orbit
	default:
		return &c.Modes.Roll
	}
}
