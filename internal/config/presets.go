package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/tiltsim/internal/motion"
)

// Preset tweaks a default config for one mode.
type Preset func(c *Config)

var Presets = map[string]map[string]Preset{
	"roll": {
		"marble": func(c *Config) {
			s := &c.Modes.Roll
			s.Body = Size{Width: 60, Height: 60}
			s.Resistance = 0.995
			s.Friction = 0.8
		},
		"bowling": func(c *Config) {
			s := &c.Modes.Roll
			s.Body = Size{Width: 240, Height: 240}
			s.Tilt = -0.15
			s.Friction = 0.5
			s.StrongHit = 0.5
		},
		"pinball": func(c *Config) {
			s := &c.Modes.Roll
			s.Body = Size{Width: 80, Height: 80}
			s.Resistance = 1.0
			s.Friction = 0.98
			s.StrongHit = 4
		},
	},
	"float": {
		"helium": func(c *Config) {
			c.Modes.Float.Tilt = 0.08
			c.Modes.Float.Resistance = 0.95
		},
		"sluggish": func(c *Config) {
			c.Modes.Float.Tilt = 0.02
			c.Modes.Float.Resistance = 0.8
		},
	},
	"orbit": {
		"tight": func(c *Config) {
			c.Modes.Orbit.Gravity = 4000
			c.Modes.Orbit.MaxSpeed = 30
		},
		"wide": func(c *Config) {
			c.Modes.Orbit.Gravity = 1000
			c.Modes.Orbit.MaxSpeed = 15
		},
		"drift": func(c *Config) {
			c.Modes.Orbit.Gravity = 0
			c.Modes.Orbit.EscapeDamping = 1
		},
	},
}

// GetPreset returns a default config set to the given mode with the named
// preset applied, or nil if either is unknown.
func GetPreset(mode, name string) *Config {
	cfg := DefaultConfig()
	if err := ApplyPreset(cfg, mode, name); err != nil {
		return nil
	}
	return cfg
}

// ApplyPreset switches cfg to mode and applies the named preset on top of
// whatever cfg already holds.
func ApplyPreset(cfg *Config, mode, name string) error {
	m, err := motion.ParseMode(mode)
	if err != nil {
		return err
	}
	p, ok := Presets[m.String()][name]
	if !ok {
		return fmt.Errorf("unknown preset %q for %s (available: %v)", name, m, ListPresets(m.String()))
	}
	cfg.Mode = m.String()
	p(cfg)
	return nil
}

func ListPresets(mode string) []string {
	m, err := motion.ParseMode(mode)
	if err != nil {
		return nil
	}
	byMode, ok := Presets[m.String()]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byMode))
	for name := range byMode {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
