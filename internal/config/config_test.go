package config

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "roll" {
		t.Errorf("expected mode roll, got %s", cfg.Mode)
	}
	if cfg.Interval().Milliseconds() != 40 {
		t.Errorf("expected 40ms tick, got %v", cfg.Interval())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestProfilesMatchMotionDefaults(t *testing.T) {
	profiles := DefaultConfig().Profiles()
	for _, m := range motion.Modes() {
		want := motion.DefaultProfile(m)
		got := profiles[m]
		if got.Config != want.Config {
			t.Errorf("%s: config mismatch\n got %+v\nwant %+v", m, got.Config, want.Config)
		}
		if got.Body != want.Body {
			t.Errorf("%s: body %v, want %v", m, got.Body, want.Body)
		}
		if got.Mode != m {
			t.Errorf("%s: profile tagged %s", m, got.Mode)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiltsim.yaml")
	cfg := DefaultConfig()
	cfg.Mode = "orbit"
	cfg.Modes.Orbit.Gravity = 3000

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.StartMode() != motion.Orbit {
		t.Errorf("expected orbit, got %s", loaded.StartMode())
	}
	if loaded.Profiles()[motion.Orbit].Config.GravityConstant != 3000 {
		t.Error("gravity not preserved")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "hover" }},
		{"zero tick", func(c *Config) { c.TickMs = 0 }},
		{"flat field", func(c *Config) { c.Field.Height = 0 }},
		{"no body", func(c *Config) { c.Modes.Float.Body = Size{} }},
		{"orbit without cap", func(c *Config) { c.Modes.Orbit.MaxSpeed = 0 }},
		{"unknown haptic", func(c *Config) { c.Haptic.Kind = "rumble" }},
		{"replay without path", func(c *Config) { c.Sensor.Source = "replay" }},
		{"unknown source", func(c *Config) { c.Sensor.Source = "gps" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestFieldGeometry(t *testing.T) {
	f := DefaultConfig().FieldGeometry()
	if f.Size != (mgl64.Vec2{720, 1200}) {
		t.Errorf("unexpected field %v", f.Size)
	}
	if f.Attractor != nil {
		t.Error("config field should not carry an attractor")
	}
}

func TestSettingsIsAddressable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings(motion.Float).Tilt = 0.5
	if cfg.Modes.Float.Tilt != 0.5 {
		t.Error("Settings should return the live block")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("ball", "marble")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Modes.Roll.Body.Width != 60 {
		t.Errorf("expected body 60, got %f", cfg.Modes.Roll.Body.Width)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("roll", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "marble") != nil {
		t.Error("expected nil for nonexistent mode")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("orbit")
	if len(presets) != 3 || presets[0] != "drift" {
		t.Errorf("unexpected orbit presets %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent mode")
	}
}

func TestApplyPresetKeepsLoadedValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickMs = 20
	if err := ApplyPreset(cfg, "planet", "wide"); err != nil {
		t.Fatal(err)
	}
	if cfg.TickMs != 20 || cfg.Mode != "orbit" || cfg.Modes.Orbit.Gravity != 1000 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := ApplyPreset(cfg, "orbit", "tight-ish"); err == nil {
		t.Error("expected error for unknown preset")
	}
}
