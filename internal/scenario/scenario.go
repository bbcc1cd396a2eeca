// Package scenario runs scripted sequences of headless runs described in a
// YAML file.
package scenario

import (
	"context"
	"fmt"
	"os"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/tune"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single run. Empty fields keep the base config's value.
type Step struct {
	Mode      string             `yaml:"mode"`
	Preset    string             `yaml:"preset,omitempty"`
	Ticks     int                `yaml:"ticks,omitempty"`
	Source    string             `yaml:"source,omitempty"`
	Replay    string             `yaml:"replay,omitempty"`
	Amplitude float64            `yaml:"amplitude,omitempty"`
	Tilt      *[3]float64        `yaml:"tilt,omitempty"`
	Params    map[string]float64 `yaml:"params,omitempty"`
	Save      bool               `yaml:"save"`
}

// Result is what one executed step reports back.
type Result struct {
	Step    int
	Mode    motion.Mode
	Ticks   int
	RunID   string
	Metrics map[string]float64
}

// Exec runs one fully resolved step config.
type Exec func(ctx context.Context, cfg *config.Config, save bool) (Result, error)

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &sc, nil
}

// Resolve layers a step on top of base and validates the result. base is not
// modified.
func (s Step) Resolve(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Mode != "" {
		m, err := motion.ParseMode(s.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = m.String()
	}
	if s.Preset != "" {
		if err := config.ApplyPreset(&cfg, cfg.Mode, s.Preset); err != nil {
			return nil, err
		}
	}
	if s.Ticks > 0 {
		cfg.Ticks = s.Ticks
	}
	if s.Source != "" {
		cfg.Sensor.Source = s.Source
	}
	if s.Replay != "" {
		cfg.Sensor.Replay = s.Replay
	}
	if s.Amplitude != 0 {
		cfg.Sensor.Amplitude = s.Amplitude
	}
	if s.Tilt != nil {
		cfg.Sensor.X, cfg.Sensor.Y, cfg.Sensor.Z = s.Tilt[0], s.Tilt[1], s.Tilt[2]
	}
	if len(s.Params) > 0 {
		if err := tune.Apply(cfg.Settings(cfg.StartMode()), s.Params); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Run executes all steps in order and stops at the first failure, returning
// the results gathered so far.
func Run(ctx context.Context, sc *Scenario, base *config.Config, exec Exec) ([]Result, error) {
	results := make([]Result, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cfg, err := step.Resolve(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		res, err := exec(ctx, cfg, step.Save)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		res.Step = i + 1
		results = append(results, res)
	}

	return results, nil
}
