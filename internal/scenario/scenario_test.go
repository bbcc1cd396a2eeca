package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/motion"
)

const sample = `name: tour
description: one run per mode
steps:
  - mode: roll
    preset: pinball
    ticks: 200
    save: true
  - mode: balloon
    source: still
    tilt: [0, -3, 9.8]
  - mode: orbit
    params:
      max_speed: 12
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	sc, err := Load(writeScenario(t, sample))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "tour" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Tilt == nil || sc.Steps[1].Tilt[2] != 9.8 {
		t.Errorf("tilt not parsed: %v", sc.Steps[1].Tilt)
	}

	if _, err := Load(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for a scenario without steps")
	}
	if _, err := Load(writeScenario(t, "steps: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestResolve(t *testing.T) {
	base := config.DefaultConfig()
	sc, err := Load(writeScenario(t, sample))
	if err != nil {
		t.Fatal(err)
	}

	roll, err := sc.Steps[0].Resolve(base)
	if err != nil {
		t.Fatalf("resolve roll: %v", err)
	}
	if roll.Ticks != 200 || roll.Mode != "roll" {
		t.Errorf("unexpected roll config: mode=%s ticks=%d", roll.Mode, roll.Ticks)
	}
	if roll.Modes.Roll == base.Modes.Roll {
		t.Error("preset should change roll settings")
	}

	float, err := sc.Steps[1].Resolve(base)
	if err != nil {
		t.Fatalf("resolve float: %v", err)
	}
	if float.StartMode() != motion.Float || float.Sensor.Source != "still" || float.Sensor.Y != -3 {
		t.Errorf("unexpected float config: %+v", float.Sensor)
	}

	orbit, err := sc.Steps[2].Resolve(base)
	if err != nil {
		t.Fatalf("resolve orbit: %v", err)
	}
	if orbit.Modes.Orbit.MaxSpeed != 12 {
		t.Errorf("expected max_speed 12, got %f", orbit.Modes.Orbit.MaxSpeed)
	}

	if base.Ticks != config.DefaultTicks || base.Modes.Orbit.MaxSpeed == 12 {
		t.Error("base config was modified")
	}

	bad := []Step{
		{Mode: "teapot"},
		{Mode: "roll", Preset: "nope"},
		{Mode: "roll", Params: map[string]float64{"warp": 1}},
		{Mode: "roll", Source: "replay"},
	}
	for _, s := range bad {
		if _, err := s.Resolve(base); err == nil {
			t.Errorf("expected error for %+v", s)
		}
	}
}

func TestRun(t *testing.T) {
	sc, err := Load(writeScenario(t, sample))
	if err != nil {
		t.Fatal(err)
	}

	var saved []bool
	exec := func(_ context.Context, cfg *config.Config, save bool) (Result, error) {
		saved = append(saved, save)
		return Result{Mode: cfg.StartMode(), Ticks: cfg.Ticks}, nil
	}

	results, err := Run(context.Background(), sc, config.DefaultConfig(), exec)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []motion.Mode{motion.Roll, motion.Float, motion.Orbit} {
		if results[i].Mode != want || results[i].Step != i+1 {
			t.Errorf("result %d: %+v", i, results[i])
		}
	}
	if !saved[0] || saved[1] || saved[2] {
		t.Errorf("unexpected save flags %v", saved)
	}
}

func TestRunStopsAtFailure(t *testing.T) {
	sc := &Scenario{Steps: []Step{{Mode: "roll"}, {Mode: "float"}, {Mode: "orbit"}}}
	boom := errors.New("boom")

	calls := 0
	exec := func(_ context.Context, cfg *config.Config, _ bool) (Result, error) {
		calls++
		if cfg.StartMode() == motion.Float {
			return Result{}, boom
		}
		return Result{Mode: cfg.StartMode()}, nil
	}

	results, err := Run(context.Background(), sc, config.DefaultConfig(), exec)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(results) != 1 || calls != 2 {
		t.Errorf("expected 1 result after 2 calls, got %d after %d", len(results), calls)
	}
}
