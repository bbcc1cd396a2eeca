package sim

import (
	"context"
	"sync"

	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
)

// Trial is one member of an ensemble: a ready loop and the source that
// feeds it.
type Trial struct {
	Mode   motion.Mode
	Loop   *Loop
	Source sensor.Source
}

type TrialResult struct {
	Mode  motion.Mode
	Ticks int
	Final motion.SimulationContext
	Err   error
}

// Ensemble runs independent headless loops side by side, e.g. the same
// input replayed through every mode.
type Ensemble struct {
	build func(m motion.Mode) (Trial, error)
	modes []motion.Mode
}

func NewEnsemble(modes []motion.Mode, build func(m motion.Mode) (Trial, error)) *Ensemble {
	return &Ensemble{build: build, modes: modes}
}

func (e *Ensemble) Run(ctx context.Context, ticks int) ([]TrialResult, error) {
	trials := make([]Trial, len(e.modes))
	for i, m := range e.modes {
		t, err := e.build(m)
		if err != nil {
			return nil, err
		}
		trials[i] = t
	}

	results := make([]TrialResult, len(trials))
	var wg sync.WaitGroup
	for i := range trials {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			t := trials[idx]
			n, err := t.Loop.Run(ctx, t.Source, ticks)
			results[idx] = TrialResult{Mode: t.Mode, Ticks: n, Final: t.Loop.Context(), Err: err}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}
