package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/haptic"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/scenario"
	"github.com/san-kum/tiltsim/internal/sim"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/san-kum/tiltsim/internal/tune"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// headlessExec runs cfg to completion without a renderer or haptic device.
func headlessExec(log logrus.FieldLogger) scenario.Exec {
	return func(ctx context.Context, cfg *config.Config, save bool) (scenario.Result, error) {
		src, err := newSource(cfg)
		if err != nil {
			return scenario.Result{}, err
		}
		loop := newLoop(cfg, sim.FixedLayout(cfg.FieldGeometry()), nil, haptic.Nop{}, log)
		set := metrics.Standard()
		loop.AddObserver(set)
		var rec *storage.Recorder
		if save {
			rec = storage.NewRecorder()
			loop.AddObserver(rec)
		}
		if err := loop.SwitchMode(cfg.StartMode()); err != nil {
			return scenario.Result{}, err
		}

		n, err := loop.Run(ctx, src, cfg.Ticks)
		if err != nil {
			return scenario.Result{}, err
		}
		res := scenario.Result{Mode: cfg.StartMode(), Ticks: n, Metrics: set.Snapshot()}
		if save {
			if res.RunID, err = saveRun(cfg, loop, rec.Frames(), set); err != nil {
				return res, err
			}
		}
		return res, nil
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	base, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger("")
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	exec := headlessExec(log)
	results, runErr := scenario.Run(cmd.Context(), sc, base, func(ctx context.Context, cfg *config.Config, save bool) (scenario.Result, error) {
		log.WithFields(logrus.Fields{"mode": cfg.Mode, "ticks": cfg.Ticks}).Debug("scenario step")
		return exec(ctx, cfg, save)
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODE\tTICKS\tBOUNCES\tHITS\tESCAPES\tMAX SPEED\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.0f\t%.0f\t%.0f\t%.2f\t%s\n",
			r.Step, r.Mode, r.Ticks,
			r.Metrics["bounces"], r.Metrics["strong_hits"], r.Metrics["escapes"],
			r.Metrics["max_speed"], r.RunID,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger("")
	if err != nil {
		return err
	}
	defer closeLog()

	specs, _ := cmd.Flags().GetStringArray("param")
	if len(specs) == 0 {
		return fmt.Errorf("at least one --param is required (%v)", tune.ParamNames())
	}
	params := make([]tune.Param, 0, len(specs))
	for _, s := range specs {
		p, err := tune.ParseParam(s)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	metric, _ := cmd.Flags().GetString("metric")
	minimize, _ := cmd.Flags().GetBool("minimize")

	mode := cfg.StartMode()
	exec := headlessExec(log.WithField("mode", mode))
	grid := tune.NewGridSearch(params)
	fmt.Printf("tuning %s: %d combinations, %d ticks each\n", mode, grid.Size(), cfg.Ticks)

	eval := func(ctx context.Context, p map[string]float64) (map[string]float64, error) {
		trial := *cfg
		if err := tune.Apply(trial.Settings(mode), p); err != nil {
			return nil, err
		}
		if err := trial.Validate(); err != nil {
			return nil, err
		}
		res, err := exec(ctx, &trial, false)
		if err != nil {
			return nil, err
		}
		return res.Metrics, nil
	}

	best, points, err := grid.Search(cmd.Context(), eval, metric, !minimize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAMS\t%s\n", metric)
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%.4f\n", tune.Format(p.Params), p.Metrics[metric])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %s (%s = %.4f)\n", tune.Format(best.Params), metric, best.Metrics[metric])
	return nil
}
