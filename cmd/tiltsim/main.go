package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/haptic"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/sim"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/san-kum/tiltsim/internal/tui"
	"github.com/san-kum/tiltsim/internal/viz"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	watch     bool
	noSave    bool
	record    bool
	frameRate int

	outPath string
	axis    int
	force   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tiltsim",
		Short:        "tilt-driven motion toy: roll a ball, float a balloon, orbit a planet",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, nil)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".tiltsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.Flags().String("source", "keyboard", "tilt source (keyboard, synthetic, still, replay)")
	rootCmd.Flags().String("replay", "", "samples CSV for the replay source")

	liveCmd := &cobra.Command{
		Use:   "live [mode]",
		Short: "interactive view; arrow keys tilt, 1/2/3 switch modes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().String("source", "keyboard", "tilt source (keyboard, synthetic, still, replay)")
	liveCmd.Flags().String("replay", "", "samples CSV for the replay source")
	liveCmd.Flags().Bool("loop", true, "restart the replay when it ends")
	liveCmd.Flags().String("haptic", "", "haptic pulse (beep, bell, none)")
	liveCmd.Flags().Int("tick-ms", config.DefaultTickMs, "loop interval in milliseconds")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().BoolVar(&record, "record", false, "save the session as a run on exit")

	runCmd := &cobra.Command{
		Use:   "run [mode]",
		Short: "headless run from a sample source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	runCmd.Flags().Int("ticks", config.DefaultTicks, "number of ticks")
	runCmd.Flags().Int("tick-ms", config.DefaultTickMs, "loop interval in milliseconds")
	runCmd.Flags().String("source", "synthetic", "tilt source (synthetic, still, replay)")
	runCmd.Flags().String("replay", "", "samples CSV for the replay source")
	runCmd.Flags().Bool("loop", false, "restart the replay when it ends")
	runCmd.Flags().Float64("amplitude", config.DefaultAmplitude, "synthetic tilt amplitude")
	runCmd.Flags().String("haptic", "", "haptic pulse (beep, bell, none)")
	runCmd.Flags().BoolVar(&watch, "watch", false, "run in real time and draw the field")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "feed the same input through every mode",
		Args:  cobra.NoArgs,
		RunE:  runCompare,
	}
	compareCmd.Flags().Int("ticks", config.DefaultTicks, "number of ticks")
	compareCmd.Flags().String("source", "synthetic", "tilt source (synthetic, still, replay)")
	compareCmd.Flags().String("replay", "", "samples CSV for the replay source")
	compareCmd.Flags().Float64("amplitude", config.DefaultAmplitude, "synthetic tilt amplitude")

	tuneCmd := &cobra.Command{
		Use:   "tune [mode]",
		Short: "grid search mode parameters against a run metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringArray("param", nil, "parameter grid, name=a,b,c or name=lo:hi:n (repeatable)")
	tuneCmd.Flags().String("metric", "bounces", "metric to optimise")
	tuneCmd.Flags().Bool("minimize", false, "look for the smallest value instead of the largest")
	tuneCmd.Flags().Int("ticks", config.DefaultTicks, "ticks per combination")
	tuneCmd.Flags().String("source", "synthetic", "tilt source (synthetic, still, replay)")
	tuneCmd.Flags().String("replay", "", "samples CSV for the replay source")
	tuneCmd.Flags().Float64("amplitude", config.DefaultAmplitude, "synthetic tilt amplitude")

	scenarioCmd := &cobra.Command{
		Use:   "scenario <file>",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run series (latest run by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().String("series", "x,y,speed", "comma separated series: "+seriesHelp())

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency and phase analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().String("series", "x", "series to analyse: "+seriesHelp())
	analyzeCmd.Flags().IntVar(&axis, "axis", 0, "phase portrait axis (0=x, 1=y)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (stdout by default)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "draw the trajectory of a run as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (<run_id>.svg by default)")

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets for a mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for mode: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "tiltsim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	rootCmd.AddCommand(liveCmd, runCmd, compareCmd, tuneCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd, exportCmd, svgCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig builds the effective config: file, then preset, then mode
// argument, then flags the user actually set.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		m, err := motion.ParseMode(args[0])
		if err != nil {
			return nil, err
		}
		cfg.Mode = m.String()
	}
	if preset != "" {
		if err := config.ApplyPreset(cfg, cfg.Mode, preset); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks, _ = flags.GetInt("ticks")
	}
	if flags.Changed("tick-ms") {
		cfg.TickMs, _ = flags.GetInt("tick-ms")
	}
	// Without a config file the command's own source default applies, so
	// live starts on the keyboard and run on the synthetic source.
	if flags.Changed("source") || (flags.Lookup("source") != nil && configFile == "") {
		cfg.Sensor.Source, _ = flags.GetString("source")
	}
	if flags.Changed("replay") {
		cfg.Sensor.Replay, _ = flags.GetString("replay")
		if !flags.Changed("source") {
			cfg.Sensor.Source = "replay"
		}
	}
	if f := flags.Lookup("loop"); f != nil && (flags.Changed("loop") || configFile == "") {
		cfg.Sensor.Loop, _ = flags.GetBool("loop")
	}
	if flags.Changed("amplitude") {
		cfg.Sensor.Amplitude, _ = flags.GetFloat64("amplitude")
	}
	if flags.Changed("haptic") {
		cfg.Haptic.Kind, _ = flags.GetString("haptic")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger honours --log-level and --log-file. fallback is used when no
// log file is given and stderr would collide with a full-screen view.
func newLogger(fallback string) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	path := logFile
	if path == "" {
		path = fallback
	}
	if path == "" {
		return log, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(f)
	return log, func() { f.Close() }, nil
}

// newHaptic wraps the configured device in a breaker. The returned closer
// releases the speaker when the beep device was used.
func newHaptic(cfg *config.Config, bell io.Writer, log logrus.FieldLogger) (sim.Haptic, func()) {
	var dev haptic.Pulser
	closer := func() {}
	switch cfg.Haptic.Kind {
	case "beep":
		b := haptic.NewBeep()
		b.Volume = cfg.Haptic.Volume
		dev, closer = b, b.Close
	case "bell":
		dev = haptic.Bell{W: bell}
	default:
		dev = haptic.Nop{}
	}
	settings := haptic.GuardSettings{MaxFailures: cfg.Haptic.MaxFailures, Cooldown: cfg.Cooldown()}
	return haptic.NewGuard(dev, settings, log), closer
}

func newSource(cfg *config.Config) (sensor.Source, error) {
	s := cfg.Sensor
	switch s.Source {
	case "synthetic":
		return sensor.NewSynthetic(s.Amplitude, s.Period), nil
	case "still":
		return sensor.Still{X: s.X, Y: s.Y, Z: s.Z}, nil
	case "replay":
		return sensor.LoadReplay(s.Replay, s.Loop)
	case "keyboard":
		return sensor.NewKeyboard(), nil
	}
	return nil, fmt.Errorf("unknown source %q", s.Source)
}

func newLoop(cfg *config.Config, layout sim.Layout, r sim.Renderer, h sim.Haptic, log logrus.FieldLogger) *sim.Loop {
	return sim.New(sim.Options{
		Interval:      cfg.Interval(),
		PulseDuration: cfg.PulseDuration(),
		Profiles:      cfg.Profiles(),
		Layout:        layout,
		Renderer:      r,
		Haptic:        h,
		Logger:        log,
	})
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(filepath.Join(dataDir, "tiltsim.log"))
	if err != nil {
		return err
	}
	defer closeLog()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	buzz, closeHaptic := newHaptic(cfg, os.Stderr, log)
	defer closeHaptic()

	sink := viz.NewSink()
	layout := viz.NewTerminalLayout(cfg.FieldGeometry())
	loop := newLoop(cfg, layout, sink, buzz, log)

	set := metrics.Standard()
	loop.AddObserver(set)
	rec := storage.NewRecorder()
	if record {
		loop.AddObserver(rec)
	}

	if err := loop.SwitchMode(cfg.StartMode()); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	kb, _ := src.(*sensor.Keyboard)
	if kb == nil {
		go func() {
			err := sensor.Pump(ctx, src, cfg.Interval(), loop.SetSample)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Warn("sample source stopped")
			}
		}()
	} else {
		loop.SetSample(kb.Level())
	}

	log.WithFields(logrus.Fields{"mode": cfg.Mode, "source": cfg.Sensor.Source}).Info("live view started")
	loop.Start()
	err = viz.Run(viz.Options{
		Loop:      loop,
		Sink:      sink,
		Layout:    layout,
		Keyboard:  kb,
		Metrics:   set,
		Logger:    log,
		FrameRate: frameRate,
	})
	loop.Stop()
	cancel()
	if err != nil {
		return err
	}

	if record && rec.Len() > 0 {
		runID, err := saveRun(cfg, loop, rec.Frames(), set)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

// tickLimit cancels a real-time run once the loop reaches its tick budget.
type tickLimit struct {
	limit  int
	cancel context.CancelFunc
}

func (t tickLimit) OnTick(f sim.Frame) {
	if f.Tick >= t.limit {
		t.cancel()
	}
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger("")
	if err != nil {
		return err
	}
	defer closeLog()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}

	var renderer sim.Renderer
	var live *tui.LiveRenderer
	if watch {
		live = tui.NewLiveRenderer(os.Stdout, 1000/cfg.TickMs)
		renderer = live
	}
	buzz, closeHaptic := newHaptic(cfg, os.Stdout, log)
	defer closeHaptic()

	loop := newLoop(cfg, sim.FixedLayout(cfg.FieldGeometry()), renderer, buzz, log)
	set := metrics.Standard()
	rec := storage.NewRecorder()
	loop.AddObserver(set)
	loop.AddObserver(rec)

	if err := loop.SwitchMode(cfg.StartMode()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %d ticks...\n", cfg.Mode, cfg.Ticks)
	start := time.Now()

	if watch {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		loop.AddObserver(tickLimit{limit: cfg.Ticks, cancel: cancel})

		live.Start()
		loop.Start()
		err = sensor.Pump(ctx, src, cfg.Interval(), loop.SetSample)
		loop.Stop()
		live.Stop()
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			err = nil
		}
	} else {
		_, err = loop.Run(ctx, src, cfg.Ticks)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	if err != nil {
		return err
	}

	frames := rec.Frames()
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("ticks: %d\n", len(frames))

	if !noSave {
		runID, err := saveRun(cfg, loop, frames, set)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	snap := set.Snapshot()
	for _, name := range metrics.Names(snap) {
		fmt.Printf("  %s: %.4f\n", name, snap[name])
	}
	return nil
}

func saveRun(cfg *config.Config, loop *sim.Loop, frames []sim.Frame, set *metrics.Set) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}

	ctx := loop.Context()
	return st.Save(storage.RunMetadata{
		Mode:      ctx.Mode.String(),
		TickMs:    cfg.TickMs,
		Source:    cfg.Sensor.Source,
		Field:     ctx.Field.Size,
		Body:      ctx.State.Size,
		Attractor: ctx.Field.Attractor,
		Config:    ctx.Config,
		Metrics:   set.Snapshot(),
	}, frames)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger("")
	if err != nil {
		return err
	}
	defer closeLog()

	sets := make(map[motion.Mode]*metrics.Set)
	build := func(m motion.Mode) (sim.Trial, error) {
		src, err := newSource(cfg)
		if err != nil {
			return sim.Trial{}, err
		}
		loop := newLoop(cfg, sim.FixedLayout(cfg.FieldGeometry()), nil, haptic.Nop{}, log.WithField("mode", m))
		sets[m] = metrics.Standard()
		loop.AddObserver(sets[m])
		if err := loop.SwitchMode(m); err != nil {
			return sim.Trial{}, err
		}
		return sim.Trial{Mode: m, Loop: loop, Source: src}, nil
	}

	results, err := sim.NewEnsemble(motion.Modes(), build).Run(cmd.Context(), cfg.Ticks)
	if err != nil {
		return err
	}
	return printComparison(results, sets)
}
