package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tiltsim/internal/analysis"
	"github.com/san-kum/tiltsim/internal/export"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/spf13/cobra"
)

func seriesHelp() string {
	return strings.Join(storage.SeriesNames(), ", ")
}

// resolveRun picks the run named on the command line or the newest one.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func loadRun(args []string) (*storage.RunMetadata, []sim.Frame, error) {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, storage.ErrNoFrames
	}
	return meta, frames, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTIME\tTICKS\tTICK\tSOURCE\tHITS\tMAX SPEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dms\t%s\t%.0f\t%.2f\n",
			run.ID,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.TickMs,
			run.Source,
			run.Metrics["strong_hits"],
			run.Metrics["max_speed"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("ticks: %d\n\n", len(frames))

	series, _ := cmd.Flags().GetString("series")
	for _, name := range strings.Split(series, ",") {
		name = strings.TrimSpace(name)
		data, err := storage.Series(frames, name)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs tick"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args)
	if err != nil {
		return err
	}

	series, _ := cmd.Flags().GetString("series")
	data, err := storage.Series(frames, series)
	if err != nil {
		return err
	}
	tickMs := meta.TickMs
	if tickMs <= 0 {
		tickMs = int(sim.DefaultInterval.Milliseconds())
	}
	rate := 1000 / float64(tickMs)

	spectrum := analysis.PowerSpectrum(data, rate)
	if len(spectrum.Power) < 2 {
		return fmt.Errorf("run %s is too short to analyse", meta.ID)
	}

	fmt.Printf("run: %s (%s, %d ticks at %.0fHz)\n\n", meta.ID, meta.Mode, len(frames), rate)
	freq, power := spectrum.Dominant()
	fmt.Printf("%s dominant frequency: %.3fHz (power %.2f)\n", series, freq, power)
	if freq > 0 {
		fmt.Printf("period: %.1f ticks (%.2fs)\n", rate/freq, 1/freq)
	}
	fmt.Println()

	bands := spectrum.Bands(min(60, len(spectrum.Power)-1))
	fmt.Println(asciigraph.Plot(bands,
		asciigraph.Height(8),
		asciigraph.Caption(fmt.Sprintf("%s spectrum, 0-%.1fHz", series, rate/2)),
	))
	fmt.Println()

	portrait := analysis.GeneratePhasePortrait(frames, axis)
	if portrait == nil {
		return fmt.Errorf("axis must be 0 or 1, got %d", axis)
	}
	label := [2]string{"x", "y"}[axis]
	fmt.Printf("phase portrait (%s vs v%s):\n", label, label)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))

	if meta.Field[0] > 0 {
		crossings := analysis.WallCrossings(frames, meta.Field[0]/2)
		fmt.Printf("\ncentre-line crossings: %d\n", len(crossings))
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args)
	if err != nil {
		return err
	}
	if outPath == "" {
		return storage.ExportJSONTo(os.Stdout, *meta, frames)
	}
	if err := storage.ExportJSON(outPath, *meta, frames); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, outPath)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args)
	if err != nil {
		return err
	}

	opts := export.DefaultSVGOptions()
	opts.Attractor = meta.Attractor
	svg := export.TrajectoryToSVG(frames, meta.Field, opts)
	if svg == "" {
		return fmt.Errorf("run %s has too few frames to draw", meta.ID)
	}

	path := outPath
	if path == "" {
		path = meta.ID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func printComparison(results []sim.TrialResult, sets map[motion.Mode]*metrics.Set) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tTICKS\tFINAL POS\tBOUNCES\tHITS\tESCAPES\tMAX SPEED\tDISTANCE")
	for _, r := range results {
		snap := sets[r.Mode].Snapshot()
		pos := r.Final.State.Position
		fmt.Fprintf(w, "%s\t%d\t(%.0f, %.0f)\t%.0f\t%.0f\t%.0f\t%.2f\t%.0f\n",
			r.Mode, r.Ticks, pos[0], pos[1],
			snap["bounces"], snap["strong_hits"], snap["escapes"],
			snap["max_speed"], snap["distance"],
		)
	}
	return w.Flush()
}
