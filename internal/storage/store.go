package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	samplesFile  = "samples.csv"
)

var ErrNoFrames = errors.New("storage: run has no frames")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Mode      string             `json:"mode"`
	Timestamp time.Time          `json:"timestamp"`
	TickMs    int                `json:"tick_ms"`
	Ticks     int                `json:"ticks"`
	Source    string             `json:"source"`
	Field     mgl64.Vec2         `json:"field"`
	Body      mgl64.Vec2         `json:"body"`
	Attractor *motion.Attractor  `json:"attractor,omitempty"`
	Config    motion.ModeConfig  `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Recorder collects frames as the loop publishes them.
type Recorder struct {
	mu     sync.Mutex
	frames []sim.Frame
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) OnTick(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *Recorder) Frames() []sim.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sim.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Save writes a run directory holding the metadata, the frames and the raw
// samples. The samples file can be fed back through a replay source.
func (s *Store) Save(meta RunMetadata, frames []sim.Frame) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Ticks = len(frames)

	runID := fmt.Sprintf("%s_%d", meta.Mode, meta.Timestamp.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for n := 2; exists(runDir); n++ {
		runID = fmt.Sprintf("%s_%d_%d", meta.Mode, meta.Timestamp.Unix(), n)
		runDir = filepath.Join(s.baseDir, runID)
	}
	meta.ID = runID

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, framesFile), func(w io.Writer) error {
		return WriteFrames(w, frames)
	}); err != nil {
		return "", err
	}

	samples := make([]motion.AccelerationSample, len(frames))
	for i, f := range frames {
		samples[i] = f.Sample
	}
	if err := writeFile(filepath.Join(runDir, samplesFile), func(w io.Writer) error {
		return sensor.WriteSamples(w, samples)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the ID of the newest run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[0].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadFrames(file)
}

// SamplesPath is the recorded input of a run, in replay format.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, samplesFile)
}

var frameHeader = []string{
	"tick", "mode", "ax", "ay", "az",
	"x", "y", "vx", "vy", "w", "h", "bg_x", "bg_y",
	"contacts", "strong", "front", "escaped",
}

func WriteFrames(w io.Writer, frames []sim.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(frameHeader); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{strconv.Itoa(f.Tick), f.Mode.String()}
		for _, v := range []float64{
			f.Sample.X, f.Sample.Y, f.Sample.Z,
			f.Position[0], f.Position[1], f.Velocity[0], f.Velocity[1],
			f.Size[0], f.Size[1], f.Background[0], f.Background[1],
		} {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		row = append(row,
			strconv.Itoa(int(f.Contacts)),
			strconv.FormatBool(f.StrongHit),
			strconv.FormatBool(f.Front),
			strconv.FormatBool(f.Escaped),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadFrames(r io.Reader) ([]sim.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(frameHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0, len(records)-1)
	for i, rec := range records[1:] {
		f, err := parseFrame(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func parseFrame(rec []string) (sim.Frame, error) {
	var f sim.Frame
	var err error

	if f.Tick, err = strconv.Atoi(rec[0]); err != nil {
		return f, err
	}
	if f.Mode, err = motion.ParseMode(rec[1]); err != nil {
		return f, err
	}

	nums := make([]float64, 11)
	for i := range nums {
		if nums[i], err = strconv.ParseFloat(rec[2+i], 64); err != nil {
			return f, err
		}
	}
	f.Sample = motion.AccelerationSample{X: nums[0], Y: nums[1], Z: nums[2]}
	f.Position = mgl64.Vec2{nums[3], nums[4]}
	f.Velocity = mgl64.Vec2{nums[5], nums[6]}
	f.Size = mgl64.Vec2{nums[7], nums[8]}
	f.Background = mgl64.Vec2{nums[9], nums[10]}

	contacts, err := strconv.Atoi(rec[13])
	if err != nil {
		return f, err
	}
	f.Contacts = motion.Edge(contacts)

	flags := make([]bool, 3)
	for i := range flags {
		if flags[i], err = strconv.ParseBool(rec[14+i]); err != nil {
			return f, err
		}
	}
	f.StrongHit, f.Front, f.Escaped = flags[0], flags[1], flags[2]
	return f, nil
}

// Series extracts one named column from frames for plotting and analysis.
func Series(frames []sim.Frame, name string) ([]float64, error) {
	pick, ok := seriesPickers[name]
	if !ok {
		return nil, fmt.Errorf("unknown series %q", name)
	}
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = pick(f)
	}
	return out, nil
}

var seriesPickers = map[string]func(sim.Frame) float64{
	"x":     func(f sim.Frame) float64 { return f.Position[0] },
	"y":     func(f sim.Frame) float64 { return f.Position[1] },
	"vx":    func(f sim.Frame) float64 { return f.Velocity[0] },
	"vy":    func(f sim.Frame) float64 { return f.Velocity[1] },
	"speed": func(f sim.Frame) float64 { return f.Speed() },
	"ax":    func(f sim.Frame) float64 { return f.Sample.X },
	"ay":    func(f sim.Frame) float64 { return f.Sample.Y },
	"az":    func(f sim.Frame) float64 { return f.Sample.Z },
}

func SeriesNames() []string {
	names := make([]string, 0, len(seriesPickers))
	for k := range seriesPickers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
