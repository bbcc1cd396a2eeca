package sensor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/tiltsim/internal/motion"
)

// Replay plays back recorded samples. Rows are "x,y,z"; a header row and
// blank or '#' lines are skipped.
type Replay struct {
	samples []motion.AccelerationSample
	pos     int
	Loop    bool
}

func NewReplay(samples []motion.AccelerationSample, loop bool) *Replay {
	return &Replay{samples: samples, Loop: loop}
}

func LoadReplay(path string, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", path, err)
	}
	return NewReplay(samples, loop), nil
}

func ReadSamples(r io.Reader) ([]motion.AccelerationSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := make([]motion.AccelerationSample, 0, len(records))
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: want 3 fields, got %d", i+1, len(rec))
		}
		vals := [3]float64{}
		var errs [3]error
		parsed := 0
		for j := 0; j < 3; j++ {
			vals[j], errs[j] = strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if errs[j] == nil {
				parsed++
			}
		}
		// a first row with no numbers at all is a header
		if i == 0 && parsed == 0 {
			continue
		}
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		samples = append(samples, motion.AccelerationSample{X: vals[0], Y: vals[1], Z: vals[2]})
	}
	return samples, nil
}

func (r *Replay) Next() (motion.AccelerationSample, error) {
	if len(r.samples) == 0 {
		return motion.AccelerationSample{}, io.EOF
	}
	if r.pos >= len(r.samples) {
		if !r.Loop {
			return motion.AccelerationSample{}, io.EOF
		}
		r.pos = 0
	}
	a := r.samples[r.pos]
	r.pos++
	return a, nil
}

func (r *Replay) Len() int { return len(r.samples) }

// WriteSamples writes samples in the format ReadSamples accepts.
func WriteSamples(w io.Writer, samples []motion.AccelerationSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z"}); err != nil {
		return err
	}
	for _, a := range samples {
		row := []string{
			strconv.FormatFloat(a.X, 'f', 6, 64),
			strconv.FormatFloat(a.Y, 'f', 6, 64),
			strconv.FormatFloat(a.Z, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
