package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/tiltsim/internal/sim"
)

type ExportData struct {
	RunMetadata
	Frames []ExportFrame `json:"frames"`
}

type ExportFrame struct {
	Tick       int        `json:"tick"`
	Sample     [3]float64 `json:"sample"`
	Position   [2]float64 `json:"position"`
	Velocity   [2]float64 `json:"velocity"`
	Background [2]float64 `json:"background"`
	Contacts   string     `json:"contacts,omitempty"`
	StrongHit  bool       `json:"strong_hit,omitempty"`
	Front      bool       `json:"front,omitempty"`
	Escaped    bool       `json:"escaped,omitempty"`
}

func newExportData(meta RunMetadata, frames []sim.Frame) ExportData {
	data := ExportData{RunMetadata: meta, Frames: make([]ExportFrame, len(frames))}
	for i, f := range frames {
		ef := ExportFrame{
			Tick:       f.Tick,
			Sample:     [3]float64{f.Sample.X, f.Sample.Y, f.Sample.Z},
			Position:   f.Position,
			Velocity:   f.Velocity,
			Background: f.Background,
			StrongHit:  f.StrongHit,
			Front:      f.Front,
			Escaped:    f.Escaped,
		}
		if f.Contacts != 0 {
			ef.Contacts = f.Contacts.String()
		}
		data.Frames[i] = ef
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, frames []sim.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSONTo(file, meta, frames)
}

func ExportJSONTo(w io.Writer, meta RunMetadata, frames []sim.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, frames))
}
