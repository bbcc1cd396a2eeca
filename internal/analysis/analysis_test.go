package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/sim"
)

func TestDominantFrequency(t *testing.T) {
	const rate = 25.0
	data := make([]float64, 200)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*2*float64(i)/rate)
	}

	spec := PowerSpectrum(data, rate)
	if len(spec.Freqs) != 101 {
		t.Fatalf("expected 101 bins, got %d", len(spec.Freqs))
	}
	if spec.Freqs[100] != rate/2 {
		t.Errorf("last bin should be Nyquist, got %f", spec.Freqs[100])
	}

	f, p := spec.Dominant()
	if math.Abs(f-2) > 1e-9 {
		t.Errorf("expected dominant 2Hz, got %f", f)
	}
	if p <= 0 {
		t.Error("expected positive power")
	}
	if spec.Power[0] > p*0.01 {
		t.Errorf("mean should be removed, DC power %f", spec.Power[0])
	}
}

func TestPowerSpectrumDegenerate(t *testing.T) {
	if s := PowerSpectrum([]float64{1}, 25); len(s.Power) != 0 {
		t.Error("single sample should give empty spectrum")
	}
	if s := PowerSpectrum([]float64{1, 2, 3}, 0); len(s.Power) != 0 {
		t.Error("zero rate should give empty spectrum")
	}
	if f, p := (Spectrum{}).Dominant(); f != 0 || p != 0 {
		t.Error("empty spectrum has no dominant bin")
	}
}

func TestBands(t *testing.T) {
	s := Spectrum{Power: []float64{9, 1, 1, 2, 2}}
	bands := s.Bands(2)
	if len(bands) != 2 || bands[0] != 2 || bands[1] != 4 {
		t.Errorf("unexpected bands %v", bands)
	}
	if s.Bands(0) != nil {
		t.Error("expected nil for zero bands")
	}
}

func orbitFrames() []sim.Frame {
	frames := make([]sim.Frame, 100)
	for i := range frames {
		a := float64(i) * 0.2
		frames[i] = sim.Frame{
			Position: mgl64.Vec2{300 + 100*math.Cos(a), 500 + 100*math.Sin(a)},
			Velocity: mgl64.Vec2{-20 * math.Sin(a), 20 * math.Cos(a)},
		}
	}
	return frames
}

func TestPhasePortrait(t *testing.T) {
	p := GeneratePhasePortrait(orbitFrames(), 0)
	if p == nil || len(p.Points) != 100 {
		t.Fatal("expected 100 points")
	}
	if GeneratePhasePortrait(nil, 2) != nil {
		t.Error("expected nil for bad axis")
	}

	art := PhasePortraitToASCII(p, 40, 10)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 10 {
		t.Errorf("expected 10 rows, got %d", len(lines))
	}
	if !strings.Contains(art, "•") {
		t.Error("expected plotted points")
	}
	if PhasePortraitToASCII(nil, 40, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}

func TestWallCrossings(t *testing.T) {
	crossings := WallCrossings(orbitFrames(), 300)
	// 100 steps of 0.2 rad is a little over three turns.
	if len(crossings) != 3 {
		t.Errorf("expected 3 crossings, got %d", len(crossings))
	}
	for _, c := range crossings {
		if c.X > 500 {
			t.Errorf("rightward crossing should be on the lower half, got y=%f", c.X)
		}
	}
}
