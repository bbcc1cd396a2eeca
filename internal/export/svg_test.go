package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
)

func TestTrajectoryToSVG(t *testing.T) {
	frames := []sim.Frame{
		{Position: mgl64.Vec2{0, 0}, Size: mgl64.Vec2{20, 20}},
		{Position: mgl64.Vec2{80, 180}, Size: mgl64.Vec2{20, 20}, StrongHit: true},
		{Position: mgl64.Vec2{-30, 100}, Size: mgl64.Vec2{20, 20}, Escaped: true},
	}
	opts := DefaultSVGOptions()
	opts.Width, opts.Height = 100, 200
	opts.Attractor = &motion.Attractor{Position: mgl64.Vec2{40, 90}, Size: mgl64.Vec2{20, 20}}

	svg := TrajectoryToSVG(frames, mgl64.Vec2{100, 200}, opts)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not an svg document")
	}
	if !strings.Contains(svg, `d="M10.0,10.0 L90.0,190.0 M-20.0,110.0"`) {
		t.Errorf("unexpected path in\n%s", svg)
	}
	if strings.Count(svg, "<circle") != 1 {
		t.Error("expected one strong-hit marker")
	}
	if !strings.Contains(svg, `<ellipse cx="50.0" cy="100.0"`) {
		t.Error("expected attractor at field centre")
	}
}

func TestTrajectoryToSVGTooShort(t *testing.T) {
	if TrajectoryToSVG([]sim.Frame{{}}, mgl64.Vec2{1, 1}, DefaultSVGOptions()) != "" {
		t.Error("expected empty output for a single frame")
	}
}

func TestTrajectoryToSVGFitsBounds(t *testing.T) {
	frames := []sim.Frame{
		{Position: mgl64.Vec2{0, 0}, Size: mgl64.Vec2{10, 10}},
		{Position: mgl64.Vec2{90, 190}, Size: mgl64.Vec2{10, 10}},
	}
	opts := DefaultSVGOptions()
	opts.Width, opts.Height = 100, 200
	svg := TrajectoryToSVG(frames, mgl64.Vec2{}, opts)
	if !strings.Contains(svg, "L95.0,195.0") {
		t.Errorf("expected fitted path in\n%s", svg)
	}
}
