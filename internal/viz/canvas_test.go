package viz

import (
	"strings"
	"testing"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	if c.Grid[0][0] != blank|0x1 || c.Grid[0][1] != blank|0x80 {
		t.Errorf("unexpected cells %U %U", c.Grid[0][0], c.Grid[0][1])
	}
	if !c.IsSet(3, 3) {
		t.Error("expected dot set")
	}

	c.Unset(3, 3)
	if c.Grid[0][1] != blank {
		t.Errorf("expected blank cell, got %U", c.Grid[0][1])
	}

	c.Set(-1, 0)
	c.Set(4, 0)
	if c.Grid[0][0] != blank|0x1 {
		t.Error("out of range dots should be ignored")
	}
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0)
	c.Resize(5, 3)
	w, h := c.Dots()
	if w != 10 || h != 12 {
		t.Errorf("expected 10x12 dots, got %dx%d", w, h)
	}
	if c.IsSet(0, 0) {
		t.Error("resize should clear")
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 3 rows, got %d newlines", got+1)
	}
}

func TestCanvasDiscAndEllipse(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Disc(10, 10, 4, 4)
	if !c.IsSet(10, 10) {
		t.Error("disc should fill its centre")
	}

	c.Ellipse(10, 10, 4, 4)
	if c.IsSet(10, 10) {
		t.Error("ellipse should clear its interior")
	}
	if !c.IsSet(10, 6) && !c.IsSet(10, 7) {
		t.Error("ellipse rim missing at the top")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for x := 0; x < 8; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("dot %d not set", x)
		}
	}
}

func TestTiltGaugeClamps(t *testing.T) {
	g := TiltGauge(50, 10, 11)
	if strings.Count(g, "█") != 5 {
		t.Errorf("expected half the gauge filled, got %q", g)
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 4); got != "────" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	got := []rune(SparklineChart([]float64{0, 1, 2, 3, 4, 5}, 3))
	if len(got) != 3 || got[2] != '█' || got[0] != '▁' {
		t.Errorf("unexpected sparkline %q", string(got))
	}
}
