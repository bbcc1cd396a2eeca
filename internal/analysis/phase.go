package analysis

import (
	"strings"

	"github.com/san-kum/tiltsim/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D is position against velocity on one axis.
type PhasePortrait2D struct {
	Axis   int
	Points []Point
}

func GeneratePhasePortrait(frames []sim.Frame, axis int) *PhasePortrait2D {
	if axis < 0 || axis > 1 {
		return nil
	}
	portrait := &PhasePortrait2D{Axis: axis, Points: make([]Point, 0, len(frames))}
	for _, f := range frames {
		portrait.Points = append(portrait.Points, Point{X: f.Position[axis], Y: f.Velocity[axis]})
	}
	return portrait
}

func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// zero-velocity line
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// WallCrossings records the vertical position and velocity each time the
// body's left edge passes line x moving right.
func WallCrossings(frames []sim.Frame, x float64) []Point {
	var out []Point
	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		if cur.Escaped {
			continue
		}
		if prev.Position[0] < x && cur.Position[0] >= x {
			out = append(out, Point{X: cur.Position[1], Y: cur.Velocity[1]})
		}
	}
	return out
}
