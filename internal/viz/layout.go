package viz

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
)

// DotSize is how many field pixels one braille dot covers.
const DotSize = 10.0

// statsWidth is the columns taken by the stats panel and borders.
const statsWidth = 50

// TerminalLayout derives the play field from the terminal size. The
// background keeps the configured margin around the field.
type TerminalLayout struct {
	mu         sync.Mutex
	cols, rows int
	margin     mgl64.Vec2
}

func NewTerminalLayout(base motion.FieldGeometry) *TerminalLayout {
	l := &TerminalLayout{margin: base.Background.Sub(base.Size)}
	l.cols = int(base.Size[0] / DotSize / 2)
	l.rows = int(base.Size[1] / DotSize / 4)
	return l
}

// SetWindow fits the canvas into a terminal of the given size and reports
// whether the canvas changed.
func (l *TerminalLayout) SetWindow(width, height int) bool {
	cols := max(8, width-statsWidth-2)
	rows := max(6, height-3)

	l.mu.Lock()
	defer l.mu.Unlock()
	if cols == l.cols && rows == l.rows {
		return false
	}
	l.cols, l.rows = cols, rows
	return true
}

// Cells is the canvas size in character cells.
func (l *TerminalLayout) Cells() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cols, l.rows
}

func (l *TerminalLayout) Field() motion.FieldGeometry {
	l.mu.Lock()
	defer l.mu.Unlock()
	size := mgl64.Vec2{float64(l.cols*2) * DotSize, float64(l.rows*4) * DotSize}
	return motion.FieldGeometry{Size: size, Background: size.Add(l.margin)}
}
