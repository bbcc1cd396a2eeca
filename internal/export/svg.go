package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
)

type SVGOptions struct {
	Width, Height int
	Stroke        string
	HitColor      string
	Attractor     *motion.Attractor
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 360, Height: 600, Stroke: "#00ff88", HitColor: "#ff4444"}
}

// TrajectoryToSVG draws the path of the body's centre across a field of the
// given size, in screen orientation. The path is broken at escape wraps and
// strong hits are marked.
func TrajectoryToSVG(frames []sim.Frame, field mgl64.Vec2, opts SVGOptions) string {
	if len(frames) < 2 {
		return ""
	}
	if field[0] <= 0 || field[1] <= 0 {
		field = bounds(frames)
	}

	sx := float64(opts.Width) / field[0]
	sy := float64(opts.Height) / field[1]
	project := func(p mgl64.Vec2) (float64, float64) { return p[0] * sx, p[1] * sy }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height))

	if a := opts.Attractor; a != nil {
		cx, cy := project(a.Center())
		sb.WriteString(fmt.Sprintf(`<ellipse cx="%.1f" cy="%.1f" rx="%.1f" ry="%.1f" fill="#ffcc00"/>
`, cx, cy, a.Size[0]/2*sx, a.Size[1]/2*sy))
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, opts.Stroke))
	for i, f := range frames {
		x, y := project(centre(f))
		cmd := "L"
		if i == 0 || f.Escaped || f.Mode != frames[i-1].Mode {
			cmd = "M"
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, x, y))
	}
	sb.WriteString("\"/>\n")

	for _, f := range frames {
		if !f.StrongHit {
			continue
		}
		x, y := project(centre(f))
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, x, y, opts.HitColor))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func centre(f sim.Frame) mgl64.Vec2 {
	return f.Position.Add(f.Size.Mul(0.5))
}

// bounds is used when a run carries no field size.
func bounds(frames []sim.Frame) mgl64.Vec2 {
	var b mgl64.Vec2
	for _, f := range frames {
		c := f.Position.Add(f.Size)
		b[0] = max(b[0], c[0])
		b[1] = max(b[1], c[1])
	}
	if b[0] <= 0 {
		b[0] = 1
	}
	if b[1] <= 0 {
		b[1] = 1
	}
	return b
}
