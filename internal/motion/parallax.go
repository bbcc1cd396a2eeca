package motion

import "github.com/go-gl/mathgl/mgl64"

// Parallax is the display offset of the background layer. It eases toward a
// tilt-dependent target instead of being integrated.
type Parallax struct {
	Offset mgl64.Vec2
}

// Center returns the offset that centres the background in the field.
func (Parallax) Center(field FieldGeometry) mgl64.Vec2 {
	return field.Size.Sub(field.Background).Mul(0.5)
}

func (p *Parallax) Follow(tilt mgl64.Vec2, field FieldGeometry, cfg ModeConfig) {
	target := p.Center(field).Add(mgl64.Vec2{tilt[0] * cfg.ParallaxReach, -tilt[1] * cfg.ParallaxReach})
	p.Offset = p.Offset.Add(target.Sub(p.Offset).Mul(cfg.ParallaxBlend))
}

// FilterControls maps the body's position in the field onto audio filter
// controls: cutoff = x/width*100, Q = y/width*10.
func FilterControls(st MotionState, field FieldGeometry) (frequency, q float64) {
	w := field.Width()
	if w <= 0 {
		return 0, 0
	}
	return st.Position[0] / w * 100, st.Position[1] / w * 10
}
