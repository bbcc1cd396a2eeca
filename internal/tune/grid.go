// Package tune searches mode parameters for settings that push a run metric
// up or down, e.g. the friction that keeps a marble bouncing longest.
package tune

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/tiltsim/internal/config"
)

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

// Point is one evaluated combination.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
}

// Evaluate runs one combination and reports its metrics.
type Evaluate func(ctx context.Context, params map[string]float64) (map[string]float64, error)

type GridSearch struct {
	params []Param
}

func NewGridSearch(params []Param) *GridSearch {
	return &GridSearch{params: params}
}

// Size is the number of combinations Search will evaluate.
func (g *GridSearch) Size() int {
	if len(g.params) == 0 {
		return 0
	}
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Search evaluates every combination and returns the best one by metric
// together with all points in evaluation order. A failing combination aborts
// the search.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate, metric string, maximize bool) (Point, []Point, error) {
	if g.Size() == 0 {
		return Point{}, nil, fmt.Errorf("tune: empty grid")
	}

	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}
	var bestPoint Point
	points := make([]Point, 0, g.Size())

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		m, err := eval(ctx, params)
		if err != nil {
			return fmt.Errorf("tune %s: %w", Format(params), err)
		}
		val, ok := m[metric]
		if !ok {
			return fmt.Errorf("tune: unknown metric %q", metric)
		}
		p := Point{Params: params, Metrics: m}
		points = append(points, p)
		if (maximize && val > best) || (!maximize && val < best) {
			best = val
			bestPoint = p
		}
		return nil
	})
	if err != nil {
		return Point{}, points, err
	}
	return bestPoint, points, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.params) {
		return visit(current)
	}

	p := g.params[depth]
	for _, val := range p.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[p.Name] = val

		if err := g.searchRecursive(ctx, depth+1, next, visit); err != nil {
			return err
		}
	}
	return nil
}

var setters = map[string]func(s *config.ModeSettings, v float64){
	"tilt":           func(s *config.ModeSettings, v float64) { s.Tilt = v },
	"resistance":     func(s *config.ModeSettings, v float64) { s.Resistance = v },
	"friction":       func(s *config.ModeSettings, v float64) { s.Friction = v },
	"side_friction":  func(s *config.ModeSettings, v float64) { s.SideFriction = v },
	"epsilon":        func(s *config.ModeSettings, v float64) { s.Epsilon = v },
	"strong_hit":     func(s *config.ModeSettings, v float64) { s.StrongHit = v },
	"gravity":        func(s *config.ModeSettings, v float64) { s.Gravity = v },
	"max_speed":      func(s *config.ModeSettings, v float64) { s.MaxSpeed = v },
	"escape_damping": func(s *config.ModeSettings, v float64) { s.EscapeDamping = v },
	"parallax_blend": func(s *config.ModeSettings, v float64) { s.ParallaxBlend = v },
}

// ParamNames lists the mode settings Apply understands.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Apply writes params into a mode's settings.
func Apply(s *config.ModeSettings, params map[string]float64) error {
	for name, v := range params {
		set, ok := setters[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q (want one of %s)", name, strings.Join(ParamNames(), ", "))
		}
		set(s, v)
	}
	return nil
}

// ParseParam reads "name=a,b,c" or "name=lo:hi:n" (n evenly spaced values).
func ParseParam(arg string) (Param, error) {
	name, values, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || values == "" {
		return Param{}, fmt.Errorf("parameter %q: want name=values", arg)
	}
	if _, known := setters[name]; !known {
		return Param{}, fmt.Errorf("unknown parameter %q (want one of %s)", name, strings.Join(ParamNames(), ", "))
	}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Param{}, fmt.Errorf("parameter %q: bad range %q", name, values)
		}
		return Param{Name: name, Values: Linspace(lo, hi, n)}, nil
	}

	var out []float64
	for _, s := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Param{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		out = append(out, v)
	}
	return Param{Name: name, Values: out}, nil
}

func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Format renders params as sorted name=value pairs.
func Format(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}

