package metrics

import (
	"math"
	"sort"
	"sync"

	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sim"
)

// Metric accumulates one number over the frames of a run.
type Metric interface {
	Name() string
	OnTick(f sim.Frame)
	Value() float64
	Reset()
}

// Bounces counts wall contacts, one per edge per arrival. A body pressed
// against a wall for many ticks counts once.
type Bounces struct {
	count int
	prev  motion.Edge
}

func NewBounces() *Bounces { return &Bounces{} }

func (b *Bounces) Name() string { return "bounces" }

func (b *Bounces) OnTick(f sim.Frame) {
	fresh := f.Contacts &^ b.prev
	for _, e := range []motion.Edge{motion.EdgeLeft, motion.EdgeRight, motion.EdgeTop, motion.EdgeBottom} {
		if fresh.Has(e) {
			b.count++
		}
	}
	b.prev = f.Contacts
}

func (b *Bounces) Value() float64 { return float64(b.count) }

func (b *Bounces) Reset() { *b = Bounces{} }

type StrongHits struct{ count int }

func NewStrongHits() *StrongHits { return &StrongHits{} }

func (s *StrongHits) Name() string { return "strong_hits" }

func (s *StrongHits) OnTick(f sim.Frame) {
	if f.StrongHit {
		s.count++
	}
}

func (s *StrongHits) Value() float64 { return float64(s.count) }

func (s *StrongHits) Reset() { s.count = 0 }

type Escapes struct{ count int }

func NewEscapes() *Escapes { return &Escapes{} }

func (e *Escapes) Name() string { return "escapes" }

func (e *Escapes) OnTick(f sim.Frame) {
	if f.Escaped {
		e.count++
	}
}

func (e *Escapes) Value() float64 { return float64(e.count) }

func (e *Escapes) Reset() { e.count = 0 }

type MaxSpeed struct{ max float64 }

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) OnTick(f sim.Frame) { m.max = math.Max(m.max, f.Speed()) }

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

type MeanSpeed struct {
	total   float64
	samples int
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) OnTick(f sim.Frame) {
	m.total += f.Speed()
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanSpeed) Reset() { *m = MeanSpeed{} }

// Distance is the path length travelled. Escape wraps are not counted as
// travel.
type Distance struct {
	total float64
	last  *sim.Frame
}

func NewDistance() *Distance { return &Distance{} }

func (d *Distance) Name() string { return "distance" }

func (d *Distance) OnTick(f sim.Frame) {
	if d.last != nil && !f.Escaped && d.last.Mode == f.Mode {
		d.total += f.Position.Sub(d.last.Position).Len()
	}
	d.last = &f
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() { *d = Distance{} }

// Set fans frames out to several metrics. It is safe to read from another
// goroutine while the loop feeds it.
type Set struct {
	mu      sync.Mutex
	metrics []Metric
}

func NewSet(ms ...Metric) *Set { return &Set{metrics: ms} }

// Standard is the set every run records.
func Standard() *Set {
	return NewSet(NewBounces(), NewStrongHits(), NewEscapes(), NewMaxSpeed(), NewMeanSpeed(), NewDistance())
}

func (s *Set) OnTick(f sim.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.OnTick(f)
	}
}

func (s *Set) Snapshot() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Names returns the metric names in sorted order.
func Names(snapshot map[string]float64) []string {
	names := make([]string, 0, len(snapshot))
	for k := range snapshot {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
