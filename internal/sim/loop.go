package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Interval      time.Duration
	PulseDuration time.Duration
	Profiles      map[motion.Mode]motion.Profile
	Layout        Layout
	Renderer      Renderer
	Haptic        Haptic
	Scheduler     Scheduler
	Logger        logrus.FieldLogger
}

// Loop is the fixed-rate simulation driver. It owns the simulation context,
// the latest-sample slot and the single pending tick.
type Loop struct {
	mu       sync.Mutex
	ctx      motion.SimulationContext
	strategy motion.Strategy
	ticks    int
	running  bool
	pending  Task
	gen      uint64

	// pubMu orders deliveries to renderer, observers and haptic outside mu.
	pubMu     sync.Mutex
	observers []Observer

	sample atomic.Pointer[motion.AccelerationSample]

	interval  time.Duration
	pulse     time.Duration
	profiles  map[motion.Mode]motion.Profile
	layout    Layout
	renderer  Renderer
	haptic    Haptic
	scheduler Scheduler
	log       logrus.FieldLogger
}

func New(opts Options) *Loop {
	l := &Loop{
		interval:  opts.Interval,
		pulse:     opts.PulseDuration,
		profiles:  make(map[motion.Mode]motion.Profile),
		layout:    opts.Layout,
		renderer:  opts.Renderer,
		haptic:    opts.Haptic,
		scheduler: opts.Scheduler,
		log:       opts.Logger,
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.pulse <= 0 {
		l.pulse = DefaultPulseDuration
	}
	for _, m := range motion.Modes() {
		l.profiles[m] = motion.DefaultProfile(m)
	}
	for m, p := range opts.Profiles {
		p.Mode = m
		l.profiles[m] = p
	}
	if l.renderer == nil {
		l.renderer = nopRenderer{}
	}
	if l.scheduler == nil {
		l.scheduler = TimerScheduler{}
	}
	if l.log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		l.log = quiet
	}
	return l
}

func (l *Loop) AddObserver(o Observer) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	l.observers = append(l.observers, o)
}

// SetSample stores the latest reading. Later calls overwrite earlier ones;
// samples with NaN or Inf components are dropped.
func (l *Loop) SetSample(a motion.AccelerationSample) {
	if !a.Valid() {
		return
	}
	l.sample.Store(&a)
}

// Sample returns the latest reading, if one has arrived.
func (l *Loop) Sample() (motion.AccelerationSample, bool) {
	a := l.sample.Load()
	if a == nil {
		return motion.AccelerationSample{}, false
	}
	return *a, true
}

// SwitchMode installs a mode's constants, body size and field geometry. A
// degenerate geometry is rejected here, once, and the previous mode stays
// active.
func (l *Loop) SwitchMode(m motion.Mode) error {
	l.mu.Lock()
	p, field, strategy, err := l.prepare(m)
	if err != nil {
		l.mu.Unlock()
		l.log.WithError(err).WithField("mode", m).Error("mode switch rejected")
		return err
	}
	l.install(p, field, strategy)
	l.mu.Unlock()

	l.pubMu.Lock()
	l.renderer.ApplyMode(m, p.Body, field)
	l.pubMu.Unlock()

	l.log.WithFields(logrus.Fields{
		"mode":  m,
		"body":  p.Body,
		"field": field.Size,
	}).Info("mode switched")
	return nil
}

// Resize recomputes the field geometry for the active mode.
func (l *Loop) Resize() error {
	l.mu.Lock()
	installed := l.strategy != nil
	m := l.ctx.Mode
	l.mu.Unlock()
	if !installed {
		return nil
	}
	return l.SwitchMode(m)
}

func (l *Loop) prepare(m motion.Mode) (motion.Profile, motion.FieldGeometry, motion.Strategy, error) {
	p, ok := l.profiles[m]
	if !ok {
		return p, motion.FieldGeometry{}, nil, fmt.Errorf("%w: %s", motion.ErrUnknownMode, m)
	}
	strategy, err := motion.StrategyFor(m)
	if err != nil {
		return p, motion.FieldGeometry{}, nil, err
	}
	if l.layout == nil {
		return p, motion.FieldGeometry{}, nil, fmt.Errorf("%w: no layout", motion.ErrDegenerateGeometry)
	}

	field := l.layout.Field()
	field.Attractor = nil
	if m == motion.Orbit {
		field = field.WithCenteredAttractor(p.AttractorSize)
	}
	if err := field.Validate(); err != nil {
		return p, field, nil, err
	}
	if err := motion.ValidateBody(p.Body); err != nil {
		return p, field, nil, err
	}
	return p, field, strategy, nil
}

func (l *Loop) install(p motion.Profile, field motion.FieldGeometry, strategy motion.Strategy) {
	l.ctx.Mode = p.Mode
	l.ctx.Config = p.Config
	l.ctx.Field = field
	l.ctx.State.Reset(p.Body, field)
	if p.Mode == motion.Orbit {
		l.ctx.Background.Offset = l.ctx.Background.Center(field)
	}
	l.strategy = strategy
}

func (l *Loop) Mode() motion.Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx.Mode
}

// Context returns a copy of the simulation context.
func (l *Loop) Context() motion.SimulationContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.ctx
	if c.Field.Attractor != nil {
		a := *c.Field.Attractor
		c.Field.Attractor = &a
	}
	return c
}

func (l *Loop) Ticks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Tick runs one simulation step. It reports false while idle: before the
// first sample arrives or before any mode is installed.
func (l *Loop) Tick() (Frame, bool) {
	l.mu.Lock()
	f, ok := l.step()
	l.mu.Unlock()
	if ok {
		l.publish(f)
	}
	return f, ok
}

func (l *Loop) step() (Frame, bool) {
	a := l.sample.Load()
	if a == nil || l.strategy == nil {
		return Frame{}, false
	}

	out := l.strategy.Step(&l.ctx, *a)
	l.ticks++

	st := l.ctx.State
	return Frame{
		Tick:       l.ticks,
		Mode:       l.ctx.Mode,
		Sample:     *a,
		Position:   st.Position,
		Velocity:   st.Velocity,
		Size:       st.Size,
		Background: l.ctx.Background.Offset,
		Contacts:   out.Contacts,
		StrongHit:  out.StrongHit,
		Front:      out.Front,
		Escaped:    out.Escaped,
	}, true
}

func (l *Loop) publish(f Frame) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()

	l.renderer.Render(f)
	for _, o := range l.observers {
		o.OnTick(f)
	}
	if f.StrongHit && l.haptic != nil {
		if err := l.haptic.Pulse(l.pulse); err != nil {
			l.log.WithError(err).Debug("haptic pulse dropped")
		}
	}
}

// Start begins self-rescheduling ticks at the loop interval.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.reschedule()
	l.log.WithField("interval", l.interval).Debug("loop started")
}

// Pause cancels the pending tick. Resume picks up with the same state.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.pending != nil {
		l.pending.Cancel()
		l.pending = nil
	}
	l.log.Debug("loop paused")
}

func (l *Loop) Resume() { l.Start() }

func (l *Loop) Stop() { l.Pause() }

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// reschedule cancels whatever is pending before scheduling the next tick,
// so at most one tick is ever pending.
func (l *Loop) reschedule() {
	if l.pending != nil {
		l.pending.Cancel()
	}
	l.gen++
	gen := l.gen
	l.pending = l.scheduler.After(l.interval, func() { l.fire(gen) })
}

func (l *Loop) fire(gen uint64) {
	l.mu.Lock()
	if !l.running || gen != l.gen {
		l.mu.Unlock()
		return
	}
	f, ok := l.step()
	l.reschedule()
	l.mu.Unlock()

	if ok {
		l.publish(f)
	}
}

// Run drives the loop synchronously from a sample source, one sample per
// tick, without the scheduler. It returns the number of ticks run; a source
// that ends with io.EOF ends the run early without error.
func (l *Loop) Run(ctx context.Context, src sensor.Source, ticks int) (int, error) {
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}

		a, err := src.Next()
		if errors.Is(err, io.EOF) {
			return i, nil
		}
		if err != nil {
			return i, fmt.Errorf("tick %d: %w", i, err)
		}
		l.SetSample(a)
		l.Tick()
	}
	return ticks, nil
}
