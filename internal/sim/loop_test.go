package sim_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tiltsim/internal/motion"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/sim"
)

type recordingRenderer struct {
	mu     sync.Mutex
	modes  []motion.Mode
	bodies []mgl64.Vec2
	frames []sim.Frame
}

func (r *recordingRenderer) ApplyMode(m motion.Mode, body mgl64.Vec2, _ motion.FieldGeometry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, m)
	r.bodies = append(r.bodies, body)
}

func (r *recordingRenderer) Render(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

type fakeHaptic struct {
	pulses []time.Duration
	err    error
}

func (h *fakeHaptic) Pulse(d time.Duration) error {
	h.pulses = append(h.pulses, d)
	return h.err
}

type frameCounter struct{ n int }

func (c *frameCounter) OnTick(sim.Frame) { c.n++ }

func nan() float64 { return math.NaN() }

var field = motion.FieldGeometry{Size: mgl64.Vec2{720, 1200}, Background: mgl64.Vec2{1000, 1400}}

var _ = Describe("Loop", func() {
	var (
		renderer  *recordingRenderer
		buzz      *fakeHaptic
		scheduler *sim.ManualScheduler
		layout    motion.FieldGeometry
		loop      *sim.Loop
	)

	BeforeEach(func() {
		renderer = &recordingRenderer{}
		buzz = &fakeHaptic{}
		scheduler = sim.NewManualScheduler()
		layout = field
		loop = sim.New(sim.Options{
			Layout:    sim.LayoutFunc(func() motion.FieldGeometry { return layout }),
			Renderer:  renderer,
			Haptic:    buzz,
			Scheduler: scheduler,
		})
	})

	Describe("idle ticks", func() {
		It("does nothing before a mode is installed", func() {
			loop.SetSample(motion.AccelerationSample{X: 1})
			_, ok := loop.Tick()
			Expect(ok).To(BeFalse())
		})

		It("does nothing before the first sample", func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			_, ok := loop.Tick()
			Expect(ok).To(BeFalse())
			Expect(renderer.frames).To(BeEmpty())
		})

		It("reuses the last sample on later ticks", func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			loop.SetSample(motion.AccelerationSample{X: 2})
			loop.Tick()
			f, ok := loop.Tick()
			Expect(ok).To(BeTrue())
			Expect(f.Sample.X).To(Equal(2.0))
			Expect(f.Tick).To(Equal(2))
		})
	})

	Describe("sample slot", func() {
		It("keeps only the latest sample", func() {
			loop.SetSample(motion.AccelerationSample{X: 1})
			loop.SetSample(motion.AccelerationSample{X: 3})
			a, ok := loop.Sample()
			Expect(ok).To(BeTrue())
			Expect(a.X).To(Equal(3.0))
		})

		It("drops non-finite samples", func() {
			loop.SetSample(motion.AccelerationSample{X: 1})
			loop.SetSample(motion.AccelerationSample{X: nan()})
			a, _ := loop.Sample()
			Expect(a.X).To(Equal(1.0))
		})
	})

	Describe("mode switching", func() {
		It("tells the renderer about the new body", func() {
			Expect(loop.SwitchMode(motion.Float)).To(Succeed())
			Expect(renderer.modes).To(Equal([]motion.Mode{motion.Float}))
			Expect(renderer.bodies[0]).To(Equal(mgl64.Vec2{100, 100}))
		})

		It("restores roll constants after a trip through orbit", func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			before := loop.Context().Config

			Expect(loop.SwitchMode(motion.Orbit)).To(Succeed())
			Expect(loop.Context().Config).NotTo(Equal(before))

			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			Expect(loop.Context().Config).To(Equal(before))
			Expect(loop.Context().Field.Attractor).To(BeNil())
		})

		It("centres the attractor in orbit mode", func() {
			Expect(loop.SwitchMode(motion.Orbit)).To(Succeed())
			a := loop.Context().Field.Attractor
			Expect(a).NotTo(BeNil())
			Expect(a.Center()).To(Equal(mgl64.Vec2{360, 600}))
		})

		It("rejects a degenerate field once and keeps the previous mode", func() {
			Expect(loop.SwitchMode(motion.Float)).To(Succeed())
			layout = motion.FieldGeometry{Size: mgl64.Vec2{0, 0}}

			err := loop.SwitchMode(motion.Orbit)
			Expect(errors.Is(err, motion.ErrDegenerateGeometry)).To(BeTrue())
			Expect(loop.Mode()).To(Equal(motion.Float))
			Expect(loop.Context().Field.Size).To(Equal(field.Size))
		})

		It("picks up a new layout on resize", func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			layout = motion.FieldGeometry{Size: mgl64.Vec2{400, 800}}
			Expect(loop.Resize()).To(Succeed())
			Expect(loop.Context().Field.Size).To(Equal(mgl64.Vec2{400, 800}))
		})
	})

	Describe("scheduling", func() {
		BeforeEach(func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			loop.SetSample(motion.AccelerationSample{X: 0.5, Z: 1})
		})

		It("ticks once per interval with a single pending task", func() {
			loop.Start()
			Expect(scheduler.Pending()).To(Equal(1))

			for i := 0; i < 5; i++ {
				scheduler.Advance(sim.DefaultInterval)
				Expect(scheduler.Pending()).To(Equal(1))
			}
			Expect(loop.Ticks()).To(Equal(5))
		})

		It("does not double-schedule when started twice", func() {
			loop.Start()
			loop.Start()
			Expect(scheduler.Pending()).To(Equal(1))
		})

		It("stops ticking while paused and resumes afterwards", func() {
			loop.Start()
			scheduler.Advance(2 * sim.DefaultInterval)
			loop.Pause()
			Expect(scheduler.Pending()).To(Equal(0))

			scheduler.Advance(10 * sim.DefaultInterval)
			Expect(loop.Ticks()).To(Equal(2))

			loop.Resume()
			scheduler.Advance(sim.DefaultInterval)
			Expect(loop.Ticks()).To(Equal(3))
			Expect(loop.Running()).To(BeTrue())
		})

		It("forwards every frame to observers", func() {
			counter := &frameCounter{}
			loop.AddObserver(counter)
			loop.Start()
			scheduler.Advance(3 * sim.DefaultInterval)
			Expect(counter.n).To(Equal(3))
			Expect(renderer.frames).To(HaveLen(3))
		})
	})

	Describe("haptic feedback", func() {
		It("pulses once for a fresh wall hit", func() {
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			loop.SetSample(motion.AccelerationSample{X: -10})

			hits := 0
			for i := 0; i < 40; i++ {
				f, _ := loop.Tick()
				if f.StrongHit {
					hits++
				}
			}
			Expect(hits).To(BeNumerically(">=", 1))
			Expect(buzz.pulses).To(HaveLen(hits))
			Expect(buzz.pulses[0]).To(Equal(sim.DefaultPulseDuration))
		})

		It("keeps ticking when the device fails", func() {
			buzz.err = errors.New("no motor")
			Expect(loop.SwitchMode(motion.Roll)).To(Succeed())
			loop.SetSample(motion.AccelerationSample{X: -10})
			for i := 0; i < 40; i++ {
				loop.Tick()
			}
			Expect(loop.Ticks()).To(Equal(40))
		})
	})

	Describe("headless run", func() {
		It("stops at the end of a finite source", func() {
			Expect(loop.SwitchMode(motion.Float)).To(Succeed())
			src := sensor.NewReplay([]motion.AccelerationSample{{X: 1}, {X: 2}, {X: 3}}, false)

			n, err := loop.Run(context.Background(), src, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))
			Expect(loop.Ticks()).To(Equal(3))
		})

		It("honours cancellation", func() {
			Expect(loop.SwitchMode(motion.Float)).To(Succeed())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			n, err := loop.Run(ctx, sensor.Still{}, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(n).To(Equal(0))
		})

		It("keeps orbit speed under the cap", func() {
			Expect(loop.SwitchMode(motion.Orbit)).To(Succeed())
			_, err := loop.Run(context.Background(), sensor.NewSynthetic(4, 60), 1000)
			Expect(err).NotTo(HaveOccurred())
			for _, f := range renderer.frames {
				Expect(f.Speed()).To(BeNumerically("<=", motion.DefaultMaxSpeed+1e-9))
			}
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs one trial per mode", func() {
		build := func(m motion.Mode) (sim.Trial, error) {
			l := sim.New(sim.Options{Layout: sim.FixedLayout(field), Scheduler: sim.NewManualScheduler()})
			if err := l.SwitchMode(m); err != nil {
				return sim.Trial{}, err
			}
			return sim.Trial{Mode: m, Loop: l, Source: sensor.NewSynthetic(2, 80)}, nil
		}

		results, err := sim.NewEnsemble(motion.Modes(), build).Run(context.Background(), 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for i, r := range results {
			Expect(r.Mode).To(Equal(motion.Modes()[i]))
			Expect(r.Ticks).To(Equal(200))
			Expect(r.Final.State.IsValid()).To(BeTrue())
		}
	})
})
