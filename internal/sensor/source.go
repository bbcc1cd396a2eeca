// Package sensor provides acceleration sources that stand in for a device
// accelerometer.
package sensor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/san-kum/tiltsim/internal/motion"
)

// Source yields acceleration samples. Finite sources return io.EOF when
// exhausted.
type Source interface {
	Next() (motion.AccelerationSample, error)
}

// Still always reports the same reading.
type Still motion.AccelerationSample

func (s Still) Next() (motion.AccelerationSample, error) {
	return motion.AccelerationSample(s), nil
}

// Synthetic wobbles the device around a resting pose. Each call advances
// its phase by one step, so runs are reproducible.
type Synthetic struct {
	Amplitude float64
	Period    int
	Rest      motion.AccelerationSample

	step int
}

func NewSynthetic(amplitude float64, period int) *Synthetic {
	if period <= 0 {
		period = 100
	}
	return &Synthetic{Amplitude: amplitude, Period: period}
}

func (s *Synthetic) Next() (motion.AccelerationSample, error) {
	phase := 2 * math.Pi * float64(s.step) / float64(s.Period)
	s.step++
	return motion.AccelerationSample{
		X: s.Rest.X + s.Amplitude*math.Sin(phase),
		Y: s.Rest.Y + s.Amplitude*0.5*math.Sin(phase*0.5),
		Z: s.Rest.Z + s.Amplitude*math.Cos(phase*0.7),
	}, nil
}

// Keyboard holds a tilt set by key presses. It is safe for concurrent use.
type Keyboard struct {
	mu   sync.Mutex
	tilt motion.AccelerationSample
	Step float64
	Max  float64
}

func NewKeyboard() *Keyboard {
	return &Keyboard{Step: 1, Max: 10}
}

// Nudge tilts the device by dx on the x axis and dz on the z axis.
func (k *Keyboard) Nudge(dx, dz float64) motion.AccelerationSample {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tilt.X = clamp(k.tilt.X+dx*k.Step, k.Max)
	k.tilt.Z = clamp(k.tilt.Z+dz*k.Step, k.Max)
	return k.tilt
}

// Level returns the device to flat.
func (k *Keyboard) Level() motion.AccelerationSample {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tilt = motion.AccelerationSample{}
	return k.tilt
}

func (k *Keyboard) Next() (motion.AccelerationSample, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tilt, nil
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

// Pump delivers a sample from src to sink every interval until ctx is done
// or src fails. It mimics an event-driven sensor feeding the loop.
func Pump(ctx context.Context, src Source, interval time.Duration, sink func(motion.AccelerationSample)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a, err := src.Next()
			if err != nil {
				return err
			}
			sink(a)
		}
	}
}
