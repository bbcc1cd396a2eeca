// Package haptic provides stand-ins for a vibration motor. A pulse is
// cosmetic: callers fire it and forget it, and Guard makes sure no failure
// ever reaches them.
package haptic

import (
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

var ErrUnsupported = errors.New("haptic: device not supported")

// Pulser fires a vibration of a fixed duration.
type Pulser interface {
	Pulse(d time.Duration) error
}

// Nop discards every pulse.
type Nop struct{}

func (Nop) Pulse(time.Duration) error { return nil }

// Unsupported models a platform without a vibration motor.
type Unsupported struct{}

func (Unsupported) Pulse(time.Duration) error { return ErrUnsupported }

// Bell rings the terminal bell.
type Bell struct {
	W io.Writer
}

func (b Bell) Pulse(time.Duration) error {
	if b.W == nil {
		return ErrUnsupported
	}
	_, err := b.W.Write([]byte{'\a'})
	return err
}

const (
	sampleRate = beep.SampleRate(44100)
	toneHz     = 110
)

// Beep plays a short low tone through the speaker for the pulse duration.
// The speaker is opened lazily on the first pulse.
type Beep struct {
	mu     sync.Mutex
	ready  bool
	err    error
	Volume float64
}

func NewBeep() *Beep {
	return &Beep{Volume: 0.5}
}

func (b *Beep) init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready || b.err != nil {
		return b.err
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/20)); err != nil {
		b.err = errors.Join(ErrUnsupported, err)
		return b.err
	}
	b.ready = true
	return nil
}

func (b *Beep) Pulse(d time.Duration) error {
	if err := b.init(); err != nil {
		return err
	}
	tone, err := generators.SineTone(sampleRate, toneHz)
	if err != nil {
		return err
	}
	speaker.Play(volume(beep.Take(sampleRate.N(d), tone), b.Volume))
	return nil
}

func (b *Beep) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		speaker.Close()
		b.ready = false
	}
}

func volume(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	// 0 is unity gain; each step down halves the amplitude.
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}
