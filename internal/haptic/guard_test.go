package haptic_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tiltsim/internal/haptic"
)

type countingPulser struct {
	calls int
	err   error
}

func (c *countingPulser) Pulse(time.Duration) error {
	c.calls++
	return c.err
}

var _ = Describe("Guard", func() {
	It("passes pulses through to a working device", func() {
		dev := &countingPulser{}
		g := haptic.NewGuard(dev, haptic.DefaultGuardSettings(), nil)

		Expect(g.Pulse(100 * time.Millisecond)).To(Succeed())
		Expect(g.Pulse(100 * time.Millisecond)).To(Succeed())
		Expect(dev.calls).To(Equal(2))
		Expect(g.Open()).To(BeFalse())
	})

	It("swallows device failures", func() {
		g := haptic.NewGuard(haptic.Unsupported{}, haptic.DefaultGuardSettings(), nil)
		Expect(g.Pulse(100 * time.Millisecond)).To(Succeed())
	})

	It("stops calling a device that keeps failing", func() {
		dev := &countingPulser{err: errors.New("motor stalled")}
		g := haptic.NewGuard(dev, haptic.GuardSettings{MaxFailures: 2, Cooldown: time.Hour}, nil)

		for i := 0; i < 10; i++ {
			Expect(g.Pulse(100 * time.Millisecond)).To(Succeed())
		}
		Expect(dev.calls).To(Equal(2))
		Expect(g.Open()).To(BeTrue())
	})
})

var _ = Describe("Bell", func() {
	It("writes a BEL byte", func() {
		var buf bytes.Buffer
		Expect(haptic.Bell{W: &buf}.Pulse(time.Millisecond)).To(Succeed())
		Expect(buf.Bytes()).To(Equal([]byte{'\a'}))
	})

	It("reports unsupported without a writer", func() {
		Expect(haptic.Bell{}.Pulse(time.Millisecond)).To(MatchError(haptic.ErrUnsupported))
	})
})
