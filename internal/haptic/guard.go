package haptic

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// GuardSettings tune how quickly a failing device is given up on.
type GuardSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

func DefaultGuardSettings() GuardSettings {
	return GuardSettings{MaxFailures: 3, Cooldown: 30 * time.Second}
}

// Guard wraps a Pulser in a circuit breaker. Pulse never returns an error:
// failures are counted, and after MaxFailures consecutive ones the device is
// left alone until Cooldown has passed.
type Guard struct {
	next    Pulser
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

func NewGuard(next Pulser, s GuardSettings, log logrus.FieldLogger) *Guard {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultGuardSettings().MaxFailures
	}

	g := &Guard{next: next, log: log}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "haptic",
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("haptic breaker state changed")
		},
	})
	return g
}

func (g *Guard) Pulse(d time.Duration) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.next.Pulse(d)
	})
	if err != nil {
		g.log.WithError(err).Debug("haptic pulse failed")
	}
	return nil
}

// Open reports whether pulses are currently being skipped.
func (g *Guard) Open() bool {
	return g.breaker.State() == gobreaker.StateOpen
}

func (g *Guard) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}
