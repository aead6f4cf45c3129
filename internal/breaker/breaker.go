// Package breaker guards remote calls with a circuit breaker. It never
// retries: a call either runs once or fails fast while the circuit is open.
package breaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/translore/internal/logger"
)

// ErrOpen is returned while the circuit is open.
var ErrOpen = errors.New("circuit open: remote service temporarily unavailable")

// Settings tunes a Breaker. Zero values fall back to the defaults below.
type Settings struct {
	// ConsecutiveFailures opens the circuit once reached.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe call.
	OpenTimeout time.Duration
	// IsSuccessful reports errors that should not count as failures,
	// e.g. a "not found" answer from a healthy service.
	IsSuccessful func(err error) bool
}

const (
	defaultFailures = 5
	defaultTimeout  = 30 * time.Second
)

type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func New(name string, s Settings, log *logger.Logger) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultFailures
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	failures := s.ConsecutiveFailures
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	if s.IsSuccessful != nil {
		st.IsSuccessful = s.IsSuccessful
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Execute runs fn unless the circuit is open.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", b.cb.Name(), ErrOpen)
	}
	return v, err
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
