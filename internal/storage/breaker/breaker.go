// Package breaker decorates the storage interfaces with a circuit breaker
// so a failing database degrades into fast ErrUnavailable responses instead
// of piling up blocked requests.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
)

// Config holds the circuit breaker tuning knobs.
type Config struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 5.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing probe
	// requests. Default: 15 seconds.
	Timeout time.Duration

	// HalfOpenMaxRequests is the number of probe requests allowed while
	// half-open. Default: 2.
	HalfOpenMaxRequests uint32
}

func (c Config) withDefaults() Config {
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.HalfOpenMaxRequests == 0 {
		c.HalfOpenMaxRequests = 2
	}
	return c
}

// Breaker is a shared circuit breaker for storage calls. One Breaker guards
// one backend: wrap both the entity and relation views with the same Breaker
// so a dead database trips a single circuit.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a Breaker with the given settings.
func New(name string, cfg Config) *Breaker {
	cfg = cfg.withDefaults()
	return &Breaker{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.HalfOpenMaxRequests,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
		}),
	}
}

// State returns the current circuit state: "closed", "open" or "half-open".
func (b *Breaker) State() string {
	switch b.cb.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// passthrough carries a domain error across gobreaker without counting it
// as a backend failure.
type passthrough struct {
	value interface{}
	err   error
}

// do runs fn through the circuit. Domain errors (not found, invalid input,
// conflict) and caller cancellation pass through without affecting the
// circuit; everything else counts as a backend failure. An open circuit
// maps to storage.ErrUnavailable.
func (b *Breaker) do(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err := b.cb.Execute(func() (interface{}, error) {
		v, err := fn()
		if err != nil && !countsAsFailure(err) {
			return passthrough{v, err}, nil
		}
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: storage circuit open", storage.ErrUnavailable)
		}
		return nil, err
	}
	if p, ok := v.(passthrough); ok {
		return p.value, p.err
	}
	return v, nil
}

func countsAsFailure(err error) bool {
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, storage.ErrConflict):
		return false
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
