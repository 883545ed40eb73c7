package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pilot-net/spot-console/console/internal/client"
)

// ErrBackendUnavailable is returned for a poll skipped while the breaker is
// open.
var ErrBackendUnavailable = errors.New("backend unavailable, polling paused")

// breaker stops hammering an unreachable backend. Only transport failures
// count; a backend that answers with an error is reachable.
type breaker struct {
	cb *gobreaker.CircuitBreaker
}

func newBreaker(failures uint32, openTimeout time.Duration, logger *slog.Logger) *breaker {
	if failures == 0 {
		failures = 3
	}
	if openTimeout <= 0 {
		openTimeout = 60 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !client.IsTransport(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breaker) do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBackendUnavailable
	}
	return err
}

func (b *breaker) state() string {
	return b.cb.State().String()
}
