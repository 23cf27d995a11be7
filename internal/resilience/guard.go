// Package resilience retries idempotent reads against the service and stops
// calling an endpoint that keeps failing.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict is how a failed read is treated.
type Verdict int

const (
	// Answered means the service replied, even if with an error. The read is
	// neither retried nor held against the endpoint.
	Answered Verdict = iota
	// Broken is an endpoint failure that another attempt will not fix.
	Broken
	// Transient is an endpoint failure worth another attempt.
	Transient
)

// Classifier assigns a Verdict to a read error.
type Classifier func(error) Verdict

// ErrUnavailable is returned without calling the endpoint while its breaker
// is open.
var ErrUnavailable = errors.New("endpoint temporarily unavailable")

// Guard runs reads with retries and one breaker per endpoint.
type Guard struct {
	policy   Policy
	classify Classifier

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewGuard creates a Guard. A nil classify treats every error as Broken.
func NewGuard(policy Policy, classify Classifier) *Guard {
	if classify == nil {
		classify = func(error) Verdict { return Broken }
	}
	return &Guard{
		policy:   policy.withDefaults(),
		classify: classify,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Read calls fn until it succeeds, fails for good, or runs out of attempts.
func (g *Guard) Read(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	if !g.policy.Breaker.Enabled {
		return g.attempt(ctx, endpoint, fn)
	}

	_, err := g.breaker(endpoint).Execute(func() (struct{}, error) {
		return struct{}{}, g.attempt(ctx, endpoint, fn)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

func (g *Guard) attempt(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	var err error
	for n := 1; ; n++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if n >= g.policy.Attempts || g.classify(err) != Transient {
			return err
		}

		wait := g.policy.Backoff.Delay(n)
		slog.Debug("retrying read", "endpoint", endpoint, "attempt", n, "wait", wait, "error", err)
		if !sleep(ctx, wait) {
			return err
		}
	}
}

func (g *Guard) breaker(endpoint string) *gobreaker.CircuitBreaker[struct{}] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[endpoint]; ok {
		return cb
	}

	b := g.policy.Breaker
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: b.Probes,
		Timeout:     b.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= b.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= b.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || g.classify(err) == Answered
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("service endpoint availability changed", "endpoint", name, "from", from.String(), "to", to.String())
		},
	})
	g.breakers[endpoint] = cb
	return cb
}

// sleep waits for d or until ctx ends, reporting whether the full wait passed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
