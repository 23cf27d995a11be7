package resilience

import "time"

// Policy decides how often a read is attempted and when an endpoint is
// considered down. Zero fields take the values of DefaultPolicy.
type Policy struct {
	Attempts int
	Backoff  Backoff
	Breaker  Breaker
}

// Backoff is a capped exponential delay between attempts.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// Delay returns the wait before the retry that follows the given attempt
// (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 1; i < attempt && d < b.Max; i++ {
		d = time.Duration(float64(d) * b.Factor)
	}
	return min(d, b.Max)
}

// Breaker trips an endpoint after too many of its reads failed.
type Breaker struct {
	Enabled      bool
	MinRequests  uint32        // reads seen before the ratio is trusted
	FailureRatio float64       // share of failed reads that trips the breaker
	Cooldown     time.Duration // how long an endpoint stays tripped
	Probes       uint32        // reads let through while recovering
}

// DefaultPolicy suits an interactive client: three quick attempts, and an
// endpoint is given up on for a short while after a burst of failed reads.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff: Backoff{
			Initial: 200 * time.Millisecond,
			Max:     2 * time.Second,
			Factor:  2,
		},
		Breaker: Breaker{
			Enabled:      true,
			MinRequests:  5,
			FailureRatio: 0.6,
			Cooldown:     15 * time.Second,
			Probes:       1,
		},
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()

	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Backoff.Initial <= 0 {
		p.Backoff.Initial = def.Backoff.Initial
	}
	if p.Backoff.Max <= 0 {
		p.Backoff.Max = def.Backoff.Max
	}
	p.Backoff.Max = max(p.Backoff.Max, p.Backoff.Initial)
	if p.Backoff.Factor < 1 {
		p.Backoff.Factor = def.Backoff.Factor
	}

	if p.Breaker.MinRequests == 0 {
		p.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if p.Breaker.FailureRatio <= 0 || p.Breaker.FailureRatio > 1 {
		p.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if p.Breaker.Cooldown <= 0 {
		p.Breaker.Cooldown = def.Breaker.Cooldown
	}
	if p.Breaker.Probes == 0 {
		p.Breaker.Probes = def.Breaker.Probes
	}
	return p
}
