// Package quotes rotates the short quotes shown on the sign-in and library
// pages.
package quotes

import (
	"sync"
	"time"
)

// DefaultInterval is how long each quote stays up.
const DefaultInterval = 8 * time.Second

// Quote is one attributed line.
type Quote struct {
	Text   string
	Author string
}

// All is the built-in quote list.
var All = []Quote{
	{"A well-organized document is a well-organized mind.", "Unknown"},
	{"Order is the shape upon which beauty depends.", "Pearl S. Buck"},
	{"For every minute spent organizing, an hour is earned.", "Benjamin Franklin"},
	{"The secret of getting ahead is getting started.", "Mark Twain"},
	{"Simplicity is the ultimate sophistication.", "Leonardo da Vinci"},
}

// Rotator advances through a quote list on a ticker it owns.
type Rotator struct {
	quotes   []Quote
	interval time.Duration

	mu     sync.Mutex
	index  int
	ticker *time.Ticker
	done   chan struct{}
}

// NewRotator creates a stopped rotator over quotes.
func NewRotator(quotes []Quote, interval time.Duration) *Rotator {
	if len(quotes) == 0 {
		quotes = All
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{quotes: quotes, interval: interval}
}

// Current returns the quote on display.
func (r *Rotator) Current() Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quotes[r.index]
}

// Next advances to the following quote, wrapping at the end.
func (r *Rotator) Next() Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = (r.index + 1) % len(r.quotes)
	return r.quotes[r.index]
}

// Start advances every interval and passes each new quote to fn. Starting a
// running rotator does nothing.
func (r *Rotator) Start(fn func(Quote)) {
	r.mu.Lock()
	if r.ticker != nil {
		r.mu.Unlock()
		return
	}
	ticker := time.NewTicker(r.interval)
	done := make(chan struct{})
	r.ticker = ticker
	r.done = done
	r.mu.Unlock()

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				q := r.Next()
				if fn != nil {
					fn(q)
				}
			}
		}
	}()
}

// Stop halts the ticker. The rotator can be started again.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.done)
	r.ticker = nil
	r.done = nil
}
