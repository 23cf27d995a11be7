package quotes

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestNextWraps(t *testing.T) {
	r := NewRotator([]Quote{{"a", "x"}, {"b", "y"}}, time.Hour)

	if r.Current().Text != "a" {
		t.Fatalf("Current() = %q", r.Current().Text)
	}
	if r.Next().Text != "b" || r.Next().Text != "a" {
		t.Error("Next() did not wrap")
	}
}

func TestDefaults(t *testing.T) {
	r := NewRotator(nil, 0)
	if r.interval != DefaultInterval {
		t.Errorf("interval = %v", r.interval)
	}
	if r.Current() != All[0] {
		t.Errorf("Current() = %+v", r.Current())
	}
}

func TestStartStop(t *testing.T) {
	r := NewRotator(nil, 10*time.Millisecond)

	var ticks atomic.Int32
	r.Start(func(Quote) { ticks.Add(1) })
	r.Start(func(Quote) { t.Error("second Start replaced the callback") })
	time.Sleep(55 * time.Millisecond)
	r.Stop()

	seen := ticks.Load()
	if seen < 2 {
		t.Fatalf("ticks = %d, want at least 2", seen)
	}
	time.Sleep(40 * time.Millisecond)
	if ticks.Load() > seen+1 {
		t.Errorf("ticks continued after Stop: %d -> %d", seen, ticks.Load())
	}
	r.Stop()
}
