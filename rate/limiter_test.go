package rate

import (
	"testing"
	"time"
)

func TestCheckRefillsOverTime(t *testing.T) {
	interval := 10 * time.Millisecond
	l := NewLimiter(1, 100, Every(interval))

	const id = "10.0.0.1"

	steps := []struct {
		allow bool
		wait  time.Duration
	}{
		{true, time.Millisecond},  // bucket drained
		{false, interval},         // too soon
		{true, interval},          // refilled
		{true, time.Millisecond},  // refilled again
		{false, time.Millisecond}, // drained
		{false, 0},
	}
	for i, s := range steps {
		if got := l.Check(id); got != s.allow {
			t.Fatalf("step %d: Check() = %v, want %v", i, got, s.allow)
		}
		time.Sleep(s.wait)
	}
}

func TestCheckBurst(t *testing.T) {
	const burst = 10
	l := NewLimiter(burst, 100, Every(100*time.Millisecond))

	const id = "10.0.0.2"

	for i := 0; i < burst; i++ {
		if !l.Check(id) {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	if l.Check(id) {
		t.Fatal("request beyond burst was allowed")
	}
}

func TestCheckTracksClientsSeparately(t *testing.T) {
	l := NewLimiter(1, 100, Every(time.Minute))

	if !l.Check("10.0.0.3") {
		t.Fatal("first client denied")
	}
	if l.Check("10.0.0.3") {
		t.Fatal("drained client allowed")
	}
	if !l.Check("10.0.0.4") {
		t.Fatal("fresh client denied")
	}
}
