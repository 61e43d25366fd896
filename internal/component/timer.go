package component

import "time"

// TimerMode selects what happens after a timer fires.
type TimerMode uint8

const (
	// OneShot timers stay fired until their owner consumes them.
	OneShot TimerMode = iota
	// Repeating timers are Reset by their system after each firing.
	Repeating
)

func (m TimerMode) String() string {
	if m == Repeating {
		return "repeating"
	}
	return "one-shot"
}

// Timer tracks elapsed against duration. Durations are integral nanoseconds,
// so many small ticks sum exactly to the same total as one large tick.
type Timer struct {
	Elapsed  time.Duration
	Duration time.Duration
	Mode     TimerMode
}

func NewTimer(d time.Duration, mode TimerMode) Timer {
	return Timer{Duration: d, Mode: mode}
}

// Advance adds dt to elapsed. Negative deltas are ignored.
func (t *Timer) Advance(dt time.Duration) {
	if dt > 0 {
		t.Elapsed += dt
	}
}

// Fired reports whether elapsed has reached duration.
func (t *Timer) Fired() bool { return t.Elapsed >= t.Duration }

// Reset rewinds elapsed to zero; overshoot is discarded.
func (t *Timer) Reset() { t.Elapsed = 0 }

// Remaining returns the time left before the timer fires, never negative.
func (t *Timer) Remaining() time.Duration {
	if t.Fired() {
		return 0
	}
	return t.Duration - t.Elapsed
}
