// SPDX-License-Identifier: EPL-2.0

package fader

import (
	"math"
	"time"
)

// State of a Fader.
type State int

const (
	// Inactive faders do not drive their parameter.
	Inactive State = iota
	// Fading interpolates linearly from start to target over a window.
	Fading
	// Oscillating swings between two values with a sine of a fixed period.
	Oscillating
	// Completed is reported by the first query that reaches the end of a
	// fade. The fader stops driving its parameter; the state is kept until
	// Stop so schedulers can react to it once.
	Completed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Fading:
		return "fading"
	case Oscillating:
		return "oscillating"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Fader drives one scalar parameter over time. The zero value is inactive.
// Times are positions on the owner's clock (a voice's stream time or the
// engine's), not wall-clock time.
type Fader struct {
	state    State
	from     float32
	to       float32
	current  float32
	start    time.Duration
	duration time.Duration
}

// Fade starts a linear fade from -> to lasting duration, beginning at now.
// Any fade or oscillation in progress is discarded; callers pass the
// parameter's present value as from so a superseding fade never jumps.
func (f *Fader) Fade(from, to float32, duration, now time.Duration) {
	*f = Fader{
		state:    Fading,
		from:     from,
		to:       to,
		current:  from,
		start:    now,
		duration: max(duration, 0),
	}
}

// Oscillate swings the parameter between from and to with the given period,
// starting at from at time now.
func (f *Fader) Oscillate(from, to float32, period, now time.Duration) {
	*f = Fader{
		state:    Oscillating,
		from:     from,
		to:       to,
		current:  from,
		start:    now,
		duration: period,
	}
}

// Stop deactivates the fader. The parameter keeps whatever value it has.
func (f *Fader) Stop() {
	f.state = Inactive
}

// State reports the current state.
func (f *Fader) State() State { return f.state }

// Active reports whether the fader still drives its parameter.
func (f *Fader) Active() bool {
	return f.state == Fading || f.state == Oscillating
}

// Target is the value a fade ends on.
func (f *Fader) Target() float32 { return f.to }

// Value computes the parameter at time now and advances the state machine.
// Once now reaches the end of a fade the fader pins to its target and moves
// to Completed. For an inactive or completed fader Value returns the last
// computed value.
func (f *Fader) Value(now time.Duration) float32 {
	switch f.state {
	case Fading:
		if now < f.start {
			// The clock went backwards (stream rewound); restart the
			// remaining part of the fade from where we are.
			f.rebase(now)
		}

		elapsed := now - f.start
		if elapsed >= f.duration {
			f.current = f.to
			f.state = Completed
			return f.current
		}

		p := float64(elapsed) / float64(f.duration)
		f.current = f.from + (f.to-f.from)*float32(p)

	case Oscillating:
		if now < f.start {
			f.start = now
		}
		if f.duration <= 0 {
			f.current = f.from
			return f.current
		}

		// Starts at from, peaks at to half a period later
		phase := 2 * math.Pi * float64(now-f.start) / float64(f.duration)
		mid := (f.from + f.to) / 2
		amp := (f.from - f.to) / 2
		f.current = mid + amp*float32(math.Cos(phase))
	}

	return f.current
}

func (f *Fader) rebase(now time.Duration) {
	var done float64
	if f.to != f.from {
		done = float64((f.current - f.from) / (f.to - f.from))
	}
	remaining := time.Duration(float64(f.duration) * (1 - done))

	f.from = f.current
	f.start = now
	f.duration = max(remaining, 0)
}
