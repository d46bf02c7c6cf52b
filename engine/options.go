// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// VoiceInfo is what an AudibilityFunc sees of a voice.
type VoiceInfo struct {
	Handle      Handle
	Volume      float32
	Attenuation float32
	Protected   bool
	StreamTime  time.Duration
}

// AudibilityFunc scores how audible a voice is. The mixer keeps the highest
// scoring voices active and a full table evicts the lowest scoring one.
type AudibilityFunc func(VoiceInfo) float32

// DefaultAudibility scores a voice by its volume after distance attenuation.
func DefaultAudibility(v VoiceInfo) float32 {
	return v.Volume * v.Attenuation
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l.With().Str("component", "engine").Logger()
	}
}

// WithLocker replaces the mutex guarding engine state. Pass a lock shared
// with other code to serialize against it, or a no-op locker when every
// call comes from a single goroutine.
func WithLocker(l sync.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.gate = l
		}
	}
}

// WithAudibility replaces DefaultAudibility.
func WithAudibility(f AudibilityFunc) Option {
	return func(e *Engine) {
		if f != nil {
			e.audibility = f
		}
	}
}

type playOptions struct {
	volume    float32
	pan       float32
	paused    bool
	looping   bool
	protected bool
	delay     time.Duration
	tick      bool
	kill      bool
}

// PlayOption configures a voice as it starts.
type PlayOption func(*playOptions)

// Volume sets the initial volume. Default 1.
func Volume(v float32) PlayOption {
	return func(o *playOptions) { o.volume = v }
}

// Pan sets the initial pan in [-1, 1]. Default 0.
func Pan(p float32) PlayOption {
	return func(o *playOptions) { o.pan = p }
}

// Paused starts the voice paused.
func Paused() PlayOption {
	return func(o *playOptions) { o.paused = true }
}

// Looping restarts the source at its end.
func Looping() PlayOption {
	return func(o *playOptions) { o.looping = true }
}

// Protected keeps the voice from being evicted and keeps it alive after
// its source ends.
func Protected() PlayOption {
	return func(o *playOptions) { o.protected = true }
}

// Delay holds the voice silent for d before it starts.
func Delay(d time.Duration) PlayOption {
	return func(o *playOptions) { o.delay = d }
}

// InaudibleBehavior chooses what happens while the voice is under the
// inaudible threshold: tick keeps it mixed, kill stops it.
func InaudibleBehavior(tick, kill bool) PlayOption {
	return func(o *playOptions) {
		o.tick = tick
		o.kill = kill
	}
}
