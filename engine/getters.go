// SPDX-License-Identifier: EPL-2.0

package engine

import "time"

// Getters accept voice and group handles; a group reports on its first
// live member. Handles that do not resolve yield zero values.

// first resolves h to one live voice, nil when there is none.
func (e *Engine) first(h Handle) *voice {
	idx := e.expandHandle(h)
	if len(idx) == 0 {
		return nil
	}

	return e.voices[idx[0]]
}

// IsValid reports whether h still names a live voice.
func (e *Engine) IsValid(h Handle) bool {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.resolve(h) >= 0
}

// Volume is the voice volume at its current stream time.
func (e *Engine) Volume(h Handle) float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	v := e.first(h)
	if v == nil {
		return 0
	}
	e.syncVolume(v, v.clock(e.sampleRate))

	return v.volume
}

// OverallVolume is the volume after distance attenuation.
func (e *Engine) OverallVolume(h Handle) float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	v := e.first(h)
	if v == nil {
		return 0
	}
	e.syncVolume(v, v.clock(e.sampleRate))

	return v.overall
}

// Pan reports the pan.
func (e *Engine) Pan(h Handle) float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	v := e.first(h)
	if v == nil {
		return 0
	}
	syncPan(v, v.clock(e.sampleRate))

	return v.pan
}

// RelativePlaySpeed reports the speed multiplier.
func (e *Engine) RelativePlaySpeed(h Handle) float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	v := e.first(h)
	if v == nil {
		return 0
	}
	syncSpeed(v, v.clock(e.sampleRate))

	return v.relSpeed
}

// VoiceSampleRate is the rate the voice's source is interpreted at.
func (e *Engine) VoiceSampleRate(h Handle) float64 {
	e.gate.Lock()
	defer e.gate.Unlock()

	if v := e.first(h); v != nil {
		return v.baseRate
	}

	return 0
}

// Paused reports whether the voice is paused.
func (e *Engine) Paused(h Handle) bool {
	return e.flag(h, flagPaused)
}

// Looping reports whether the voice loops.
func (e *Engine) Looping(h Handle) bool {
	return e.flag(h, flagLooping)
}

// Protected reports whether the voice is protected.
func (e *Engine) Protected(h Handle) bool {
	return e.flag(h, flagProtected)
}

// Inaudible reports whether the voice is under the inaudible threshold.
func (e *Engine) Inaudible(h Handle) bool {
	return e.flag(h, flagInaudible)
}

func (e *Engine) flag(h Handle, f voiceFlag) bool {
	e.gate.Lock()
	defer e.gate.Unlock()

	v := e.first(h)

	return v != nil && v.has(f)
}

// StreamTime is how long the voice has been playing. Paused time does not
// count; delays and virtualised time do.
func (e *Engine) StreamTime(h Handle) time.Duration {
	e.gate.Lock()
	defer e.gate.Unlock()

	if v := e.first(h); v != nil {
		return v.clock(e.sampleRate)
	}

	return 0
}

// LoopCount is how many times the voice's source wrapped around.
func (e *Engine) LoopCount(h Handle) int {
	e.gate.Lock()
	defer e.gate.Unlock()

	if v := e.first(h); v != nil {
		return v.loop.loops
	}

	return 0
}

// VoiceCount is the number of live voices.
func (e *Engine) VoiceCount() int {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.count
}

// Capacity is the size of the voice table.
func (e *Engine) Capacity() int {
	return len(e.voices)
}

// ActiveVoiceCount is the number of voices the next mix cycle would mix.
func (e *Engine) ActiveVoiceCount() int {
	e.gate.Lock()
	defer e.gate.Unlock()

	return len(e.selectActive())
}

// MaxActiveVoiceCount is the active voice cap.
func (e *Engine) MaxActiveVoiceCount() int {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.maxActive
}

// GlobalVolume is the gain of the whole mix at the engine's current time.
func (e *Engine) GlobalVolume() float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	e.syncGlobal()

	return e.globalVolume
}

// PostClipScaler is the gain applied after clipping.
func (e *Engine) PostClipScaler() float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.postClipScaler
}

// ApproximateVolume is the peak of the given output channel over the last
// mixed block.
func (e *Engine) ApproximateVolume(channel int) float32 {
	e.gate.Lock()
	defer e.gate.Unlock()

	if channel < 0 || channel >= e.channels {
		return 0
	}

	return e.peak[channel]
}

// Time is the amount of output mixed so far.
func (e *Engine) Time() time.Duration {
	e.gate.Lock()
	defer e.gate.Unlock()

	return e.now()
}
