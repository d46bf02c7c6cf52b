// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"time"
)

// Fades run on each voice's stream time, so a paused voice's fades stand
// still with it. A fade starts from the parameter's present value and a
// non-positive duration sets the target at once. NaN and infinite targets
// are ignored.

// FadeVolume fades the volume to target over d.
func (e *Engine) FadeVolume(h Handle, target float32, d time.Duration) {
	if !finite32(target) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		if d <= 0 {
			v.volumeFader.Stop()
			v.volume = target
			e.updateOverall(v)
			continue
		}
		now := v.clock(e.sampleRate)
		e.syncVolume(v, now)
		v.volumeFader.Fade(v.volume, target, d, now)
	}
}

// FadePan fades the pan to target over d.
func (e *Engine) FadePan(h Handle, target float32, d time.Duration) {
	if !finite32(target) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		if d <= 0 {
			v.panFader.Stop()
			v.setPan(target)
			continue
		}
		now := v.clock(e.sampleRate)
		syncPan(v, now)
		v.panFader.Fade(v.pan, target, d, now)
	}
}

// FadeRelativePlaySpeed fades the relative speed to target over d.
func (e *Engine) FadeRelativePlaySpeed(h Handle, target float32, d time.Duration) error {
	if !(target > 0) || !finite32(target) {
		return fmt.Errorf("%w: relative play speed %v", ErrInvalidParameter, target)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		if d <= 0 {
			v.speedFader.Stop()
			v.relSpeed = target
			continue
		}
		now := v.clock(e.sampleRate)
		syncSpeed(v, now)
		v.speedFader.Fade(v.relSpeed, target, d, now)
	}

	return nil
}

// FadeGlobalVolume fades the gain of the whole mix over d of output time.
func (e *Engine) FadeGlobalVolume(target float32, d time.Duration) {
	if !finite32(target) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	if d <= 0 {
		e.globalFader.Stop()
		e.globalVolume = target
		return
	}
	e.syncGlobal()
	e.globalFader.Fade(e.globalVolume, target, d, e.now())
}

// OscillateVolume swings the volume between from and to with the given
// period until another volume change replaces it.
func (e *Engine) OscillateVolume(h Handle, from, to float32, period time.Duration) {
	if !finite32(from) || !finite32(to) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.volumeFader.Oscillate(from, to, period, v.clock(e.sampleRate))
	}
}

// OscillatePan swings the pan between from and to.
func (e *Engine) OscillatePan(h Handle, from, to float32, period time.Duration) {
	if !finite32(from) || !finite32(to) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.panFader.Oscillate(from, to, period, v.clock(e.sampleRate))
	}
}

// OscillateRelativePlaySpeed swings the relative speed between from and
// to, both of which must be positive.
func (e *Engine) OscillateRelativePlaySpeed(h Handle, from, to float32, period time.Duration) error {
	if !(from > 0) || !(to > 0) || !finite32(from) || !finite32(to) {
		return fmt.Errorf("%w: relative play speed range [%v, %v]", ErrInvalidParameter, from, to)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.speedFader.Oscillate(from, to, period, v.clock(e.sampleRate))
	}

	return nil
}

// OscillateGlobalVolume swings the gain of the whole mix.
func (e *Engine) OscillateGlobalVolume(from, to float32, period time.Duration) {
	if !finite32(from) || !finite32(to) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.globalFader.Oscillate(from, to, period, e.now())
}

// SchedulePause pauses the voice once it has played for another d.
func (e *Engine) SchedulePause(h Handle, d time.Duration) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.pauseAt.Fade(0, 1, d, v.clock(e.sampleRate))
	}
}

// ScheduleStop stops the voice once it has played for another d, even when
// protected.
func (e *Engine) ScheduleStop(h Handle, d time.Duration) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.stopAt.Fade(0, 1, d, v.clock(e.sampleRate))
	}
}

// advanceFaders applies every fader of v at its current stream time. It
// reports false when a scheduled stop fired and the voice must be freed.
func (e *Engine) advanceFaders(v *voice) bool {
	now := v.clock(e.sampleRate)

	e.syncVolume(v, now)
	syncPan(v, now)
	syncSpeed(v, now)

	if v.pauseAt.Active() {
		v.pauseAt.Value(now)
		if !v.pauseAt.Active() {
			v.pauseAt.Stop()
			v.set(flagPaused, true)
		}
	}

	if v.stopAt.Active() {
		v.stopAt.Value(now)
		if !v.stopAt.Active() {
			return false
		}
	}

	return true
}

// The sync helpers write a running fader's value at now back into its
// parameter. Getters use them too, so a query between mix cycles sees the
// value at the voice's current stream time.

func (e *Engine) syncVolume(v *voice, now time.Duration) {
	if !v.volumeFader.Active() {
		return
	}

	v.volume = v.volumeFader.Value(now)
	if !v.volumeFader.Active() {
		v.volumeFader.Stop()
	}
	e.updateOverall(v)
}

func syncPan(v *voice, now time.Duration) {
	if !v.panFader.Active() {
		return
	}

	v.setPan(v.panFader.Value(now))
	if !v.panFader.Active() {
		v.panFader.Stop()
	}
}

func syncSpeed(v *voice, now time.Duration) {
	if !v.speedFader.Active() {
		return
	}

	v.relSpeed = max(v.speedFader.Value(now), minSpeed)
	if !v.speedFader.Active() {
		v.speedFader.Stop()
	}
}

func (e *Engine) syncGlobal() {
	if !e.globalFader.Active() {
		return
	}

	e.globalVolume = e.globalFader.Value(e.now())
	if !e.globalFader.Active() {
		e.globalFader.Stop()
	}
}

// minSpeed keeps fades and oscillations from stalling a voice.
const minSpeed = 1.0 / 64
