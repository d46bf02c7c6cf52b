// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Every per-voice setter accepts a voice handle, a group handle or
// AllVoices and silently ignores handles that no longer resolve. Setting a
// value directly stops any fader driving the same parameter. NaN and
// infinite values are ignored by setters that cannot report an error.

// SetVolume sets the voice volume.
func (e *Engine) SetVolume(h Handle, volume float32) {
	if !finite32(volume) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.volumeFader.Stop()
		v.volume = volume
		e.updateOverall(v)
	}
}

// SetPan sets the pan in [-1, 1], clamping values outside.
func (e *Engine) SetPan(h Handle, pan float32) {
	if math.IsNaN(float64(pan)) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.panFader.Stop()
		v.setPan(pan)
	}
}

// SetPanAbsolute sets the left and right gains directly, bypassing the pan
// law.
func (e *Engine) SetPanAbsolute(h Handle, left, right float32) {
	if !finite32(left) || !finite32(right) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.panFader.Stop()
		v.chanVol = [2]float32{left, right}
	}
}

// SetRelativePlaySpeed scales the playback rate. 2 plays an octave up.
func (e *Engine) SetRelativePlaySpeed(h Handle, speed float32) error {
	if !(speed > 0) || !finite32(speed) {
		return fmt.Errorf("%w: relative play speed %v", ErrInvalidParameter, speed)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.speedFader.Stop()
		v.relSpeed = speed
	}

	return nil
}

// SetSampleRate changes the rate a voice's source is interpreted at.
func (e *Engine) SetSampleRate(h Handle, rate float64) error {
	if !(rate > 0) || !finite(rate) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidParameter, rate)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].baseRate = rate
	}

	return nil
}

// SetPause pauses or resumes. A paused voice keeps its slot and its stream
// time stands still. Any scheduled pause is cancelled.
func (e *Engine) SetPause(h Handle, paused bool) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.pauseAt.Stop()
		v.set(flagPaused, paused)
	}
}

// SetPauseAll pauses or resumes every voice.
func (e *Engine) SetPauseAll(paused bool) {
	e.SetPause(AllVoices, paused)
}

// SetLooping makes the source restart at its end.
func (e *Engine) SetLooping(h Handle, looping bool) {
	e.set(h, flagLooping, looping)
}

// SetProtected shields a voice from eviction and from being retired at
// the end of its source.
func (e *Engine) SetProtected(h Handle, protected bool) {
	e.set(h, flagProtected, protected)
}

// SetInaudibleBehavior chooses what happens while a voice is under the
// inaudible threshold: tick keeps it mixed, kill stops it. With neither it
// is kept but not mixed.
func (e *Engine) SetInaudibleBehavior(h Handle, tick, kill bool) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		v := e.voices[i]
		v.set(flagInaudibleTick, tick)
		v.set(flagInaudibleKill, kill)
	}
}

func (e *Engine) set(h Handle, f voiceFlag, on bool) {
	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].set(f, on)
	}
}

// SetDelay holds a voice silent for d before it continues. Stream time
// keeps running during the delay.
func (e *Engine) SetDelay(h Handle, d time.Duration) {
	frames := e.framesFor(d)

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].delay = frames
	}
}

// SetMaxActiveVoiceCount sets how many voices are mixed at once, in
// [1, capacity]. Other voices are virtualised, not stopped.
func (e *Engine) SetMaxActiveVoiceCount(n int) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	if n < 1 || n > len(e.voices) {
		return fmt.Errorf("%w: max active voices %d not in [1, %d]", ErrInvalidParameter, n, len(e.voices))
	}

	e.logger.Debug().Int("from", e.maxActive).Int("to", n).Msg("max active voices changed")
	e.maxActive = n

	return nil
}

// SetGlobalVolume sets the gain applied to the whole mix.
func (e *Engine) SetGlobalVolume(volume float32) {
	if !finite32(volume) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.globalFader.Stop()
	e.globalVolume = volume
}

// SetPostClipScaler sets the gain applied after clipping.
func (e *Engine) SetPostClipScaler(scaler float32) error {
	if !(scaler > 0) || !finite32(scaler) {
		return fmt.Errorf("%w: post clip scaler %v", ErrInvalidParameter, scaler)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.postClipScaler = scaler

	return nil
}

// Set3DSourcePosition moves a positioned voice. The change is heard after
// the next Update3D.
func (e *Engine) Set3DSourcePosition(h Handle, position r3.Vec) {
	if !finiteVec(position) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].spatial.position = position
	}
}

// Set3DSourceVelocity sets the velocity used for the doppler shift.
func (e *Engine) Set3DSourceVelocity(h Handle, velocity r3.Vec) {
	if !finiteVec(velocity) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].spatial.velocity = velocity
	}
}

// Set3DSourceParameters sets position and velocity together.
func (e *Engine) Set3DSourceParameters(h Handle, position, velocity r3.Vec) {
	if !finiteVec(position) || !finiteVec(velocity) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		s := &e.voices[i].spatial
		s.position = position
		s.velocity = velocity
	}
}

// Set3DSourceMinMaxDistance bounds the distance attenuation is computed
// over.
func (e *Engine) Set3DSourceMinMaxDistance(h Handle, minDist, maxDist float64) error {
	if !(minDist > 0) || !finite(minDist) || !(maxDist >= minDist) {
		return fmt.Errorf("%w: distance range [%v, %v]", ErrInvalidParameter, minDist, maxDist)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		s := &e.voices[i].spatial
		s.minDist = minDist
		s.maxDist = maxDist
	}

	return nil
}

// Set3DSourceAttenuation selects the distance model and its rolloff.
func (e *Engine) Set3DSourceAttenuation(h Handle, model Attenuation, rolloff float64) error {
	if model < NoAttenuation || model > ExponentialDistance || !(rolloff >= 0) || !finite(rolloff) {
		return fmt.Errorf("%w: attenuation %s rolloff %v", ErrInvalidParameter, model, rolloff)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		s := &e.voices[i].spatial
		s.model = model
		s.rolloff = rolloff
	}

	return nil
}

// Set3DSourceDopplerFactor scales the doppler effect; 0 disables it.
func (e *Engine) Set3DSourceDopplerFactor(h Handle, factor float64) {
	if !finite(factor) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	for _, i := range e.expandHandle(h) {
		e.voices[i].spatial.doppler = max(factor, 0)
	}
}

// Set3DListenerParameters places the listener. at and up need not be unit
// length.
func (e *Engine) Set3DListenerParameters(position, at, up, velocity r3.Vec) {
	if !finiteVec(position) || !finiteVec(at) || !finiteVec(up) || !finiteVec(velocity) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.listener = listener{position: position, at: at, up: up, velocity: velocity}
}

// Set3DListenerPosition moves the listener.
func (e *Engine) Set3DListenerPosition(position r3.Vec) {
	if !finiteVec(position) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.listener.position = position
}

// Set3DListenerVelocity sets the listener velocity used for doppler.
func (e *Engine) Set3DListenerVelocity(velocity r3.Vec) {
	if !finiteVec(velocity) {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.listener.velocity = velocity
}

// Set3DSoundSpeed sets the speed of sound in world units per second.
func (e *Engine) Set3DSoundSpeed(speed float64) error {
	if !(speed > 0) || !finite(speed) {
		return fmt.Errorf("%w: sound speed %v", ErrInvalidParameter, speed)
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	e.soundSpeed = speed

	return nil
}

// Update3D recomputes attenuation, pan and doppler shift of every
// positioned voice from the current listener.
func (e *Engine) Update3D() {
	e.gate.Lock()
	defer e.gate.Unlock()

	for i := range e.highest {
		if v := e.voices[i]; v != nil && v.has(flag3D) {
			e.place(v)
		}
	}
}

// place applies the listener-relative attributes to one voice.
func (e *Engine) place(v *voice) {
	att, pan, doppler := v.spatial.place(&e.listener, e.soundSpeed)

	v.attenuation = att
	v.doppler = doppler
	if !v.panFader.Active() {
		v.setPan(pan)
	}
	e.updateOverall(v)
}

func finiteVec(v r3.Vec) bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }
