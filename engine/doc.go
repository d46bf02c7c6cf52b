// SPDX-License-Identifier: EPL-2.0

// Package engine mixes many concurrently playing voices into one output
// stream.
//
// # Voices and handles
//
// Play starts an audio.Source on a free slot of a fixed-size voice table
// and returns a Handle. Handles carry the slot's generation, so once a
// voice ends (stopped, finished or evicted) every handle to it goes stale
// and is silently ignored by setters, even after the slot is reused:
//
//	e, _ := engine.New(engine.DefaultConfig())
//	h := e.Play(src, engine.Volume(0.5), engine.Looping())
//	e.FadeVolume(h, 0, 2*time.Second)
//	e.ScheduleStop(h, 2*time.Second)
//
// A full table evicts its least audible unprotected voice. Audibility is
// volume times distance attenuation unless WithAudibility says otherwise.
//
// # Groups
//
// CreateGroup returns a handle accepted by every setter in place of a voice
// handle. Members that have ended are skipped. AllVoices addresses every
// voice.
//
// # Mixing
//
// A backend pulls output with Mix or MixSigned16 from its audio callback.
// Each cycle advances faders, picks at most MaxActiveVoiceCount voices by
// audibility, reads and resamples them, sums them with per-channel gain
// ramps, retires finished voices and runs the bus through the global
// volume, the clipper and the post clip scaler. Voices beyond the cap stay
// virtual: their stream time advances without reading the source.
//
// # Concurrency
//
// One lock guards all state, taken by every command and for the whole of
// each mix cycle. WithLocker substitutes the host's own lock.
package engine
