// SPDX-License-Identifier: EPL-2.0

// Package fader implements the small interpolation state machine that drives
// a single scalar voice parameter (volume, pan, playback speed) over time.
//
// A Fader starts Inactive. Fade activates a linear ramp; Oscillate activates
// a periodic swing. The mixer queries Value once per mix cycle with the
// owner's clock and writes the result back into the parameter:
//
//	var f fader.Fader
//	f.Fade(0, 1, 2*time.Second, now)
//	v := f.Value(now + time.Second) // 0.5
//
// When the fade window has elapsed Value pins the result to the target and
// the state becomes Completed, which callers treat as inactive. Setting the
// parameter directly must call Stop so the fader does not overwrite it on
// the next cycle.
package fader
