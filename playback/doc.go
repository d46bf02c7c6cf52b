// SPDX-License-Identifier: EPL-2.0

// Package playback sends an engine's output to the system audio device
// through github.com/ebitengine/oto/v3.
//
// Stream adapts Engine.Mix to io.Reader and is usable on its own, for
// example to pipe raw float32 audio into another program. Player owns the
// oto context and drives a Stream from the driver's callback thread; all
// engine calls from other goroutines are serialised by the engine.
package playback
