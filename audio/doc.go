// SPDX-License-Identifier: EPL-2.0

// Package audio holds the stream primitives the mixer is built from.
//
// # Sources
//
// Every playable stream is a Source: it reports its rate and channel
// count and fills buffers of interleaved float32 samples until it returns
// io.EOF. Sources know nothing about voices, faders or handles. A Source
// that can restart from its first frame also implements Rewinder, which
// looping voices require.
//
// # Samples
//
// Sample keeps a whole decoded sound in memory. Each call to Reader
// returns an independent, rewindable cursor, so one Sample can back many
// simultaneous voices:
//
//	sample, _ := audio.Load(src)
//	e.Play(sample.Reader())
//	e.Play(sample.Reader(), engine.Volume(0.5))
//
// # Rate and channel conversion
//
// Resampler converts to a fixed output rate with cubic interpolation.
// SetSourceRate changes the input rate between reads, which is how voices
// implement relative play speed and doppler shift:
//
//	res := audio.NewResampler(src, 44100)
//	_ = res.SetSourceRate(float64(src.SampleRate()) * 2) // one octave up
//
// MonoMixer averages all channels into one.
//
// # Registry
//
// Registry maps format keys to Decoders:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	src, err := reg.Decode("wav", file)
package audio
