// SPDX-License-Identifier: EPL-2.0

// Package audmix ties the decoders in formats/ to the voice mixer in
// engine/.
//
// The engine itself knows nothing about files. This package opens files by
// extension, loads them into shareable samples and renders the mix into
// WAV output:
//
//	e, _ := engine.New(engine.DefaultConfig())
//	defer e.Close()
//
//	shot, _ := audmix.LoadFile("shot.wav")
//	e.Play(shot.Reader(), engine.Volume(0.8), engine.Pan(-0.5))
//
//	f, _ := os.Create("out.wav")
//	_ = audmix.Bounce(ctx, e, f, 2*time.Second)
//
// Supported formats are WAV, AIFF, MP3 and Ogg Vorbis; see Formats.
package audmix
