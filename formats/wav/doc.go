// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes RIFF/WAVE audio.
//
// Decoding goes through github.com/go-audio/wav and accepts integer PCM
// at 16, 24 or 32 bits, any channel count and any sample rate. The
// returned source implements audio.Rewinder, so WAV files can back
// looping voices directly. Readers that cannot seek are buffered in
// memory.
//
//	src, err := wav.Decoder{}.Decode(file)
//
// Two writers are provided. Writer streams into a seekable file and lets
// the encoder patch the chunk sizes on Close:
//
//	w, _ := wav.NewWriter(file, 44100, 2)
//	_ = w.WriteFloat32(mixed)
//	_ = w.Close()
//
// WriteWAV16 writes a complete buffer with a canonical 44 byte header and
// needs no seeking, which makes it usable on pipes and standard output.
package wav
