// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 layer III audio with
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always yields 16-bit stereo, so every source reports two
// channels regardless of the file; mono files come out duplicated.
// Sources implement audio.Rewinder by seeking the decoder, which is why
// non-seekable inputs are read fully into memory first.
package mp3
