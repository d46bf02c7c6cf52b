// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts the go-audio integer decoders (wav, aiff) to
// audio.Source.
package pcm

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// Decoder is the part of a go-audio decoder the source reads through.
type Decoder interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Reopen returns a decoder positioned at the first sample again.
type Reopen func() (Decoder, error)

// Source reads integer PCM from a go-audio decoder and scales it to
// float32 in [-1, 1).
type Source struct {
	dec        Decoder
	reopen     Reopen
	sampleRate int
	channels   int
	scale      float32
	buf        *goaudio.IntBuffer
}

// Scale returns the factor that maps bitDepth integer samples to [-1, 1).
// Only whole-byte signed depths of 16 bits and up are supported.
func Scale(bitDepth int) (float32, bool) {
	switch bitDepth {
	case 16, 24, 32:
		return 1 / float32(int64(1)<<(bitDepth-1)), true
	default:
		return 0, false
	}
}

// NewSource wraps dec. reopen may be nil, in which case Rewind fails.
func NewSource(dec Decoder, sampleRate, channels int, scale float32, reopen Reopen) *Source {
	return &Source{
		dec:        dec,
		reopen:     reopen,
		sampleRate: sampleRate,
		channels:   channels,
		scale:      scale,
		buf: &goaudio.IntBuffer{
			Data:   make([]int, 4096),
			Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		},
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return cap(s.buf.Data) }
func (s *Source) Close() error    { return nil }

// ReadSamples reads whole frames only. Decoders may return short reads, so
// it keeps reading until dst is full or the decoder has nothing left.
func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	data := s.buf.Data[:want]

	total := 0
	eof := false
	for total < want && !eof {
		s.buf.Data = data[total:]

		n, err := s.dec.PCMBuffer(s.buf)
		switch {
		case errors.Is(err, io.EOF):
			eof = true
		case err != nil:
			s.buf.Data = data
			return 0, fmt.Errorf("decoding pcm: %w", err)
		case n == 0:
			eof = true
		}
		total += n
	}
	s.buf.Data = data

	total -= total % s.channels
	for i, v := range data[:total] {
		dst[i] = float32(v) * s.scale
	}

	if eof {
		return total, io.EOF
	}

	return total, nil
}

// Rewind restarts decoding from the first sample.
func (s *Source) Rewind() error {
	if s.reopen == nil {
		return errors.New("pcm source cannot rewind")
	}

	dec, err := s.reopen()
	if err != nil {
		return fmt.Errorf("rewinding pcm source: %w", err)
	}
	s.dec = dec

	return nil
}
