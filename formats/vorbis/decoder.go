// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audmix/audio"
)

// oggReader is the slice of oggvorbis.Reader the source relies on.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	SetPosition(pos int64) error
}

type source struct {
	dec oggReader
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.dec.Channels() }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// ReadSamples decodes into dst. oggvorbis counts interleaved values, not
// frames, and already writes floats in [-1, 1].
func (s *source) ReadSamples(dst []float32) (int, error) {
	ch := s.dec.Channels()
	want := len(dst) - len(dst)%ch
	if want == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:want])
	n -= n % ch

	if errors.Is(err, io.EOF) {
		return n, io.EOF
	}
	if err != nil {
		return 0, fmt.Errorf("decoding vorbis: %w", err)
	}

	return n, nil
}

// Rewind seeks back to the first sample.
func (s *source) Rewind() error {
	if err := s.dec.SetPosition(0); err != nil {
		return fmt.Errorf("rewinding vorbis: %w", err)
	}

	return nil
}

// Decoder turns an Ogg Vorbis stream into an audio.Source.
type Decoder struct{}

// Decode opens the stream. Seeking needs an io.ReadSeeker, so other
// readers are buffered in memory to keep Rewind available.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, ok := r.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading vorbis: %w", err)
		}
		r = bytes.NewReader(data)
	}

	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening vorbis: %w", err)
	}

	return &source{dec: dec}, nil
}
