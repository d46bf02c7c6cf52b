// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels   = 2
	frameBytes = channels * 2
)

// mp3Reader is the slice of gomp3.Decoder the source relies on.
type mp3Reader interface {
	io.ReadSeeker
	SampleRate() int
}

type source struct {
	dec mp3Reader
	buf []byte
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

// ReadSamples fills dst with whole stereo frames.
func (s *source) ReadSamples(dst []float32) (int, error) {
	need := (len(dst) / channels) * frameBytes
	if need == 0 {
		return 0, nil
	}

	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
	if err != nil && !eof {
		return 0, fmt.Errorf("decoding mp3: %w", err)
	}

	n -= n % frameBytes
	samples := n / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}

	if eof {
		return samples, io.EOF
	}

	return samples, nil
}

// Rewind seeks the decoder back to the first frame.
func (s *source) Rewind() error {
	if _, err := s.dec.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding mp3: %w", err)
	}

	return nil
}

// Decoder turns an MPEG-1/2 layer III stream into an audio.Source.
type Decoder struct{}

// Decode prepares a stereo source. go-mp3 can only seek over a seekable
// input, so other readers are buffered in memory to keep Rewind working.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	if _, ok := r.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading mp3: %w", err)
		}
		r = bytes.NewReader(data)
	}

	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("opening mp3: %w", err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{dec: dec, buf: make([]byte, 8192)}
}
