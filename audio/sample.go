// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Sample is fully decoded PCM kept in memory. It is immutable once built, so
// any number of voices can play it at the same time through their own
// SampleReader.
type Sample struct {
	data       []float32
	sampleRate int
	channels   int
}

// NewSample wraps interleaved samples. The slice is not copied.
func NewSample(data []float32, sampleRate, channels int) (*Sample, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidRate
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if len(data)%channels != 0 {
		return nil, ErrInvalidDstSize
	}

	return &Sample{data: data, sampleRate: sampleRate, channels: channels}, nil
}

// Load drains src into a Sample and closes it.
func Load(src Source) (*Sample, error) {
	defer src.Close()

	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}

	bufSize := max(src.BufSize(), 1024)
	bufSize -= bufSize % channels
	buf := make([]float32, bufSize)
	var data []float32

	for {
		n, err := src.ReadSamples(buf)
		data = append(data, buf[:n]...)

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loading sample: %w", err)
		}
	}

	// Drop a trailing partial frame from sources that stop mid-frame
	data = data[:len(data)-len(data)%channels]

	return NewSample(data, src.SampleRate(), channels)
}

func (s *Sample) SampleRate() int { return s.sampleRate }
func (s *Sample) Channels() int   { return s.channels }

// Frames is the sample length in frames.
func (s *Sample) Frames() int { return len(s.data) / s.channels }

func (s *Sample) Duration() time.Duration {
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.sampleRate)
}

// Reader returns a fresh cursor positioned at the first frame.
func (s *Sample) Reader() *SampleReader {
	return &SampleReader{s: s}
}

// SampleReader plays a Sample. It implements Source and Rewinder.
type SampleReader struct {
	s   *Sample
	pos int // in samples, always frame aligned
}

func (r *SampleReader) SampleRate() int { return r.s.sampleRate }
func (r *SampleReader) Channels() int   { return r.s.channels }
func (r *SampleReader) BufSize() int    { return 4096 }
func (r *SampleReader) Close() error    { return nil }

func (r *SampleReader) ReadSamples(dst []float32) (int, error) {
	if r.pos >= len(r.s.data) {
		return 0, io.EOF
	}

	n := len(dst) - len(dst)%r.s.channels
	n = copy(dst[:n], r.s.data[r.pos:])
	r.pos += n

	if r.pos >= len(r.s.data) {
		return n, io.EOF
	}

	return n, nil
}

func (r *SampleReader) Rewind() error {
	r.pos = 0
	return nil
}

// Seek moves the cursor to frame, clamped to the sample length.
func (r *SampleReader) Seek(frame int) {
	frame = min(max(frame, 0), r.s.Frames())
	r.pos = frame * r.s.channels
}

// Position is the current cursor in frames.
func (r *SampleReader) Position() int { return r.pos / r.s.channels }
