// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds deterministic sources for tests across the module.
package audiotest

import (
	"errors"
	"io"
	"math"
	"sync/atomic"
)

// ErrInjected is returned by FailingSource once its budget is spent.
var ErrInjected = errors.New("audiotest: injected failure")

// Waveform returns the value of channel ch at frame i.
type Waveform func(i, ch int) float32

// MockSource generates a fixed number of frames from a Waveform. It
// satisfies audio.Source and audio.Rewinder without importing them.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform

	reads  atomic.Int64
	closed atomic.Int64
}

// NewMockSource yields the given number of frames of wave.
func NewMockSource(sampleRate, channels, frames int, wave Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

// NewSineSource yields the same sine of freq Hz on every channel.
func NewSineSource(sampleRate, channels, frames int, freq float64) *MockSource {
	step := 2 * math.Pi * freq / float64(sampleRate)
	return NewMockSource(sampleRate, channels, frames, func(i, _ int) float32 {
		return float32(math.Sin(step * float64(i)))
	})
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 {
		return value
	})
}

// NewRampSource yields frame index i as the value i on every channel,
// which makes positions easy to assert on.
func NewRampSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(i, _ int) float32 {
		return float32(i)
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed.Add(1)
	return nil
}

// Rewind restarts generation from the first frame.
func (m *MockSource) Rewind() error {
	m.pos = 0
	return nil
}

// Closed reports how many times Close was called.
func (m *MockSource) Closed() int { return int(m.closed.Load()) }

// Reads reports how many times ReadSamples was called.
func (m *MockSource) Reads() int { return int(m.reads.Load()) }

// ReadSamples writes whole frames and returns io.EOF with the last of them.
func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	m.reads.Add(1)

	if m.pos >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.pos)
	for f := range n {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.wave(m.pos+f, ch)
		}
	}
	m.pos += n

	if m.pos >= m.frames {
		return n * m.channels, io.EOF
	}

	return n * m.channels, nil
}

// FailingSource produces a constant value for a number of frames and then
// returns ErrInjected from every read.
type FailingSource struct {
	*MockSource
	failAfter int
}

// NewFailingSource fails once failAfter frames have been produced.
func NewFailingSource(sampleRate, channels, failAfter int, value float32) *FailingSource {
	return &FailingSource{
		MockSource: NewConstantSource(sampleRate, channels, math.MaxInt32, value),
		failAfter:  failAfter,
	}
}

func (f *FailingSource) ReadSamples(dst []float32) (int, error) {
	remaining := f.failAfter - f.pos
	if remaining <= 0 {
		f.reads.Add(1)
		return 0, ErrInjected
	}

	limit := min(len(dst), remaining*f.channels)
	return f.MockSource.ReadSamples(dst[:limit])
}

// StreamSource is a MockSource without Rewind, for code paths that must
// cope with sources that cannot loop.
type StreamSource struct {
	m *MockSource
}

// NewStreamSource wraps a constant source of the given length.
func NewStreamSource(sampleRate, channels, frames int, value float32) *StreamSource {
	return &StreamSource{m: NewConstantSource(sampleRate, channels, frames, value)}
}

func (s *StreamSource) SampleRate() int                        { return s.m.SampleRate() }
func (s *StreamSource) Channels() int                          { return s.m.Channels() }
func (s *StreamSource) BufSize() int                           { return s.m.BufSize() }
func (s *StreamSource) Close() error                           { return s.m.Close() }
func (s *StreamSource) ReadSamples(dst []float32) (int, error) { return s.m.ReadSamples(dst) }
