// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"encoding/binary"
	"math"

	"github.com/ik5/audmix/engine"
)

const bytesPerSample = 4

// Stream is an io.Reader that pulls mixed audio from an engine as
// interleaved little-endian float32, the layout oto.FormatFloat32LE
// expects. It never returns io.EOF: a silent engine yields silence.
type Stream struct {
	e   *engine.Engine
	buf []float32
}

// NewStream wraps e.
func NewStream(e *engine.Engine) *Stream {
	return &Stream{e: e}
}

// Read mixes as many whole frames as fit in p.
func (s *Stream) Read(p []byte) (int, error) {
	frameBytes := bytesPerSample * s.e.Channels()
	samples := (len(p) / frameBytes) * s.e.Channels()
	if samples == 0 {
		return 0, nil
	}

	if cap(s.buf) < samples {
		s.buf = make([]float32, samples)
	}
	buf := s.buf[:samples]
	s.e.Mix(buf)

	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}

	return samples * bytesPerSample, nil
}
