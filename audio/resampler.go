// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/audmix/utils"
)

// maxEmptyReads bounds how often a source may answer (0, nil) in a row
// before the resampler treats it as dry.
const maxEmptyReads = 8

// Resampler streams from src to a target sample rate using cubic
// interpolation. Works on interleaved samples; preserves channel count.
// The source rate may be changed between reads with SetSourceRate, which is
// how playback speed changes are applied without restarting the stream.
// A one-pole low-pass filter runs while downsampling.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // srcRate / dstRate - how many source frames per output frame
	channels int

	// Frames around the read position:
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2.
	// hasFrame marks frames that came from the source rather than padding.
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Fractional position between frames[1] and frames[2]
	pos float64

	// Block read from src and not yet consumed
	srcBuf []float32
	srcLen int
	srcOff int
	eof    bool

	filterState  []float32
	filterPrimed bool
	useFilter    bool
	filterAlpha  float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	block := max(src.BufSize(), 256)
	block -= block % channels

	r := &Resampler{
		src:         src,
		dstRate:     float64(dstRate),
		channels:    channels,
		srcBuf:      make([]float32, block),
		filterState: make([]float32, channels),
	}
	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}
	r.setRatio(float64(src.SampleRate()))

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }
func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// SourceRate reports the rate the source is currently read at.
func (r *Resampler) SourceRate() float64 { return r.srcRate }

// SetSourceRate changes the rate the source is interpreted at. Reading a
// 44.1kHz source at 88.2kHz plays it an octave up.
func (r *Resampler) SetSourceRate(rate float64) error {
	if !(rate > 0) || math.IsInf(rate, 1) {
		return ErrInvalidRate
	}
	if rate != r.srcRate {
		r.setRatio(rate)
	}

	return nil
}

func (r *Resampler) setRatio(rate float64) {
	r.srcRate = rate
	r.ratio = rate / r.dstRate
	if !r.useFilter {
		r.filterPrimed = false
	}
	r.useFilter = r.ratio > 1.0
	if r.useFilter {
		r.filterAlpha = float32(1.0 / r.ratio)
	}
}

// Reset drops buffered frames so the next read starts from whatever the
// source produces next. Use it after seeking the source directly.
func (r *Resampler) Reset() {
	r.primed = false
	r.pos = 0
	r.srcLen, r.srcOff = 0, 0
	r.eof = false
	r.filterPrimed = false
	r.hasFrame = [4]bool{}
}

// nextFrame copies one frame from the source block into dst. ok is false
// once the source has nothing more to give.
func (r *Resampler) nextFrame(dst []float32) (ok bool, err error) {
	for empty := 0; r.srcOff >= r.srcLen; {
		if r.eof || empty >= maxEmptyReads {
			return false, nil
		}

		n, rerr := r.src.ReadSamples(r.srcBuf)
		r.srcLen = n - n%r.channels
		r.srcOff = 0

		if rerr == io.EOF {
			r.eof = true
		} else if rerr != nil {
			return false, fmt.Errorf("%w", rerr)
		}
		if r.srcLen == 0 {
			empty++
		}
	}

	copy(dst, r.srcBuf[r.srcOff:r.srcOff+r.channels])
	r.srcOff += r.channels

	if r.useFilter {
		if !r.filterPrimed {
			// Start from the first sample to avoid a warm-up transient
			copy(r.filterState, dst)
			r.filterPrimed = true
		}
		for c := range r.channels {
			// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
			dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.nextFrame(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	r.hasFrame[1] = true
	copy(r.frames[0], r.frames[1])

	for i := 2; i < 4; i++ {
		if r.hasFrame[i], err = r.nextFrame(r.frames[i]); err != nil {
			return err
		}
		if !r.hasFrame[i] {
			copy(r.frames[i], r.frames[i-1])
		}
	}

	return nil
}

// shift advances the window by one source frame.
func (r *Resampler) shift() error {
	oldest := r.frames[0]
	r.frames[0], r.frames[1], r.frames[2] = r.frames[1], r.frames[2], r.frames[3]
	r.frames[3] = oldest
	r.hasFrame[0], r.hasFrame[1], r.hasFrame[2] = r.hasFrame[1], r.hasFrame[2], r.hasFrame[3]

	ok, err := r.nextFrame(r.frames[3])
	if err != nil {
		return err
	}
	if !ok {
		// Duplicate the edge so interpolation near the end stays flat
		copy(r.frames[3], r.frames[2])
	}
	r.hasFrame[3] = ok

	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded && r.hasFrame[1] {
		alpha := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.frames[0][c], r.frames[1][c], r.frames[2][c], r.frames[3][c], alpha)
		}
		written++

		r.pos += r.ratio
		for r.pos >= 1.0 && r.hasFrame[1] {
			r.pos -= 1.0
			if err := r.shift(); err != nil {
				return written * r.channels, err
			}
		}
	}

	if !r.hasFrame[1] {
		return written * r.channels, io.EOF
	}

	return written * r.channels, nil
}
