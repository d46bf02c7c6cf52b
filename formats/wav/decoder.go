// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/internal/pcm"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Decoder turns a RIFF/WAVE stream into an audio.Source.
type Decoder struct{}

// Decode reads the WAV header from r and returns a rewindable source
// positioned at the first sample. Readers that cannot seek are buffered
// in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec, err := open(rs)
	if err != nil {
		return nil, err
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("format tag %#x: %w", dec.WavAudioFormat, ErrUnsupportedFormat)
	}

	if dec.NumChans == 0 {
		return nil, ErrInvalidChannels
	}

	scale, ok := pcm.Scale(int(dec.BitDepth))
	if !ok {
		return nil, fmt.Errorf("%d bits: %w", dec.BitDepth, ErrUnsupportedBitDepth)
	}

	reopen := func() (pcm.Decoder, error) {
		return open(rs)
	}

	return pcm.NewSource(dec, int(dec.SampleRate), int(dec.NumChans), scale, reopen), nil
}

// open validates the header at the start of rs and moves to the data chunk.
func open(rs io.ReadSeeker) (*wav.Decoder, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking wav: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locating wav data: %w", err)
	}

	return dec, nil
}
