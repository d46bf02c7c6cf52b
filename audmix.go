// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

// bounceBlock is the number of frames rendered per write while bouncing.
const bounceBlock = 1024

var errNoRewind = errors.New("source cannot rewind")

// NewRegistry returns a registry with every bundled decoder, keyed by
// lower case file extension without the dot.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("wave", wav.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})

	return reg
}

var defaultRegistry = NewRegistry()

// Formats lists the file extensions OpenFile understands.
func Formats() []string {
	return defaultRegistry.Formats()
}

// fileSource closes the backing file together with the decoder.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	return errors.Join(s.Source.Close(), s.f.Close())
}

func (s *fileSource) Rewind() error {
	rw, ok := s.Source.(audio.Rewinder)
	if !ok {
		return errNoRewind
	}

	return rw.Rewind()
}

// OpenFile streams path through the decoder registered for its extension.
// The returned source owns the file.
func OpenFile(path string) (audio.Source, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	src, err := defaultRegistry.Decode(ext, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &fileSource{Source: src, f: f}, nil
}

// LoadFile decodes path fully into memory. The sample can back any number
// of voices at once through Sample.Reader.
func LoadFile(path string) (*audio.Sample, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	sample, err := audio.Load(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return sample, nil
}

// RenderPCM16 mixes frames frames out of e as interleaved 16-bit PCM.
func RenderPCM16(e *engine.Engine, frames int) []int16 {
	out := make([]int16, frames*e.Channels())
	e.MixSigned16(out)

	return out
}

// Bounce renders d of output from e into a 16-bit WAV on ws, stopping
// early when ctx is cancelled. The header is finalised either way.
func Bounce(ctx context.Context, e *engine.Engine, ws io.WriteSeeker, d time.Duration) error {
	w, err := wav.NewWriter(ws, e.SampleRate(), e.Channels())
	if err != nil {
		return err
	}

	total := int(d.Seconds() * float64(e.SampleRate()))
	buf := make([]float32, bounceBlock*e.Channels())

	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, w.Close())
		}

		frames := min(bounceBlock, total-done)
		block := buf[:frames*e.Channels()]
		e.Mix(block)

		if err := w.WriteFloat32(block); err != nil {
			return errors.Join(err, w.Close())
		}
		done += frames
	}

	return w.Close()
}
